package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultPrompt is printed before every line.
const DefaultPrompt = "linkhub> "

// Executor runs one parsed command line.
type Executor func(ctx context.Context, args []string) error

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets the prompt.
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithHistory sets the command history.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithCommands sets the command names offered by help.
func WithCommands(commands []string) Option {
	return func(r *REPL) {
		r.completer = NewCompleter(commands)
	}
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	completer *Completer
	history   *History
	exec      Executor
}

// New creates a new REPL that hands every line to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    DefaultPrompt,
		completer: NewCompleter(nil),
		history:   NewHistory(""),
		exec:      exec,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History returns the command history.
func (r *REPL) History() *History {
	return r.history
}

// Run starts the REPL loop. It returns on exit, quit, end of input or when
// ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: history not loaded: %v\n", err)
	}
	defer r.history.Save()

	reader := bufio.NewReader(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}
		r.history.Add(line)

		if r.eval(ctx, line) {
			return nil
		}
		if eof {
			return nil
		}
	}
}

// eval runs line and reports whether the loop should stop.
func (r *REPL) eval(ctx context.Context, line string) bool {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "error: %v\n", err)
		return false
	}

	switch args[0] {
	case "exit", "quit":
		return true
	case "help":
		prefix := ""
		if len(args) > 1 {
			prefix = strings.Join(args[1:], " ")
		}
		for _, cmd := range r.completer.Complete(prefix) {
			fmt.Fprintf(r.output, "  %s\n", cmd)
		}
		return false
	case "history":
		for i := r.history.Len() - 1; i >= 0; i-- {
			fmt.Fprintf(r.output, "%4d  %s\n", r.history.Len()-i, r.history.Get(i))
		}
		return false
	}

	if err := r.exec(ctx, args); err != nil {
		fmt.Fprintf(r.output, "error: %v\n", err)
		if args[0] != "" && !r.completer.Known(args[0]) {
			if s := r.completer.Complete(args[0][:1]); len(s) > 0 {
				fmt.Fprintf(r.output, "did you mean: %s\n", strings.Join(s, ", "))
			}
		}
	}
	return false
}

// SplitArgs splits line into words. Single and double quotes group words
// and a backslash escapes the next character outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		escaped bool
		inWord  bool
	)
	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(ch)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}
