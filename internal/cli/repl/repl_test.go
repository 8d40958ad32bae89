package repl

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// recorder is an Executor that remembers every call.
type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) exec(_ context.Context, args []string) error {
	r.calls = append(r.calls, args)
	return r.err
}

func newTestREPL(input string, exec Executor) (*REPL, *bytes.Buffer) {
	output := &bytes.Buffer{}
	r := New(exec,
		WithIO(strings.NewReader(input), output),
		WithCommands([]string{"login", "logout", "me", "open", "status", "toast"}),
	)
	return r, output
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\n"},
		{"quit command", "quit\n"},
		{"EOF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r, _ := newTestREPL(tt.input, rec.exec)
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
			if len(rec.calls) != 0 {
				t.Errorf("executor called %d times, want 0", len(rec.calls))
			}
		})
	}
}

func TestREPL_Run_EmptyLines(t *testing.T) {
	r, output := newTestREPL("\n\n\nexit\n", (&recorder{}).exec)
	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}

	if prompts := strings.Count(output.String(), DefaultPrompt); prompts < 4 {
		t.Errorf("expected at least 4 prompts, got %d", prompts)
	}
}

func TestREPL_Run_Executes(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("status\ntoast --title 'Heads up' \"two words\"\nexit\n", rec.exec)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	want := [][]string{
		{"status"},
		{"toast", "--title", "Heads up", "two words"},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %q, want %q", rec.calls, want)
	}
}

func TestREPL_Run_LastLineWithoutNewline(t *testing.T) {
	rec := &recorder{}
	r, _ := newTestREPL("me", rec.exec)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0][0] != "me" {
		t.Errorf("calls = %q, want [[me]]", rec.calls)
	}
}

func TestREPL_Run_ErrorsAreReported(t *testing.T) {
	rec := &recorder{err: errors.New("not logged in")}
	r, output := newTestREPL("me\nlgout\nexit\n", rec.exec)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	out := output.String()
	if !strings.Contains(out, "error: not logged in") {
		t.Errorf("error not printed:\n%s", out)
	}
	if !strings.Contains(out, "did you mean: login, logout") {
		t.Errorf("no suggestion for an unknown command:\n%s", out)
	}
	if len(rec.calls) != 2 {
		t.Errorf("executor called %d times, want 2", len(rec.calls))
	}
}

func TestREPL_Run_Builtins(t *testing.T) {
	rec := &recorder{}
	r, output := newTestREPL("help lo\nstatus\nhistory\nexit\n", rec.exec)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	out := output.String()
	for _, want := range []string{"  login\n", "  logout\n", "   1  help lo\n", "   2  status\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(rec.calls) != 1 {
		t.Errorf("built-ins reached the executor: %q", rec.calls)
	}
}

func TestREPL_Run_HistoryAdded(t *testing.T) {
	r, _ := newTestREPL("  command1  \n\tcommand2\t\nexit\n", (&recorder{}).exec)
	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}

	h := r.History()
	if h.Get(0) != "exit" {
		t.Errorf("most recent command = %q, want %q", h.Get(0), "exit")
	}
	if h.Get(1) != "command2" {
		t.Errorf("second most recent = %q, want %q", h.Get(1), "command2")
	}
	if h.Get(2) != "command1" {
		t.Errorf("third most recent = %q, want %q", h.Get(2), "command1")
	}
}

func TestREPL_Run_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	r, _ := newTestREPL("status\n", rec.exec)
	if err := r.Run(ctx); err != nil {
		t.Errorf("Run() returned error: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Error("canceled REPL should not execute commands")
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "status", want: []string{"status"}},
		{line: "open   /dashboard", want: []string{"open", "/dashboard"}},
		{line: `toast "hello world"`, want: []string{"toast", "hello world"}},
		{line: `toast 'it"s'`, want: []string{"toast", `it"s`}},
		{line: `toast it\'s`, want: []string{"toast", "it's"}},
		{line: `toast ""`, want: []string{"toast", ""}},
		{line: `toast "open`, wantErr: true},
		{line: `toast \`, wantErr: true},
		{line: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitArgs(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArgs(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}
