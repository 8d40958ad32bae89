package command

import (
	"context"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkhub-go/internal/app"
	"github.com/yndnr/linkhub-go/internal/cli/repl"
)

// ShellCommand returns the shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Run commands interactively against one session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "Command history file (empty keeps history in memory)",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: shell,
	}
}

func shell(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Start(c.Context)

	r := repl.New(lineExecutor(c, a),
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithHistory(repl.NewHistory(c.String("history-file"))),
		repl.WithCommands(commandNames(sessionCommands())),
	)
	return r.Run(c.Context)
}

// lineExecutor runs one shell line as a session command sharing a.
func lineExecutor(c *cli.Context, a *app.App) repl.Executor {
	return func(ctx context.Context, args []string) error {
		line := &cli.App{
			Name:            "linkhub",
			HideVersion:     true,
			HideHelpCommand: true,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Output format: table, json, yaml",
				},
			},
			Commands:       sessionCommands(),
			Writer:         c.App.Writer,
			ErrWriter:      c.App.ErrWriter,
			Reader:         strings.NewReader(""),
			Metadata:       map[string]any{appKey: a},
			ExitErrHandler: func(*cli.Context, error) {},
		}
		return line.RunContext(ctx, append([]string{line.Name}, args...))
	}
}

func commandNames(cmds []*cli.Command) []string {
	var names []string
	for _, cmd := range cmds {
		names = append(names, cmd.Name)
		for _, sub := range cmd.Subcommands {
			names = append(names, cmd.Name+" "+sub.Name)
		}
	}
	return names
}
