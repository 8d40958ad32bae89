package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkhub-go/internal/core/service"
)

// OpenCommand returns the open command.
func OpenCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Ask the navigation guard whether PATH may be opened",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-wait",
				Usage: "Decide before the restored session is validated",
			},
		},
		Action: open,
	}
}

// decisionView is the output of the open command.
type decisionView struct {
	Path     string `json:"path"`
	Decision string `json:"decision"`
	Redirect string `json:"redirect,omitempty"`
}

func open(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("PATH is required")
	}
	path := c.Args().First()

	a, release, err := clientFor(c)
	if err != nil {
		return err
	}
	defer release()

	startup := a.Start(c.Context)

	var d service.Decision
	if c.Bool("no-wait") {
		d = a.Guard.Evaluate(path)
	} else if d, err = a.Guard.EvaluateSettled(c.Context, startup, path); err != nil {
		return err
	}

	return render(c, a.Config.Output, decisionView{
		Path:     d.Path,
		Decision: d.String(),
		Redirect: d.Redirect,
	})
}
