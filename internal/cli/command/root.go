package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkhub-go/internal/app"
	"github.com/yndnr/linkhub-go/internal/cli/config"
	"github.com/yndnr/linkhub-go/internal/cli/output"
	"github.com/yndnr/linkhub-go/internal/infra/buildinfo"
	"github.com/yndnr/linkhub-go/internal/infra/confloader"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "linkhub-cli",
		Usage:   "LinkHub session client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: append(sessionCommands(),
			WatchCommand(),
			ShellCommand(),
			ConfigCommand(),
		),
	}
}

// sessionCommands returns the commands that act on one client. The shell
// offers exactly these.
func sessionCommands() []*cli.Command {
	return []*cli.Command{
		LoginCommand(),
		RegisterCommand(),
		LogoutCommand(),
		MeCommand(),
		StatusCommand(),
		OpenCommand(),
		ToastCommand(),
		VersionCommand(),
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file",
			EnvVars: []string{"LINKHUB_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "API base URL (e.g., http://127.0.0.1:8000/api/v1)",
		},
		&cli.StringFlag{
			Name:  "storage",
			Usage: "Token store driver: badger, redis, memory",
		},
		&cli.StringFlag{
			Name:  "state-dir",
			Usage: "Directory of the badger token store",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// flagOverrides maps the global flags that were set to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	flags := make(map[string]any)
	set := func(flag, key string) {
		if c.IsSet(flag) {
			flags[key] = c.String(flag)
		}
	}
	set("server", "api.base_url")
	set("storage", "storage.driver")
	set("state-dir", "storage.dir")
	set("output", "output")
	if c.Bool("verbose") {
		flags["log.level"] = "debug"
	}
	return flags
}

// newLoader returns the configuration loader for this invocation.
func newLoader(c *cli.Context) (*confloader.Loader, error) {
	return config.NewLoader(c.String("config"), flagOverrides(c))
}

// loadConfig loads the configuration for this invocation.
func loadConfig(c *cli.Context) (*config.CLIConfig, error) {
	l, err := newLoader(c)
	if err != nil {
		return nil, err
	}
	return config.LoadFrom(l)
}

// newApp builds the client. The caller must Close it.
func newApp(c *cli.Context) (*app.App, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return app.New(c.Context, cfg)
}

// appKey holds the shell's shared client in cli.App.Metadata.
const appKey = "app"

// clientFor returns the shell's shared client, or a new one. Call release
// when done.
func clientFor(c *cli.Context) (a *app.App, release func(), err error) {
	if shared, ok := c.App.Metadata[appKey].(*app.App); ok {
		return shared, func() {}, nil
	}
	a, err = newApp(c)
	if err != nil {
		return nil, nil, err
	}
	return a, func() { a.Close() }, nil
}

// render writes data with the formatter named by --output, or format.
func render(c *cli.Context, format string, data any) error {
	if c.IsSet("output") {
		format = c.String("output")
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	return output.NewFormatter(f).Format(c.App.Writer, data)
}

// PrintError prints an error message to stderr.
func PrintError(w io.Writer, err error) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
