package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/linkhub-go/internal/app"
	"github.com/yndnr/linkhub-go/internal/cli/config"
	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/core/state"
	"github.com/yndnr/linkhub-go/internal/infra/confloader"
	"github.com/yndnr/linkhub-go/internal/infra/shutdown"
	"github.com/yndnr/linkhub-go/internal/notify"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Restore the session and report changes until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-address",
				Usage: "Serve Prometheus metrics on this address (e.g., 127.0.0.1:9464)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Time allowed for cleanup on exit",
				Value: 10 * time.Second,
			},
		},
		Action: watch,
	}
}

// lockedWriter serializes writes from listeners running on other goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func watch(c *cli.Context) error {
	l, err := newLoader(c)
	if err != nil {
		return err
	}
	if c.IsSet("metrics-address") {
		if err := l.LoadMap(map[string]any{"metrics.address": c.String("metrics-address")}); err != nil {
			return err
		}
	}
	cfg, err := config.LoadFrom(l)
	if err != nil {
		return err
	}
	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}

	out := &lockedWriter{w: c.App.Writer}
	h := shutdown.NewHandler(c.Duration("shutdown-timeout"))
	h.OnShutdown(func(context.Context) error { return a.Close() })

	stopReport := reportChanges(a, out)
	h.OnShutdown(func(context.Context) error {
		stopReport()
		return nil
	})

	if addr := cfg.Metrics.Address; addr != "" {
		srv, err := serveMetrics(a, addr, out)
		if err != nil {
			h.Shutdown()
			return err
		}
		h.OnShutdown(srv.Shutdown)
	}

	if w := watchConfig(a, l); w != nil {
		h.OnShutdown(func(context.Context) error { return w.Stop() })
	}

	startup := a.Start(c.Context)
	go func() {
		if err := startup.Wait(c.Context); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Warn("startup validation failed", "error", err)
		}
	}()

	return h.Wait(c.Context)
}

// reportChanges prints session transitions and surfaces them as
// notifications.
func reportChanges(a *app.App, out io.Writer) func() {
	var mu sync.Mutex
	var last state.Snapshot

	stopState := a.State.Subscribe(func(s state.Snapshot) {
		mu.Lock()
		prev := last
		last = s
		mu.Unlock()

		switch {
		case s.Authenticated() && !prev.Authenticated():
			a.Notify.Success("Signed in as " + displayName(s.User))
		case !s.HasToken() && prev.HasToken():
			a.Notify.Warning("Session ended", notify.WithTitle("Session"))
		}
	})
	stopNotify := a.Notify.Subscribe(func(list []domain.Notification) {
		for _, n := range list {
			fmt.Fprintf(out, "[%s] %s\n", n.Type, n.Message)
		}
	})

	return func() {
		stopState()
		stopNotify()
	}
}

func displayName(p *domain.Profile) string {
	switch {
	case p == nil:
		return "unknown"
	case p.Username != "":
		return p.Username
	case p.Email != "":
		return p.Email
	default:
		return p.ID
	}
}

func serveMetrics(a *app.App, addr string, out io.Writer) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("metrics server failed", "error", err)
		}
	}()
	fmt.Fprintf(out, "metrics listening on http://%s/metrics\n", ln.Addr())
	return srv, nil
}

// watchConfig reloads the configuration file on change. It returns nil when
// the file's directory cannot be watched.
func watchConfig(a *app.App, l *confloader.Loader) *confloader.Watcher {
	w, err := confloader.NewWatcher(l.FilePath(), confloader.WithWatcherLogger(a.Logger.Slog()))
	if err != nil {
		a.Logger.Debug("configuration not watched", "error", err)
		return nil
	}
	w.OnChange(func(string) {
		cfg, err := config.LoadFrom(l)
		if err != nil {
			a.Logger.Warn("configuration reload failed", "error", err)
			return
		}
		a.ApplyConfig(cfg)
	})
	w.StartAsync()
	return w
}
