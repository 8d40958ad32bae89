// Package app builds the LinkHub object graph from configuration.
//
// One App owns one session state. The durable store, the API client, the
// auth service, the startup synchronizer, the guard and the notification
// queue all share it.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/yndnr/linkhub-go/internal/cli/config"
	"github.com/yndnr/linkhub-go/internal/cli/connection"
	"github.com/yndnr/linkhub-go/internal/core/service"
	"github.com/yndnr/linkhub-go/internal/core/state"
	"github.com/yndnr/linkhub-go/internal/notify"
	"github.com/yndnr/linkhub-go/internal/storage"
	"github.com/yndnr/linkhub-go/internal/telemetry/logger"
	"github.com/yndnr/linkhub-go/internal/telemetry/metric"
)

// App is the assembled client.
type App struct {
	Config  *config.CLIConfig
	Logger  logger.Logger
	Metrics *metric.Registry

	Store  storage.KV
	Mirror *service.TokenMirror
	State  *state.State
	API    *connection.HTTPClient
	Auth   *service.AuthService
	Sync   *service.Synchronizer
	Guard  *service.Guard
	Notify *notify.Queue

	unsubscribe func()
}

type options struct {
	kv         storage.KV
	logger     logger.Logger
	httpClient *http.Client
}

// Option customizes New.
type Option func(*options)

// WithStore uses kv instead of opening the configured driver.
// The App takes ownership and closes it.
func WithStore(kv storage.KV) Option {
	return func(o *options) {
		o.kv = kv
	}
}

// WithLogger uses l instead of building one from the configuration.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHTTPClient sets the transport used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// New assembles an App. Nothing talks to the backend until Start or an
// auth operation is called.
func New(ctx context.Context, cfg *config.CLIConfig, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		var err error
		log, err = logger.New(logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: os.Stderr,
		})
		if err != nil {
			return nil, err
		}
		logger.SetDefault(log)
	}

	kv := o.kv
	if kv == nil {
		sealKey, err := cfg.SealKeyBytes()
		if err != nil {
			return nil, err
		}
		kv, err = storage.Open(ctx, storage.Config{
			Driver:   cfg.Storage.Driver,
			Dir:      cfg.Storage.Dir,
			RedisURL: cfg.Storage.RedisURL,
			SealKey:  sealKey,
		}, log.Slog())
		if err != nil {
			return nil, err
		}
	}

	m := metric.NewRegistry(cfg.Metrics.Address != "")
	mirror := service.NewTokenMirror(kv, cfg.Storage.Key)
	st := state.New(mirror)

	var clientOpts []connection.Option
	if o.httpClient != nil {
		clientOpts = append(clientOpts, connection.WithHTTPClient(o.httpClient))
	}
	if cfg.API.Timeout > 0 {
		clientOpts = append(clientOpts, connection.WithTimeout(cfg.API.Timeout))
	}
	if cfg.API.UserAgent != "" {
		clientOpts = append(clientOpts, connection.WithUserAgent(cfg.API.UserAgent))
	}
	api := connection.NewHTTPClient(cfg.API.BaseURL, st, clientOpts...)

	auth := service.NewAuthService(api, st,
		service.WithMetrics(m),
		service.WithLogger(log.With("component", "auth")),
	)

	queueOpts := []notify.QueueOption{
		notify.WithDefaultTimeout(cfg.Notify.DefaultTimeout),
		notify.WithMetrics(m),
	}
	if cfg.Notify.DisableTimers {
		queueOpts = append(queueOpts, notify.WithoutTimers())
	}

	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: m,
		Store:   kv,
		Mirror:  mirror,
		State:   st,
		API:     api,
		Auth:    auth,
		Sync:    service.NewSynchronizer(auth, mirror, log.With("component", "startup")),
		Guard:   service.NewGuard(st, cfg.Guard.PrivatePaths, cfg.Guard.LoginPath, m),
		Notify:  notify.New(queueOpts...),
	}
	a.unsubscribe = st.Subscribe(func(s state.Snapshot) {
		m.SetAuthenticated(s.Authenticated())
	})
	return a, nil
}

// Start runs the startup synchronizer.
func (a *App) Start(ctx context.Context) *service.Startup {
	return a.Sync.Start(ctx)
}

// ApplyConfig applies the settings that can change while running: the
// guard's paths and the log level.
func (a *App) ApplyConfig(cfg *config.CLIConfig) {
	a.Guard.SetPrivatePaths(cfg.Guard.PrivatePaths)
	logger.SetLevel(cfg.Log.Level)
	a.Logger.Info("configuration applied", "private_paths", cfg.Guard.PrivatePaths)
}

// Close releases the queue timers and the durable store.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.Notify.Close()
	if err := a.Store.Close(); err != nil && !errors.Is(err, storage.ErrClosed) {
		return err
	}
	return nil
}
