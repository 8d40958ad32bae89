package config

import (
	"time"
)

// CLIConfig is the configuration for linkhub-cli.
type CLIConfig struct {
	API     APIConfig     `koanf:"api"`
	Storage StorageConfig `koanf:"storage"`
	Guard   GuardConfig   `koanf:"guard"`
	Notify  NotifyConfig  `koanf:"notify"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`

	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output"`
}

// APIConfig describes the backend.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`
}

// StorageConfig selects the durable token store.
type StorageConfig struct {
	Driver   string `koanf:"driver"` // badger, redis, memory
	Dir      string `koanf:"dir"`
	RedisURL string `koanf:"redis_url"`
	Key      string `koanf:"key"`

	// SealKey is a hex-encoded 32-byte key. When set the token is
	// encrypted at rest.
	SealKey string `koanf:"seal_key"`
}

// GuardConfig lists the routes that need a session.
type GuardConfig struct {
	PrivatePaths []string `koanf:"private_paths"`
	LoginPath    string   `koanf:"login_path"`
}

// NotifyConfig tunes the notification queue.
type NotifyConfig struct {
	DefaultTimeout time.Duration `koanf:"default_timeout"`
	DisableTimers  bool          `koanf:"disable_timers"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig configures the metrics endpoint of `watch`.
type MetricsConfig struct {
	Address string `koanf:"address"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:8000/api/v1",
			Timeout:   30 * time.Second,
			UserAgent: "linkhub-cli/1.0",
		},
		Storage: StorageConfig{
			Driver: "badger",
			Dir:    "~/.linkhub/state",
			Key:    "token",
		},
		Guard: GuardConfig{
			PrivatePaths: []string{"/dashboard"},
			LoginPath:    "/login",
		},
		Notify: NotifyConfig{
			DefaultTimeout: 2 * time.Second,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: "table",
	}
}

// Map returns the configuration as a nested map keyed like the YAML file.
// The seal key is omitted unless withSecrets is set.
func (c *CLIConfig) Map(withSecrets bool) map[string]any {
	storage := map[string]any{
		"driver":    c.Storage.Driver,
		"dir":       c.Storage.Dir,
		"redis_url": c.Storage.RedisURL,
		"key":       c.Storage.Key,
	}
	if withSecrets && c.Storage.SealKey != "" {
		storage["seal_key"] = c.Storage.SealKey
	}

	paths := make([]any, len(c.Guard.PrivatePaths))
	for i, p := range c.Guard.PrivatePaths {
		paths[i] = p
	}

	return map[string]any{
		"api": map[string]any{
			"base_url":   c.API.BaseURL,
			"timeout":    c.API.Timeout.String(),
			"user_agent": c.API.UserAgent,
		},
		"storage": storage,
		"guard": map[string]any{
			"private_paths": paths,
			"login_path":    c.Guard.LoginPath,
		},
		"notify": map[string]any{
			"default_timeout": c.Notify.DefaultTimeout.String(),
			"disable_timers":  c.Notify.DisableTimers,
		},
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
		"metrics": map[string]any{
			"address": c.Metrics.Address,
		},
		"output": c.Output,
	}
}
