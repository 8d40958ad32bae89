package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/infra/confloader"
	"github.com/yndnr/linkhub-go/internal/telemetry/logger"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".linkhub", "cli.yaml")
}

// NewLoader returns a loader for path with the CLI defaults and the given
// flag overrides (dotted keys) applied.
func NewLoader(path string, flags map[string]any) (*confloader.Loader, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDefaults(flatten("", Default().Map(false))),
	)
	if len(flags) > 0 {
		if err := l.LoadMap(flags); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadFrom reads every source of l and validates the result.
func LoadFrom(l *confloader.Loader) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	cfg.Storage.Dir = ExpandHome(cfg.Storage.Dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads CLI configuration from path. A missing file yields defaults.
func Load(path string) (*CLIConfig, error) {
	l, err := NewLoader(path, nil)
	if err != nil {
		return nil, err
	}
	return LoadFrom(l)
}

// Save writes cfg to path as YAML with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg.Map(true))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks the values the CLI cannot run without.
func (c *CLIConfig) Validate() error {
	if c.API.BaseURL == "" {
		return domain.ErrInvalidArgument.WithDetails("api.base_url is required")
	}
	switch c.Storage.Driver {
	case "badger":
		if c.Storage.Dir == "" {
			return domain.ErrInvalidArgument.WithDetails("storage.dir is required for badger")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return domain.ErrInvalidArgument.WithDetails("storage.redis_url is required for redis")
		}
	case "memory":
	default:
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown storage.driver %q", c.Storage.Driver))
	}
	if _, err := c.SealKeyBytes(); err != nil {
		return err
	}
	if c.Notify.DefaultTimeout < 0 {
		return domain.ErrInvalidArgument.WithDetails("notify.default_timeout must not be negative")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return domain.ErrInvalidArgument.WithDetails("log.level: " + err.Error())
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown log.format %q", c.Log.Format))
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown output %q", c.Output))
	}
	return nil
}

// SealKeyBytes decodes storage.seal_key. It returns nil when unset.
func (c *CLIConfig) SealKeyBytes() ([]byte, error) {
	if c.Storage.SealKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.Storage.SealKey)
	if err != nil || len(key) != 32 {
		return nil, domain.ErrInvalidArgument.WithDetails("storage.seal_key must be 64 hex characters")
	}
	return key, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}
