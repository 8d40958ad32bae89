package confloader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "LINKHUB_"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	defaults  map[string]any
	overrides map[string]any
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path. A missing file is not
// an error.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithDefaults sets the lowest-priority values, keyed by dotted path.
func WithDefaults(defaults map[string]any) Option {
	return func(l *Loader) {
		l.defaults = defaults
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FilePath returns the configuration file path, if any.
func (l *Loader) FilePath() string {
	return l.filePath
}

// Load reads defaults, the file, the environment and any overrides set
// with LoadMap, in that order, and unmarshals the result into target.
// Calling it again re-reads every source, which is how reloads work.
func (l *Loader) Load(target any) error {
	l.k = koanf.New(".")

	if l.defaults != nil {
		if err := l.k.Load(mapProvider(l.defaults), nil); err != nil {
			return fmt.Errorf("load defaults: %w", err)
		}
	}
	if err := l.LoadFile(l.filePath); err != nil {
		return fmt.Errorf("load config file: %w", err)
	}
	if err := l.LoadEnv(); err != nil {
		return err
	}
	if l.overrides != nil {
		if err := l.k.Load(mapProvider(l.overrides), nil); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile loads a YAML file. Empty paths and missing files are skipped.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads environment variables. The first underscore after the
// prefix separates the section from the key, so LINKHUB_API_BASE_URL
// becomes api.base_url.
func (l *Loader) LoadEnv() error {
	provider := env.Provider(l.envPrefix, ".", func(s string) string {
		return EnvKey(l.envPrefix, s)
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// EnvKey maps an environment variable name to a configuration key.
func EnvKey(prefix, name string) string {
	s := strings.ToLower(strings.TrimPrefix(name, prefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + key
}

// LoadMap records highest-priority values (command-line flags) and applies
// them immediately. They are re-applied on every Load.
func (l *Loader) LoadMap(data map[string]any) error {
	if l.overrides == nil {
		l.overrides = make(map[string]any, len(data))
	}
	for k, v := range data {
		l.overrides[k] = v
	}
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal unmarshals the loaded configuration into target using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// All returns all configuration as a map.
func (l *Loader) All() map[string]any {
	return l.k.All()
}

// mapProvider is a koanf provider over a dotted-key map.
type mapProvider map[string]any

// ReadBytes is not supported; koanf falls back to Read.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: map provider has no byte form")
}

// Read returns the map unflattened on ".".
func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any)
	for k, v := range m {
		parts := strings.Split(k, ".")
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
	return out, nil
}
