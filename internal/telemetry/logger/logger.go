// Package logger provides structured logging for LinkHub.
//
// It wraps log/slog with JSON or text output, a process-wide level that
// can be changed at runtime and automatic redaction of credentials.
// Records logged with a context carry its request ID.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger

	// Slog exposes the underlying *slog.Logger for libraries that take one.
	Slog() *slog.Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `koanf:"level"`
	// Format is the output format (json, text).
	Format string `koanf:"format"`
	// Output is the output writer (defaults to os.Stderr).
	Output io.Writer `koanf:"-"`
	// AddSource adds source file information to log entries.
	AddSource bool `koanf:"add_source"`
}

// DefaultConfig returns the CLI default: quiet text on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "text",
		Output: os.Stderr,
	}
}

// level is shared by every logger built with New.
var level = new(slog.LevelVar)

// New creates a new logger with the given configuration.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level.Set(lvl)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text", "console":
		h = slog.NewTextHandler(out, opts)
	case "json":
		h = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return newLogger(slog.New(contextHandler{h})), nil
}

// ParseLevel parses debug, info, warn (or warning) and error. An empty
// string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// SetLevel changes the level of every logger built with New. Unknown
// levels are ignored.
func SetLevel(s string) {
	if lvl, err := ParseLevel(s); err == nil {
		level.Set(lvl)
	}
}

// GetLevel returns the current level in the form ParseLevel accepts.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

// contextHandler adds the request ID carried by the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func newLogger(l *slog.Logger) *slogLogger {
	return &slogLogger{logger: l, ctx: context.Background()}
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.DebugContext(l.ctx, msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.InfoContext(l.ctx, msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.WarnContext(l.ctx, msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.ErrorContext(l.ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

func (l *slogLogger) Slog() *slog.Logger {
	return l.logger
}

var defaultLogger atomic.Pointer[slogLogger]

func init() {
	l, _ := New(DefaultConfig())
	defaultLogger.Store(l.(*slogLogger))
}

// SetDefault sets the process-wide logger returned by Default.
func SetDefault(l Logger) {
	if sl, ok := l.(*slogLogger); ok {
		defaultLogger.Store(sl)
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return defaultLogger.Load()
}

// Discard returns a logger that drops everything without touching the
// shared level.
func Discard() Logger {
	return newLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
