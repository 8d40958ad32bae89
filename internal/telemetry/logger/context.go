package logger

import "context"

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
)

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or Default, bound to ctx
// so its records carry the request ID.
func FromContext(ctx context.Context) Logger {
	l, ok := ctx.Value(loggerKey).(Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

// WithRequestID tags ctx with the ID sent as X-Request-ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID of ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
