// Package logger provides structured logging for LinkHub.
//
//   - logger.go: slog-based Logger, runtime level, default logger
//   - context.go: context propagation with request IDs
//   - redact.go: credential redaction
//
// Tokens and passwords never reach the output verbatim: attributes named
// like credentials are replaced and bearer values are masked.
package logger
