package logger

import (
	"log/slog"
	"strings"
)

// Key fragments that mark an attribute as a credential.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
	"seal_key",
}

const redactedValue = "***REDACTED***"

// redactSensitive replaces credentials before they reach the handler.
// A "Bearer xxx" value is masked regardless of its key.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if rest, ok := cutBearer(strVal); ok {
			return slog.String(a.Key, "Bearer "+RedactToken(rest))
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

func cutBearer(s string) (string, bool) {
	if len(s) > 7 && strings.EqualFold(s[:7], "bearer ") {
		return s[7:], true
	}
	return "", false
}

// RedactToken masks a token to its first and last three characters.
// Short tokens are fully masked.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 10 {
		return "***"
	}
	return token[:3] + "..." + token[len(token)-3:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
