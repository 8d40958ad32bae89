package connection

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is the normalized form of a non-success HTTP response.
//
// When the body is a JSON object, Parsed is true and the server-provided
// fields are kept: Message, Code, per-field validation Errors and every raw
// field in Fields. Otherwise only Status and a generic Message are set.
type APIError struct {
	Status  int
	Code    string
	Message string
	Errors  map[string][]string
	Fields  map[string]any
	Parsed  bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error (status %d)", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unauthorized reports whether the server rejected the credential.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// FieldErrors returns validation messages flattened as "field: message",
// sorted by field.
func (e *APIError) FieldErrors() []string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		for _, msg := range e.Errors[k] {
			out = append(out, k+": "+msg)
		}
	}
	return out
}

// newAPIError builds an APIError from a status and raw body.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		apiErr.Message = genericMessage(status)
		return apiErr
	}

	apiErr.Parsed = true
	apiErr.Fields = fields

	if msg, ok := fields["message"].(string); ok {
		apiErr.Message = msg
	} else if msg, ok := fields["error"].(string); ok {
		apiErr.Message = msg
	} else {
		apiErr.Message = genericMessage(status)
	}
	if code, ok := fields["code"].(string); ok {
		apiErr.Code = code
	}
	apiErr.Errors = parseValidationErrors(fields["errors"])

	return apiErr
}

// parseValidationErrors accepts {"field": ["msg", ...]} or {"field": "msg"}.
func parseValidationErrors(v any) map[string][]string {
	raw, ok := v.(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	out := make(map[string][]string, len(raw))
	for field, val := range raw {
		switch msgs := val.(type) {
		case string:
			out[field] = []string{msgs}
		case []any:
			for _, m := range msgs {
				if s, ok := m.(string); ok {
					out[field] = append(out[field], s)
				}
			}
		}
	}
	return out
}

func genericMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}
