// Package connection provides the authenticated HTTP client for linkhub-cli.
package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/telemetry/logger"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// TokenSource yields the bearer token to attach, empty for none.
// It is consulted on every request so the header always reflects the
// current session.
type TokenSource interface {
	Token() string
}

// HTTPClient provides HTTP communication with the LinkHub API.
// It performs exactly one attempt per call: no retries, no token refresh.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	tokens    TokenSource
	userAgent string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		h.client = c
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// current *http.Client so a client passed to WithHTTPClient is left as is.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) {
		c := *h.client
		c.Timeout = d
		h.client = &c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) {
		h.userAgent = ua
	}
}

// NewHTTPClient creates a new HTTP client. tokens may be nil for
// unauthenticated use.
func NewHTTPClient(server string, tokens TokenSource, opts ...Option) *HTTPClient {
	// Ensure baseURL has http:// prefix
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	h := &HTTPClient{
		baseURL:   baseURL,
		tokens:    tokens,
		userAgent: "linkhub-cli/1.0",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// RequestOptions describes one API call.
type RequestOptions struct {
	// Method defaults to GET.
	Method string

	// Body is nil, a *Form, or any value encoded as JSON.
	Body any

	// Header holds caller headers. Accept may be overridden here;
	// Content-Type and Authorization are always computed by the client.
	Header http.Header
}

// Get performs a GET request and decodes the JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	return c.Request(ctx, path, RequestOptions{Method: http.MethodGet}, out)
}

// Post performs a POST request and decodes the JSON response into out.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, path, RequestOptions{Method: http.MethodPost, Body: body}, out)
}

// Request performs one API call.
//
// A non-2xx status yields an *APIError. A request that could not be
// completed (dial, TLS, timeout, cancelled context, undecodable success
// body) yields domain.ErrTransport wrapping the cause.
func (c *HTTPClient) Request(ctx context.Context, path string, opts RequestOptions, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	form, isForm := opts.Body.(*Form)
	if isForm && form == nil {
		// A nil form is sent like a nil body.
		isForm = false
		opts.Body = nil
	}

	var bodyReader io.Reader
	switch {
	case isForm:
		bodyReader = form.Body
	case opts.Body != nil:
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = strings.ToLower(ulid.Make().String())
	}
	c.buildHeaders(req, opts.Header, form, isForm)
	req.Header.Set("X-Request-ID", requestID)

	log := logger.FromContext(logger.WithRequestID(ctx, requestID))
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn("api request failed", "method", method, "path", path, "error", err)
		return domain.ErrTransport.WithCause(err)
	}
	defer resp.Body.Close()

	log.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	return ParseResponse(resp, out)
}

// buildHeaders applies the header policy:
//   - Accept: application/json unless the caller set one
//   - caller headers
//   - Content-Type: application/json, except for forms which carry their own
//   - Authorization: Bearer <token> iff a token is present right now
func (c *HTTPClient) buildHeaders(req *http.Request, extra http.Header, form *Form, isForm bool) {
	req.Header.Set("Accept", "application/json")
	for k, vs := range extra {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	req.Header.Del("Content-Type")
	if !isForm {
		req.Header.Set("Content-Type", "application/json")
	} else if form.ContentType != "" {
		req.Header.Set("Content-Type", form.ContentType)
	}

	req.Header.Del("Authorization")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// ParseResponse parses a JSON response body into the target.
// It closes the body.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, body)
	}

	if target == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ErrTransport.WithDetails("read response").WithCause(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return domain.ErrTransport.WithDetails("parse response").WithCause(err)
	}
	return nil
}

// IsUnauthorized reports whether err carries a 401 API error.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}
