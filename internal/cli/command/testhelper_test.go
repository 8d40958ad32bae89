package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// mockServer is a fake LinkHub API. Handlers are keyed by "METHOD /path".
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	auth     map[string]string
}

// newMockServer creates a new mock server closed at the end of the test.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
		auth:     make(map[string]string),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		m.mu.Lock()
		m.calls[key]++
		m.auth[key] = r.Header.Get("Authorization")
		h, ok := m.handlers[key]
		m.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for "METHOD /path".
func (m *mockServer) handle(key string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[key] = handler
}

func (m *mockServer) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

func (m *mockServer) lastAuth(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth[key]
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error response.
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"message": message})
}

// sampleUser is the profile the mock server reports.
func sampleUser() map[string]any {
	return map[string]any{
		"id":       42,
		"name":     "Alice",
		"email":    "alice@example.com",
		"username": "alice",
	}
}

const sampleToken = "tok-1234567890abcdef"

// acceptLogin makes the server accept every login and profile request.
func (m *mockServer) acceptLogin() {
	m.handle("POST /login", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"token": sampleToken, "user": sampleUser()})
	})
	m.handle("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+sampleToken {
			errorResponse(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		jsonResponse(w, http.StatusOK, sampleUser())
	})
	m.handle("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// workspace runs CLI invocations that share one config file and token store.
type workspace struct {
	t      *testing.T
	server *mockServer
	dir    string
	stdin  string
}

func newWorkspace(t *testing.T, server *mockServer) *workspace {
	t.Helper()
	return &workspace{t: t, server: server, dir: t.TempDir()}
}

func (w *workspace) configPath() string {
	return filepath.Join(w.dir, "cli.yaml")
}

func (w *workspace) args(args ...string) []string {
	full := []string{
		"linkhub-cli",
		"--config", w.configPath(),
		"--state-dir", filepath.Join(w.dir, "state"),
	}
	if w.server != nil {
		full = append(full, "--server", w.server.URL)
	}
	return append(full, args...)
}

// run executes one CLI invocation and returns what it wrote to stdout.
func (w *workspace) run(args ...string) (string, error) {
	return w.runContext(context.Background(), &syncBuffer{}, args...)
}

func (w *workspace) runContext(ctx context.Context, out *syncBuffer, args ...string) (string, error) {
	w.t.Helper()
	app := App()
	app.Writer = out
	app.ErrWriter = &syncBuffer{}
	app.Reader = strings.NewReader(w.stdin)
	err := app.RunContext(ctx, w.args(args...))
	return out.String(), err
}

// decode unmarshals JSON command output.
func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("output is not a JSON object: %v\n%s", err, out)
	}
	return v
}
