package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/yndnr/linkhub-go/internal/cli/connection"
	"github.com/yndnr/linkhub-go/internal/core/state"
	"github.com/yndnr/linkhub-go/internal/storage"
	"github.com/yndnr/linkhub-go/internal/telemetry/logger"
	"github.com/yndnr/linkhub-go/internal/telemetry/metric"
)

// backend is a fake LinkHub API. Handlers are keyed by "METHOD /path".
type backend struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
	auth     []string
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls[key]++
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		h, ok := b.handlers[key]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) handle(key string, h http.HandlerFunc) {
	b.mu.Lock()
	b.handlers[key] = h
	b.mu.Unlock()
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

func (b *backend) lastAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.auth) == 0 {
		return ""
	}
	return b.auth[len(b.auth)-1]
}

func jsonReply(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
}

type fixture struct {
	backend *backend
	server  *httptest.Server
	kv      storage.KV
	mirror  *TokenMirror
	state   *state.State
	metrics *metric.Registry
	auth    *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithKV(t, storage.NewMemoryKV())
}

func newFixtureWithKV(t *testing.T, kv storage.KV) *fixture {
	t.Helper()
	b, srv := newBackend(t)
	mirror := NewTokenMirror(kv, "")
	st := state.New(mirror)
	m := metric.NewRegistry(false)
	api := connection.NewHTTPClient(srv.URL, st)
	return &fixture{
		backend: b,
		server:  srv,
		kv:      kv,
		mirror:  mirror,
		state:   st,
		metrics: m,
		auth:    NewAuthService(api, st, WithMetrics(m), WithLogger(logger.Discard())),
	}
}

// stored returns the durable token, failing the test on storage errors.
func (f *fixture) stored(t *testing.T) string {
	t.Helper()
	token, err := f.mirror.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return token
}

// seed puts token in both the durable store and the state, as a reload would.
func (f *fixture) seed(t *testing.T, token string) {
	t.Helper()
	if _, err := f.auth.Restore(context.Background(), token); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
}

// failingKV fails every operation.
type failingKV struct{}

var errDisk = errors.New("disk full")

func (failingKV) Get(context.Context, string) (string, error) { return "", errDisk }
func (failingKV) Set(context.Context, string, string) error   { return errDisk }
func (failingKV) Remove(context.Context, string) error        { return errDisk }
func (failingKV) Close() error                                { return nil }

// removeFailingKV stores normally but cannot delete.
type removeFailingKV struct {
	storage.KV
}

func (removeFailingKV) Remove(context.Context, string) error { return errDisk }

// gatewayFunc is a Gateway built from closures.
type gatewayFunc struct {
	get  func(ctx context.Context, path string, out any) error
	post func(ctx context.Context, path string, body, out any) error
}

func (g gatewayFunc) Get(ctx context.Context, path string, out any) error {
	return g.get(ctx, path, out)
}

func (g gatewayFunc) Post(ctx context.Context, path string, body, out any) error {
	return g.post(ctx, path, body, out)
}
