package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/telemetry/logger"
)

func waitStartup(t *testing.T, s *Startup) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("startup did not settle")
	}
	return err
}

func TestSynchronizer_NoDurableToken(t *testing.T) {
	f := newFixture(t)
	sync := NewSynchronizer(f.auth, f.mirror, logger.Discard())

	s := sync.Start(context.Background())
	select {
	case <-s.Done():
	default:
		t.Fatal("startup without a token should settle immediately")
	}
	if s.Restored() || s.Err() != nil {
		t.Errorf("Restored() = %v, Err() = %v", s.Restored(), s.Err())
	}
	if f.backend.count("GET /me") != 0 {
		t.Error("no profile fetch expected")
	}
}

func TestSynchronizer_ValidToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.kv.Set(ctx, DefaultTokenKey, "T1")

	release := make(chan struct{})
	f.backend.handle("GET /me", func(w http.ResponseWriter, r *http.Request) {
		<-release
		jsonReply(http.StatusOK, map[string]any{"id": 1})(w, r)
	})

	s := NewSynchronizer(f.auth, f.mirror, logger.Discard()).Start(ctx)

	// The token is visible before validation completes; the profile is not.
	snap := f.state.Snapshot()
	if snap.Token != "T1" || snap.User != nil {
		t.Errorf("state before validation = (%q, %+v), want (T1, nil)", snap.Token, snap.User)
	}
	close(release)

	if err := waitStartup(t, s); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !s.Restored() {
		t.Error("Restored() = false")
	}
	if !f.state.Snapshot().Authenticated() {
		t.Error("state should be authenticated after startup")
	}
}

func TestSynchronizer_InvalidToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.kv.Set(ctx, DefaultTokenKey, "stale")
	f.backend.handle("GET /me", jsonReply(http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."}))

	s := NewSynchronizer(f.auth, f.mirror, logger.Discard()).Start(ctx)

	err := waitStartup(t, s)
	if !errors.Is(err, domain.ErrCredentialInvalidated) {
		t.Fatalf("Wait() error = %v, want ErrCredentialInvalidated", err)
	}
	snap := f.state.Snapshot()
	if snap.Token != "" || snap.User != nil {
		t.Errorf("state = (%q, %+v), want empty", snap.Token, snap.User)
	}
	if got := f.stored(t); got != "" {
		t.Errorf("stored token = %q, want empty", got)
	}
}

func TestSynchronizer_TransientFailureKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.kv.Set(ctx, DefaultTokenKey, "T1")
	f.backend.handle("GET /me", jsonReply(http.StatusBadGateway, map[string]any{"message": "upstream"}))

	s := NewSynchronizer(f.auth, f.mirror, logger.Discard()).Start(ctx)

	if err := waitStartup(t, s); err == nil {
		t.Fatal("Wait() should report the fetch failure")
	}
	snap := f.state.Snapshot()
	if snap.Token != "T1" || snap.User != nil {
		t.Errorf("state = (%q, %+v), want (T1, nil)", snap.Token, snap.User)
	}
}

func TestSynchronizer_StorageFailure(t *testing.T) {
	f := newFixture(t)
	s := NewSynchronizer(f.auth, NewTokenMirror(failingKV{}, ""), logger.Discard()).Start(context.Background())

	if err := waitStartup(t, s); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Wait() error = %v, want ErrStorage", err)
	}
	if f.state.Snapshot().HasToken() {
		t.Error("state should stay empty")
	}
}

func TestSynchronizer_RunsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.kv.Set(ctx, DefaultTokenKey, "T1")
	f.backend.handle("GET /me", jsonReply(http.StatusOK, map[string]any{"id": 1}))

	sync := NewSynchronizer(f.auth, f.mirror, logger.Discard())
	first := sync.Start(ctx)
	second := sync.Start(ctx)
	if first != second {
		t.Error("Start() should return the same task")
	}
	waitStartup(t, first)

	if n := f.backend.count("GET /me"); n != 1 {
		t.Errorf("profile fetches = %d, want 1", n)
	}
}

func TestStartup_WaitCancelled(t *testing.T) {
	s := &Startup{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
	if s.Err() != nil {
		t.Error("Err() should be nil before settling")
	}
}
