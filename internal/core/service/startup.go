package service

import (
	"context"
	"sync"

	"github.com/yndnr/linkhub-go/internal/telemetry/logger"
)

// TokenLoader reads the durable token.
type TokenLoader interface {
	Load(ctx context.Context) (string, error)
}

// Synchronizer reconciles the durable token into the session state once per
// process.
type Synchronizer struct {
	auth   *AuthService
	tokens TokenLoader
	logger logger.Logger

	once    sync.Once
	startup *Startup
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(auth *AuthService, tokens TokenLoader, l logger.Logger) *Synchronizer {
	if l == nil {
		l = logger.Default()
	}
	return &Synchronizer{auth: auth, tokens: tokens, logger: l}
}

// Startup is the observable startup task.
type Startup struct {
	done     chan struct{}
	err      error
	restored bool
}

// Done is closed once the session has settled.
func (s *Startup) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session settles or ctx is done.
func (s *Startup) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the startup error once Done is closed.
func (s *Startup) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Restored reports whether a durable token was installed into the state.
func (s *Startup) Restored() bool {
	return s.restored
}

// Start runs the synchronization. The durable token is read and installed
// before Start returns, so guards evaluated afterwards see it; the profile
// is validated in the background. Later calls return the first Startup.
func (s *Synchronizer) Start(ctx context.Context) *Startup {
	s.once.Do(func() {
		s.startup = s.start(ctx)
	})
	return s.startup
}

func (s *Synchronizer) start(ctx context.Context) *Startup {
	st := &Startup{done: make(chan struct{})}

	token, err := s.tokens.Load(ctx)
	if err != nil {
		st.err = err
		close(st.done)
		return st
	}
	if token == "" {
		s.logger.Debug("no durable token")
		close(st.done)
		return st
	}

	restored, err := s.auth.Restore(ctx, token)
	if err != nil || !restored {
		st.err = err
		close(st.done)
		return st
	}
	st.restored = true

	go func() {
		defer close(st.done)
		// A 401 clears the session inside FetchMe before it returns.
		if _, err := s.auth.FetchMe(ctx); err != nil {
			st.err = err
			return
		}
		s.logger.Debug("durable session confirmed")
	}()
	return st
}
