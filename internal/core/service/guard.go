package service

import (
	"context"
	"sync"

	"github.com/yndnr/linkhub-go/internal/core/state"
	"github.com/yndnr/linkhub-go/internal/telemetry/metric"
)

// DefaultLoginPath is where unauthenticated navigation is sent.
const DefaultLoginPath = "/login"

// Decision is the outcome of a navigation request.
type Decision struct {
	Path     string
	Allow    bool
	Redirect string
}

func (d Decision) String() string {
	if d.Allow {
		return "allow"
	}
	return "redirect"
}

// Guard decides whether a route may be entered.
//
// A private path requires a confirmed profile, not just a token: while a
// restored token is being validated, private paths redirect to login.
type Guard struct {
	state   *state.State
	metrics *metric.Registry

	mu        sync.RWMutex
	private   map[string]struct{}
	loginPath string
}

// NewGuard creates a guard over st. Paths match exactly.
func NewGuard(st *state.State, privatePaths []string, loginPath string, m *metric.Registry) *Guard {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	g := &Guard{state: st, metrics: m, loginPath: loginPath}
	g.SetPrivatePaths(privatePaths)
	return g
}

// SetPrivatePaths replaces the private path set.
func (g *Guard) SetPrivatePaths(paths []string) {
	private := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		private[p] = struct{}{}
	}
	g.mu.Lock()
	g.private = private
	g.mu.Unlock()
}

// IsPrivate reports whether path requires authentication.
func (g *Guard) IsPrivate(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.private[path]
	return ok
}

// Evaluate decides on path using the current state without blocking.
func (g *Guard) Evaluate(path string) Decision {
	d := Decision{Path: path, Allow: true}
	if g.IsPrivate(path) && !g.state.Snapshot().Authenticated() {
		g.mu.RLock()
		d = Decision{Path: path, Redirect: g.loginPath}
		g.mu.RUnlock()
	}
	g.metrics.ObserveGuard(d.String())
	return d
}

// EvaluateSettled waits for startup to settle, then evaluates path.
// A failed startup still yields a decision: the state it left behind is
// what the guard judges.
func (g *Guard) EvaluateSettled(ctx context.Context, startup *Startup, path string) (Decision, error) {
	if startup != nil {
		select {
		case <-startup.Done():
		case <-ctx.Done():
			return Decision{}, ctx.Err()
		}
	}
	return g.Evaluate(path), nil
}
