// Package state holds the in-memory session state shared by the auth
// service, the startup synchronizer and the navigation guard.
//
// State is the tuple (token, user). Legal observations are:
//
//	("", nil)     unauthenticated
//	(token, nil)  token present, profile not confirmed yet
//	(token, user) authenticated
//
// (“”, user) is never observable: clearing the token clears the user under
// the same lock and SetUser refuses to attach a profile without a token.
package state

import (
	"context"
	"sync"

	"github.com/yndnr/linkhub-go/internal/core/domain"
)

// Mirror receives every token write so it can be persisted. It is called
// with the state lock held; the write is part of the same logical step as
// the in-memory update.
type Mirror interface {
	MirrorToken(ctx context.Context, token string) error
}

// Snapshot is a consistent read of the state.
type Snapshot struct {
	Token string
	User  *domain.Profile

	// Epoch increases on every token change. Asynchronous work captures it
	// up front and applies its result only if the epoch is unchanged.
	Epoch uint64
}

// Authenticated reports whether a confirmed profile is present.
func (s Snapshot) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// HasToken reports whether a token is present.
func (s Snapshot) HasToken() bool {
	return s.Token != ""
}

// Listener is notified after every change with the resulting snapshot.
type Listener func(Snapshot)

// State is the single owned session state object.
type State struct {
	mu     sync.RWMutex
	token  string
	user   *domain.Profile
	epoch  uint64
	mirror Mirror

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New creates an empty state. mirror may be nil for purely in-memory use.
func New(mirror Mirror) *State {
	return &State{
		mirror:    mirror,
		listeners: make(map[int]Listener),
	}
}

// Snapshot returns the current (token, user, epoch) read under one lock.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Token: s.token, User: s.user, Epoch: s.epoch}
}

// Token returns the current token, empty if none.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current profile, nil if none.
func (s *State) User() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetToken is the only path that writes the token. A non-empty token is
// mirrored first and reaches memory only if the mirror accepted it. An
// empty token always clears memory; a mirror failure is still returned so
// the caller can report it. Any token change drops the profile: a new
// token has not been confirmed yet and an empty token cannot carry one.
// user is attached in the same step when non-nil and token is non-empty.
func (s *State) SetToken(ctx context.Context, token string, user *domain.Profile) error {
	s.mu.Lock()
	var mirrorErr error
	if s.mirror != nil {
		mirrorErr = s.mirror.MirrorToken(ctx, token)
		if mirrorErr != nil && token != "" {
			s.mu.Unlock()
			return mirrorErr
		}
	}

	if token != s.token {
		s.epoch++
	}
	s.token = token
	if token == "" {
		s.user = nil
	} else {
		s.user = user
	}
	snap := Snapshot{Token: s.token, User: s.user, Epoch: s.epoch}
	s.mu.Unlock()

	s.notify(snap)
	return mirrorErr
}

// SetUser attaches a profile when the epoch still matches and a token is
// present. It reports whether the profile was applied.
func (s *State) SetUser(epoch uint64, user *domain.Profile) bool {
	s.mu.Lock()
	if s.epoch != epoch || s.token == "" {
		s.mu.Unlock()
		return false
	}
	s.user = user
	snap := Snapshot{Token: s.token, User: s.user, Epoch: s.epoch}
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// ClearIf clears token, user and the mirror when the epoch still matches.
// It reports whether the state was cleared. Memory is cleared even when
// the mirror fails; the mirror error is returned alongside.
func (s *State) ClearIf(ctx context.Context, epoch uint64) (bool, error) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false, nil
	}
	var mirrorErr error
	if s.mirror != nil {
		mirrorErr = s.mirror.MirrorToken(ctx, "")
	}
	if s.token != "" {
		s.epoch++
	}
	s.token = ""
	s.user = nil
	snap := Snapshot{Epoch: s.epoch}
	s.mu.Unlock()

	s.notify(snap)
	return true, mirrorErr
}

// Subscribe registers l and returns a function that removes it.
// Listeners run on the goroutine that made the change, after the lock is
// released, so they may read the state.
func (s *State) Subscribe(l Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *State) notify(snap Snapshot) {
	s.lmu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.lmu.Unlock()

	for _, l := range ls {
		l(snap)
	}
}
