package service

import (
	"context"
	"errors"

	"github.com/yndnr/linkhub-go/internal/cli/connection"
	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/core/state"
	"github.com/yndnr/linkhub-go/internal/telemetry/logger"
	"github.com/yndnr/linkhub-go/internal/telemetry/metric"
)

// Backend endpoints, relative to the API base URL.
const (
	PathLogin    = "/login"
	PathRegister = "/register"
	PathMe       = "/me"
	PathLogout   = "/logout"
)

// Gateway is the subset of the API client the auth service needs.
type Gateway interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// AuthService orchestrates authentication against the backend and owns
// every write to the session state.
type AuthService struct {
	api     Gateway
	state   *state.State
	metrics *metric.Registry
	logger  logger.Logger
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithMetrics records operation outcomes in m.
func WithMetrics(m *metric.Registry) AuthOption {
	return func(s *AuthService) {
		s.metrics = m
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) AuthOption {
	return func(s *AuthService) {
		s.logger = l
	}
}

// NewAuthService creates an AuthService over st.
func NewAuthService(api Gateway, st *state.State, opts ...AuthOption) *AuthService {
	s := &AuthService{
		api:    api,
		state:  st,
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the session state the service writes to.
func (s *AuthService) State() *state.State {
	return s.state
}

// Login authenticates with email and password. On success the token and
// profile are installed together; on failure the state is untouched.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.Profile, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	user, err := s.authenticate(ctx, PathLogin, creds)
	s.observe(ctx, "login", err)
	return user, err
}

// Register creates an account and signs in with it.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*domain.Profile, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	user, err := s.authenticate(ctx, PathRegister, reg)
	s.observe(ctx, "register", err)
	return user, err
}

func (s *AuthService) authenticate(ctx context.Context, path string, body any) (*domain.Profile, error) {
	var res domain.AuthResult
	if err := s.api.Post(ctx, path, body, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, domain.ErrTransport.WithDetails("response carries no token")
	}
	if err := s.state.SetToken(ctx, res.Token, res.User); err != nil {
		return nil, err
	}
	return res.User, nil
}

// FetchMe loads the profile for the current token.
//
// A 401 clears the token, the profile and the durable mirror and returns
// ErrCredentialInvalidated wrapping the API error. Other failures leave the
// state as it was. A result for a token that was replaced while the request
// was in flight is returned but not applied.
func (s *AuthService) FetchMe(ctx context.Context) (*domain.Profile, error) {
	snap := s.state.Snapshot()
	if !snap.HasToken() {
		return nil, domain.ErrNotAuthenticated
	}

	var user *domain.Profile
	err := s.api.Get(ctx, PathMe, &user)
	if err == nil && user == nil {
		err = domain.ErrTransport.WithDetails("empty profile response")
	}
	if err != nil {
		if connection.IsUnauthorized(err) {
			err = s.selfHeal(ctx, snap.Epoch, err)
		}
		s.observe(ctx, "me", err)
		return nil, err
	}

	if !s.state.SetUser(snap.Epoch, user) {
		s.log(ctx).Debug("profile discarded, session changed during fetch")
	}
	s.observe(ctx, "me", nil)
	return user, nil
}

// selfHeal clears the session whose token the server rejected.
func (s *AuthService) selfHeal(ctx context.Context, epoch uint64, cause error) error {
	// The clear must land even when the caller's context is already done.
	cleared, err := s.state.ClearIf(context.WithoutCancel(ctx), epoch)
	if cleared {
		s.metrics.ObserveSelfHeal()
		s.log(ctx).Warn("session cleared", "reason", "credential_invalidated")
	}
	if err != nil {
		s.log(ctx).Warn("stored token not removed", "error", err)
		cause = errors.Join(cause, err)
	}
	return domain.ErrCredentialInvalidated.WithCause(cause)
}

// Logout tells the backend best-effort, then clears the session locally.
// Backend failures are ignored; calling it again is harmless. Memory is
// cleared even when the durable store cannot remove the token.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.state.Token() != "" {
		if err := s.api.Post(ctx, PathLogout, nil, nil); err != nil {
			s.log(ctx).Debug("backend logout failed", "error", err)
		}
	}
	err := s.state.SetToken(context.WithoutCancel(ctx), "", nil)
	s.observe(ctx, "logout", err)
	return err
}

// Restore installs a durable token at startup when no profile is loaded.
// It reports whether the token was installed.
func (s *AuthService) Restore(ctx context.Context, token string) (bool, error) {
	if token == "" || s.state.User() != nil {
		return false, nil
	}
	if err := s.state.SetToken(ctx, token, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) observe(ctx context.Context, op string, err error) {
	s.metrics.ObserveAuth(op, err)
	if err != nil {
		s.log(ctx).Warn("auth operation failed", "op", op, "error", err)
		return
	}
	s.log(ctx).Info("auth operation succeeded", "op", op)
}

func (s *AuthService) log(ctx context.Context) logger.Logger {
	return s.logger.WithContext(ctx)
}
