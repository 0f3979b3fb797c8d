// Package auth owns the process-wide session: the current user, the
// authenticated flag and the startup restore state. Callers never see
// errors from login or signup; failures come back as a Result value.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/smartroots/agribot/internal/backend"
	"github.com/smartroots/agribot/internal/core"
	"go.uber.org/zap"
)

// MinPasswordLength is enforced locally before any network call, matching
// the backend's own account policy.
const MinPasswordLength = 6

// Result reports the outcome of a login or signup attempt.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func failure(msg string) Result { return Result{Error: msg} }

// Store owns the Session for the lifetime of the process.
type Store struct {
	client *backend.Client
	tokens *TokenFile
	logger *zap.Logger

	mu      sync.RWMutex
	user    *core.User
	authed  bool
	loading bool
}

// NewStore creates a session store. The session starts in the loading
// state until Restore has run. tokens may be nil to disable persistence.
func NewStore(client *backend.Client, tokens *TokenFile, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:  client,
		tokens:  tokens,
		logger:  logger,
		loading: true,
	}
}

// Restore attempts the silent session restore from the stored token. It
// always resolves the loading flag, whether or not a session came back.
func (s *Store) Restore(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if s.tokens == nil {
		return
	}

	token, err := s.tokens.Load()
	if err != nil {
		s.logger.Warn("reading stored token failed", zap.Error(err))
		return
	}
	if token == "" {
		return
	}

	s.client.SetToken(token)
	user, err := s.client.Me(ctx)
	if err != nil {
		// Stale or expired token; drop it so the next start skips the check
		s.logger.Info("stored session no longer valid", zap.Error(err))
		s.client.ClearToken()
		if err := s.tokens.Clear(); err != nil {
			s.logger.Warn("clearing stale token failed", zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	s.user = user
	s.authed = true
	s.mu.Unlock()

	s.logger.Info("session restored", zap.String("email", user.Email))
}

// Login exchanges credentials for a session. Failures never propagate as
// errors; they are reported in the Result.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	if email == "" || password == "" {
		return failure("Email and password are required")
	}

	grant, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed", zap.String("email", email), zap.Error(err))
		return failure(userMessage(err, "Login failed. Please try again."))
	}

	s.establish(grant)
	return Result{Success: true}
}

// Signup registers a new account and signs it in. Validation failures are
// rejected locally before any network call.
func (s *Store) Signup(ctx context.Context, name, email, password string) Result {
	if msg := ValidateSignup(name, email, password); msg != "" {
		return failure(msg)
	}

	grant, err := s.client.Signup(ctx, name, email, password)
	if err != nil {
		s.logger.Warn("signup failed", zap.String("email", email), zap.Error(err))
		return failure(userMessage(err, "Signup failed. Please try again."))
	}

	s.establish(grant)
	return Result{Success: true}
}

// Logout clears the session. It is synchronous and idempotent: calling it
// twice leaves the same cleared state as calling it once.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.authed = false
	s.mu.Unlock()

	s.client.ClearToken()
	if s.tokens != nil {
		if err := s.tokens.Clear(); err != nil {
			s.logger.Warn("clearing token failed", zap.Error(err))
		}
	}
}

// Session returns a copy of the current session state.
func (s *Store) Session() core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := core.Session{
		IsAuthenticated: s.authed,
		Loading:         s.loading,
	}
	if s.user != nil {
		u := *s.user
		sess.User = &u
	}
	return sess
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authed
}

// Loading reports whether the startup restore check is still in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) establish(grant *backend.TokenGrant) {
	s.client.SetToken(grant.AccessToken)
	if s.tokens != nil {
		if err := s.tokens.Save(grant.AccessToken); err != nil {
			s.logger.Warn("persisting token failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	u := grant.User
	s.user = &u
	s.authed = true
	s.mu.Unlock()
}

// ValidateSignup checks signup input locally. It returns a human-readable
// message for the first failed check, or "" when the input is acceptable.
func ValidateSignup(name, email, password string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required"
	}
	if !strings.Contains(email, "@") {
		return "A valid email address is required"
	}
	if len(password) < MinPasswordLength {
		return "Password must be at least 6 characters long"
	}
	return ""
}

// PasswordsMatch checks a password confirmation pair and returns a message
// when they differ.
func PasswordsMatch(password, confirm string) string {
	if password != confirm {
		return "Passwords do not match"
	}
	return ""
}

func userMessage(err error, fallback string) string {
	// Only backend-authored details are fit for display; transport errors
	// fall back to the generic message.
	if errors.Is(err, core.ErrUnauthorized) || errors.Is(err, core.ErrBackendStatus) {
		if detail := backend.ErrorDetail(err); detail != "" {
			return detail
		}
	}
	return fallback
}
