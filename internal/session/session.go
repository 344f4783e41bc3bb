// Package session holds the signed-in identity of a client and the
// process-wide table of live sessions.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pliu/instamunicipal/internal/auth"
	"github.com/pliu/instamunicipal/internal/models"
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrExpired     = errors.New("session expired")
)

// Store is the session of one client. Zero identity means signed out.
type Store struct {
	provider auth.Provider

	mu        sync.RWMutex
	identity  *models.Identity
	token     string
	expiresAt time.Time
	loading   bool
	listeners []func(*models.Identity)
}

func NewStore(provider auth.Provider) *Store {
	return &Store{provider: provider}
}

func (s *Store) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt is the expiry of the session token. It is zero when the token
// carries none.
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Loading is true while the session is being restored.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// OnChange registers fn to run after every identity change.
func (s *Store) OnChange(fn func(*models.Identity)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) set(identity *models.Identity, token string) {
	s.mu.Lock()
	s.identity = identity
	s.token = token
	listeners := append([]func(*models.Identity){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(identity)
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Restore resumes a session from a previously issued token.
func (s *Store) Restore(ctx context.Context, token string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	identity, err := s.provider.User(ctx, token)
	if err != nil {
		s.set(nil, "")
		return err
	}
	s.mu.Lock()
	s.expiresAt = auth.TokenExpiry(token)
	s.mu.Unlock()
	s.set(identity, token)
	return nil
}

// Expired reports whether the session token has passed its expiry at now.
func (s *Store) Expired(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && now.After(exp)
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.expiresAt = sess.ExpiresAt
	s.mu.Unlock()
	s.set(sess.Identity, sess.AccessToken)
	return sess.Identity, nil
}

// SignUp registers the account. The session stays signed out until the
// address is confirmed and the user signs in.
func (s *Store) SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.Identity, error) {
	return s.provider.SignUp(ctx, email, password, profile)
}

func (s *Store) SignOut(ctx context.Context) error {
	token := s.Token()
	s.set(nil, "")
	if token == "" {
		return nil
	}
	return s.provider.SignOut(ctx, token)
}

func (s *Store) ResetPassword(ctx context.Context, email string) error {
	return s.provider.ResetPassword(ctx, email)
}

// UpdatePassword uses token when given (a recovery link), otherwise the session token.
func (s *Store) UpdatePassword(ctx context.Context, token, password string) error {
	if token == "" {
		token = s.Token()
	}
	if token == "" {
		return ErrNotSignedIn
	}
	return s.provider.UpdatePassword(ctx, token, password)
}
