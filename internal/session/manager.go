package session

import (
	"context"
	"sync"
	"time"

	"github.com/pliu/instamunicipal/internal/auth"
	"github.com/pliu/instamunicipal/internal/models"
)

// Manager maps access tokens to live session stores. One Manager is created
// at startup and lives for the whole process.
type Manager struct {
	provider auth.Provider

	mu       sync.Mutex
	sessions map[string]*Store
	onEnd    []func(*models.Identity)
	now      func() time.Time
}

func NewManager(provider auth.Provider) *Manager {
	return &Manager{provider: provider, sessions: make(map[string]*Store), now: time.Now}
}

func (m *Manager) Provider() auth.Provider {
	return m.provider
}

// OnSignOut registers fn to run when the last session of an identity ends,
// by sign-out or expiry.
func (m *Manager) OnSignOut(fn func(*models.Identity)) {
	m.mu.Lock()
	m.onEnd = append(m.onEnd, fn)
	m.mu.Unlock()
}

// New returns a fresh signed-out store. It is tracked once it has a token.
func (m *Manager) New() *Store {
	return NewStore(m.provider)
}

// Track registers a signed-in store under its token.
func (m *Manager) Track(s *Store) {
	token := s.Token()
	if token == "" {
		return
	}
	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()
}

// Lookup returns the store for token, restoring it from the provider when
// the process has not seen the token yet or the cached session has expired.
func (m *Manager) Lookup(ctx context.Context, token string) (*Store, error) {
	if token == "" {
		return nil, ErrNotSignedIn
	}
	m.mu.Lock()
	s, ok := m.sessions[token]
	m.mu.Unlock()
	if ok && s.Identity() != nil {
		if !s.Expired(m.now()) {
			return s, nil
		}
		m.forget(token, s.Identity())
	}

	s = m.New()
	if err := s.Restore(ctx, token); err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		return nil, ErrExpired
	}
	m.Track(s)
	return s, nil
}

// End signs the store out and forgets it.
func (m *Manager) End(ctx context.Context, s *Store) error {
	identity := s.Identity()
	token := s.Token()
	err := s.SignOut(ctx)
	m.forget(token, identity)
	return err
}

// forget drops token and runs the sign-out hooks when no other session of
// identity is left.
func (m *Manager) forget(token string, identity *models.Identity) {
	m.mu.Lock()
	delete(m.sessions, token)
	last := identity != nil
	if last {
		for _, other := range m.sessions {
			if id := other.Identity(); id != nil && id.ID == identity.ID {
				last = false
				break
			}
		}
	}
	hooks := append([]func(*models.Identity){}, m.onEnd...)
	m.mu.Unlock()

	if last {
		for _, fn := range hooks {
			fn(identity)
		}
	}
}
