package session

import (
	"context"
	"errors"
	"sync"

	"github.com/wolfman30/carely-portal/pkg/logging"
)

// Manager is the single owner of the active session. Every component that
// needs the token or role asks the manager instead of reading the store.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	current *Session
	logger  *logging.Logger
}

// NewManager restores any persisted session from store.
func NewManager(ctx context.Context, store Store, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	m := &Manager{store: store, logger: logger}

	s, err := store.Load(ctx)
	switch {
	case err == nil && s.Valid():
		m.current = &s
		logger.Info("session restored", "role", s.User.Role, "user_id", s.User.ID)
	case err == nil, errors.Is(err, ErrNoSession):
	default:
		logger.Warn("session restore failed", "error", err)
	}
	return m
}

// Login persists s and makes it current.
func (m *Manager) Login(ctx context.Context, s Session) error {
	if !s.Valid() {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.current = &s
	m.logger.Info("session started", "role", s.User.Role, "user_id", s.User.ID)
	return nil
}

// UpdateUser replaces the stored profile, keeping the token.
func (m *Manager) UpdateUser(ctx context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoSession
	}
	if u.Role == "" {
		u.Role = m.current.User.Role
	}
	next := Session{Token: m.current.Token, User: u}
	if err := m.store.Save(ctx, next); err != nil {
		return err
	}
	m.current = &next
	return nil
}

// Logout clears token and user together. The in-memory session is dropped
// even when the store fails so the portal never keeps acting as the user.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("session clear failed", "error", err)
		return err
	}
	return nil
}

// Current returns a copy of the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	s := *m.current
	s.User.LinkedPatients = append([]LinkedPatient(nil), m.current.User.LinkedPatients...)
	return s, true
}

// Token returns the bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// Role returns the active role, or "" when logged out.
func (m *Manager) Role() Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.User.Role
}

// HasRole reports whether the active role is one of allowed.
func (m *Manager) HasRole(allowed ...Role) bool {
	role := m.Role()
	if role == "" {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
