package auth

import (
	"log/slog"
	"sync"

	"github.com/shelfmark/shelfmark/internal/errors"
)

// SessionEvents receives auth transitions; the sync engine's event bus
// implements it.
type SessionEvents interface {
	PublishAuthChange(userID string)
}

// Manager holds the device's current session: the verified access token and
// its claims. It implements the remote client's token provider, so signing
// in is all it takes for sync traffic to start authenticating.
type Manager struct {
	verifier *Verifier
	events   SessionEvents
	logger   *slog.Logger

	mu     sync.RWMutex
	token  string
	claims *SessionClaims
}

// NewManager creates a session manager.
func NewManager(verifier *Verifier, events SessionEvents, logger *slog.Logger) *Manager {
	return &Manager{
		verifier: verifier,
		events:   events,
		logger:   logger,
	}
}

// SignIn verifies the token, stores the session, and announces the new
// identity.
func (m *Manager) SignIn(token string) (*SessionClaims, error) {
	claims, err := m.verifier.Verify(token)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnauthorized, "invalid session token")
	}

	m.mu.Lock()
	m.token = token
	m.claims = claims
	m.mu.Unlock()

	m.logger.Info("signed in", "user_id", claims.UserID, "premium", claims.Premium)
	m.events.PublishAuthChange(claims.UserID)

	return claims, nil
}

// SignOut clears the session and announces it. Local records are untouched.
func (m *Manager) SignOut() {
	m.mu.Lock()
	hadSession := m.claims != nil
	m.token = ""
	m.claims = nil
	m.mu.Unlock()

	if hadSession {
		m.logger.Info("signed out")
	}
	m.events.PublishAuthChange("")
}

// AccessToken returns the current token, or "" when signed out. Implements
// the remote client's token provider.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Claims returns the current session claims, or nil when signed out.
func (m *Manager) Claims() *SessionClaims {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claims
}

// UserID returns the signed-in user, or "".
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.claims == nil {
		return ""
	}
	return m.claims.UserID
}

// Premium reports whether the signed-in account has unlimited sync capacity.
func (m *Manager) Premium() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claims != nil && m.claims.Premium
}
