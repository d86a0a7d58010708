package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/atinyakov/kakeibo/internal/models"
	"github.com/atinyakov/kakeibo/internal/repository"
)

// SessionRepository defines the session storage required by the SessionManager.
type SessionRepository interface {
	CreateSession(ctx context.Context, s *models.Session) error
	// GetSession returns repository.ErrNotFound for unknown tokens.
	GetSession(ctx context.Context, token string) (*models.Session, error)
	RenewSession(ctx context.Context, token string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

// SessionManager maps opaque tokens to signed-in user ids.
// Sessions expire after ttl without activity; a session used after more than
// half of its lifetime has elapsed is extended by another ttl.
type SessionManager struct {
	repo     SessionRepository
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// NewSessionManager constructs a SessionManager storing sessions in repo.
func NewSessionManager(repo SessionRepository, ttl time.Duration) *SessionManager {
	return &SessionManager{
		repo:     repo,
		ttl:      ttl,
		now:      time.Now,
		newToken: randomToken,
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a session for userID.
func (m *SessionManager) Issue(ctx context.Context, userID string) (*models.Session, error) {
	token, err := m.newToken()
	if err != nil {
		return nil, unavailable("generate session token", err)
	}

	now := m.now().UTC()
	s := &models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.repo.CreateSession(ctx, s); err != nil {
		return nil, unavailable("create session", err)
	}
	return s, nil
}

// Resolve returns the user bound to token, or "" when the token is empty,
// unknown or expired. Only storage failures produce an error.
func (m *SessionManager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}

	s, err := m.repo.GetSession(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", unavailable("get session", err)
	}

	now := m.now().UTC()
	if !s.ExpiresAt.After(now) {
		if err := m.repo.DeleteSession(ctx, token); err != nil {
			return "", unavailable("delete expired session", err)
		}
		return "", nil
	}

	if s.ExpiresAt.Sub(now) < m.ttl/2 {
		if err := m.repo.RenewSession(ctx, token, now.Add(m.ttl)); err != nil {
			return "", unavailable("renew session", err)
		}
	}

	return s.UserID, nil
}

// RequireAuthenticated is Resolve for callers that need a signed-in user.
func (m *SessionManager) RequireAuthenticated(ctx context.Context, token string) (string, error) {
	userID, err := m.Resolve(ctx, token)
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// Destroy deletes the session. Unknown and empty tokens are ignored.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.DeleteSession(ctx, token); err != nil {
		return unavailable("delete session", err)
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
