package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/kakeibo/internal/db"
	"github.com/atinyakov/kakeibo/internal/models"
)

// SessionRepository keeps sessions in the sessions table.
type SessionRepository struct {
	DB      *sql.DB
	dialect db.Dialect
}

// NewSessionRepository creates a SessionRepository over conn.
func NewSessionRepository(conn *sql.DB, dialect db.Dialect) *SessionRepository {
	return &SessionRepository{DB: conn, dialect: dialect}
}

// CreateSession stores s.
func (r *SessionRepository) CreateSession(ctx context.Context, s *models.Session) error {
	_, err := r.DB.ExecContext(ctx, r.dialect.Rebind(
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`),
		s.Token, s.UserID, s.CreatedAt.UTC(), s.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session for token regardless of expiry, or ErrNotFound.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	err := r.DB.QueryRowContext(ctx, r.dialect.Rebind(
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = $1`), token).
		Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return &s, nil
}

// RenewSession moves the expiry of token to expiresAt.
func (r *SessionRepository) RenewSession(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, r.dialect.Rebind(
		`UPDATE sessions SET expires_at = $1 WHERE token = $2`), expiresAt.UTC(), token)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return nil
}

// DeleteSession removes token. Deleting an unknown token is not an error.
func (r *SessionRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM sessions WHERE token = $1`), token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.dialect.Rebind(
		`DELETE FROM sessions WHERE expires_at <= $1`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}
