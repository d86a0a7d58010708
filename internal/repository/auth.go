// Package repository provides SQL persistence for users, sessions and ledger items.
// Every query is written once in PostgreSQL syntax and rebound for the configured dialect.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/kakeibo/internal/db"
	"github.com/atinyakov/kakeibo/internal/models"
)

// AuthRepository stores user accounts.
type AuthRepository struct {
	// DB is the database handle for executing queries.
	DB      *sql.DB
	dialect db.Dialect
}

// NewAuthRepository creates an AuthRepository over conn using the given dialect.
func NewAuthRepository(conn *sql.DB, dialect db.Dialect) *AuthRepository {
	return &AuthRepository{DB: conn, dialect: dialect}
}

// CreateUser inserts u. The UNIQUE constraint on account decides races between
// concurrent registrations; the loser gets ErrDuplicate.
func (r *AuthRepository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(ctx, r.dialect.Rebind(
		`INSERT INTO users (id, account, password_hash, created_at) VALUES ($1, $2, $3, $4)`),
		u.ID, u.Account, u.PasswordHash, u.CreatedAt.UTC(),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByAccount returns the user registered under account, or ErrNotFound.
func (r *AuthRepository) GetUserByAccount(ctx context.Context, account string) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, account, password_hash, created_at FROM users WHERE account = $1`, account)
}

// GetUserByID returns the user with the given id, or ErrNotFound.
func (r *AuthRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, account, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (r *AuthRepository) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, r.dialect.Rebind(query), arg).
		Scan(&u.ID, &u.Account, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
