// Package db opens the ledger database, bootstraps its schema and runs
// background maintenance against the session store.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect names a supported SQL backend. Its value doubles as the database/sql driver name.
type Dialect string

const (
	// Postgres is served by github.com/lib/pq.
	Postgres Dialect = "postgres"
	// SQLite is served by modernc.org/sqlite.
	SQLite Dialect = "sqlite"
)

// Rebind rewrites $N placeholders into the form understood by the dialect.
// Queries are written once in Postgres syntax.
func (d Dialect) Rebind(query string) string {
	if d == SQLite {
		return strings.ReplaceAll(query, "$", "?")
	}
	return query
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL UNIQUE,
		password_hash BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at)`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL CHECK (amount >= 0),
		type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
		event TEXT NOT NULL DEFAULT '',
		memo TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS items_user_created_idx ON items (user_id, created_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL UNIQUE,
		password_hash BLOB NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at)`,
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		amount INTEGER NOT NULL CHECK (amount >= 0),
		type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
		event TEXT NOT NULL DEFAULT '',
		memo TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS items_user_created_idx ON items (user_id, created_at)`,
}

// Init opens a connection for the named dialect and creates the schema.
func Init(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case Postgres:
		return InitPostgres(dsn)
	case SQLite:
		return InitSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}
}

// InitPostgres connects to PostgreSQL and creates the schema.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := createSchema(db, postgresSchema); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitSQLite opens (or creates) a SQLite database at path and creates the schema.
// Use ":memory:" for a throwaway database. The pool is limited to a single
// connection: SQLite serializes writers anyway and an in-memory database is
// private to the connection that created it.
func InitSQLite(path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "_time_format=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_time_format=sqlite"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := createSchema(db, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createSchema(db *sql.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY
// constraint rejecting an insert.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// primary result code only; extended codes disabled on the connection
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}

	return false
}
