package service

import (
	"errors"
	"fmt"
)

// Error classes returned by the services. Callers match them with errors.Is.
var (
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateAccount is returned when registering an account that already exists.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned when a request carries no live session.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrNotFound is returned for missing items and items owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrServiceUnavailable wraps storage and hashing backend failures.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Error codes understood by the presentation layer.
const (
	CodeInvalid = "invalid"
	CodeExists  = "exists"
	CodeServer  = "server"
)

// ErrorCode maps err onto the fixed vocabulary shown to users.
// Anything unclassified is reported as a server error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidCredentials):
		return CodeInvalid
	case errors.Is(err, ErrDuplicateAccount):
		return CodeExists
	default:
		return CodeServer
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
