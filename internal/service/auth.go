// Package service provides the ledger business logic: account registration and
// login, session resolution, item management, list queries and statistics.
// Persistence is delegated to repository interfaces.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/kakeibo/internal/credential"
	"github.com/atinyakov/kakeibo/internal/models"
	"github.com/atinyakov/kakeibo/internal/repository"
)

// AuthRepository defines the user persistence operations
// required by the authentication service.
type AuthRepository interface {
	// CreateUser stores a new user. It returns repository.ErrDuplicate
	// when the account is already registered.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByAccount returns repository.ErrNotFound for unknown accounts.
	GetUserByAccount(ctx context.Context, account string) (*models.User, error)
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Verify(plaintext string, hash []byte) (bool, error)
}

// AuthService implements registration, login and logout.
type AuthService struct {
	repo     AuthRepository
	hasher   Hasher
	sessions *SessionManager
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo AuthRepository, hasher Hasher, sessions *SessionManager) *AuthService {
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		now:      time.Now,
	}
}

// NormalizeAccount trims surrounding whitespace and lower-cases the account
// identifier. Register and Login both apply it, so lookups are case-insensitive.
func NormalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// Register creates an account. It does not sign the new user in.
func (s *AuthService) Register(ctx context.Context, account, password string) (*models.User, error) {
	account = NormalizeAccount(account)
	if account == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, credential.ErrPasswordTooLong) {
		return nil, invalid("password is limited to %d bytes", credential.MaxPasswordLen)
	}
	if err != nil {
		return nil, unavailable("hash password", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Account:      account,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, unavailable("create user", err)
	}
	return u, nil
}

// Login verifies the credentials and issues a new session. Unknown accounts and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, account, password string) (*models.Session, error) {
	account = NormalizeAccount(account)
	if account == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetUserByAccount(ctx, account)
	if errors.Is(err, repository.ErrNotFound) {
		// Burn a comparable amount of time so response latency does not reveal
		// whether the account exists.
		s.verifyDummy(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, unavailable("get user", err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, unavailable("verify password", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.sessions.Issue(ctx, u.ID)
}

// Logout destroys the session. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

func (s *AuthService) verifyDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("kakeibo-dummy-password")
	})
	if s.dummyHash != nil {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}
