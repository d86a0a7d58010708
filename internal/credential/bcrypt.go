// Package credential hashes and verifies account passwords.
package credential

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLen is the longest password bcrypt accepts, in bytes.
const MaxPasswordLen = 72

// ErrPasswordTooLong is returned by Hash for passwords over MaxPasswordLen bytes.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// DefaultCost matches the work factor used for stored hashes unless configured otherwise.
const DefaultCost = 10

// BcryptHasher hashes passwords with bcrypt. It holds no state besides the cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, falling back to DefaultCost
// when cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a salted one-way hash of plaintext.
func (h *BcryptHasher) Hash(plaintext string) ([]byte, error) {
	if len(plaintext) > MaxPasswordLen {
		return nil, ErrPasswordTooLong
	}
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Verify reports whether plaintext matches hash. A mismatch is not an error;
// malformed hashes are. A password too long to have been hashed never matches.
func (h *BcryptHasher) Verify(plaintext string, hash []byte) (bool, error) {
	if len(plaintext) > MaxPasswordLen {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
