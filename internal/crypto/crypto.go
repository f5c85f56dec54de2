package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used for stored passwords.
const DefaultCost = 10

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = errors.New("password does not match")

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. A cost outside bcrypt's range falls back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of password
func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare returns ErrMismatch if password does not match hash
func (h *Hasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
