// Package password hashes and verifies local account passwords with bcrypt.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes is the longest input bcrypt accepts.
const MaxBytes = 72

var (
	// ErrCostNotConfigured is returned by Hash when no cost factor was supplied.
	ErrCostNotConfigured = errors.New("password hash cost is not configured")

	// ErrInvalidCost is returned by Hash when the cost is outside bcrypt's range.
	ErrInvalidCost = errors.New("password hash cost out of range")

	// ErrPasswordTooLong is returned by Hash for inputs over MaxBytes.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Hasher produces self-describing bcrypt digests (salt and cost embedded).
type Hasher struct {
	cost int

	decoyOnce sync.Once
	decoy     string
}

// NewHasher creates a Hasher. A zero cost leaves hashing unconfigured;
// verification still works since digests carry their own cost.
func NewHasher(cost int) *Hasher {
	return &Hasher{cost: cost}
}

// Configured reports whether Hash can be used.
func (h *Hasher) Configured() bool {
	return h.cost != 0
}

// Hash returns a salted digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if h.cost == 0 {
		return "", ErrCostNotConfigured
	}
	if h.cost < bcrypt.MinCost || h.cost > bcrypt.MaxCost {
		return "", fmt.Errorf("%w: %d", ErrInvalidCost, h.cost)
	}
	if len(plaintext) > MaxBytes {
		return "", ErrPasswordTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// Decoy returns a digest of a random secret at the configured cost, or at
// bcrypt.DefaultCost when hashing is unconfigured. Verifying against it takes
// as long as a real check and never matches. The digest is built once.
func (h *Hasher) Decoy() string {
	h.decoyOnce.Do(func() {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return
		}

		cost := h.cost
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = bcrypt.DefaultCost
		}
		digest, err := bcrypt.GenerateFromPassword(secret, cost)
		if err != nil {
			return
		}
		h.decoy = string(digest)
	})
	return h.decoy
}
