package auth

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost    int
	observe func(time.Duration)
}

// HasherOption customises a PasswordHasher.
type HasherOption func(*PasswordHasher)

// WithHashObserver reports how long each successful Hash call took.
func WithHashObserver(fn func(time.Duration)) HasherOption {
	return func(h *PasswordHasher) { h.observe = fn }
}

// NewPasswordHasher returns a hasher with the given cost. Costs outside
// bcrypt's accepted range fall back to DefaultCost.
func NewPasswordHasher(cost int, opts ...HasherOption) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	h := &PasswordHasher{cost: cost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns a self-salted digest of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	start := time.Now()
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if h.observe != nil {
		h.observe(time.Since(start))
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests
// simply do not match.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
