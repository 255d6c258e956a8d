// Package crypto holds the password hasher.
package crypto

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/authgate/internal/api/metrics"
)

// DefaultCost matches the work factor the service has always used.
const DefaultCost = 10

// BcryptHasher implements ports.PasswordHasher with bcrypt. The salt is
// generated per call and embedded in the hash together with the cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, clamped to bcrypt's valid range.
// A zero cost selects DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash of password. bcrypt rejects passwords
// longer than 72 bytes.
func (h *BcryptHasher) Hash(password string) (string, error) {
	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Comparison is constant time;
// malformed hashes and any other bcrypt error count as a mismatch.
func (h *BcryptHasher) Verify(password, hash string) bool {
	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	return err == nil
}
