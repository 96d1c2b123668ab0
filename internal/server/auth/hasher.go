package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt. It is safe for
// concurrent use.
type Hasher struct {
	cost      int
	dummyHash []byte
	logger    logging.Logger
}

// NewHasher validates cost and precomputes a hash of random bytes that
// login uses for unknown users, so both paths pay the same bcrypt price.
func NewHasher(cost int, logger logging.Logger) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword(secret, cost)
	common.WipeByteArray(secret)
	if err != nil {
		return nil, err
	}

	return &Hasher{cost: cost, dummyHash: dummy, logger: logger.With("module", "hasher")}, nil
}

// Hash returns the bcrypt encoding of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.NewValidationError("password", "must be at most 72 bytes")
		}
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is
// logged and treated as a mismatch.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		h.logger.Warn(ctx, "stored password hash is malformed", "error", err)
	}
	return false
}

// VerifyDummy burns one comparison against the precomputed hash and
// always reports false.
func (h *Hasher) VerifyDummy(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plaintext))
	return false
}
