package revocations

import (
	"context"
	"time"
)

// Repository is the token deny-list keyed by JWT id.
type Repository interface {
	// Revoke is idempotent; it reports whether this call inserted the row,
	// which makes it usable as a single-use guard for refresh rotation.
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpired drops rows whose token expired before the given instant.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
