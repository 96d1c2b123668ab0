package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/repomanager"
)

// RevocationChecker answers deny-list lookups for the token issuer.
type RevocationChecker struct {
	store
}

func NewRevocationChecker(db *sql.DB, m repomanager.RepositoryManager, timeout time.Duration, logger logging.Logger) *RevocationChecker {
	return &RevocationChecker{store: newStore(db, m, timeout, logger.With("module", "revocations"))}
}

func (c *RevocationChecker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := c.read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		revoked, err = c.repomanager.Revocations(db).IsRevoked(ctx, jti)
		return err
	})
	return revoked, err
}

// RevocationSweeper periodically drops deny-list rows for tokens that have
// expired anyway.
type RevocationSweeper struct {
	store
	interval time.Duration
}

func NewRevocationSweeper(db *sql.DB, m repomanager.RepositoryManager, timeout, interval time.Duration, logger logging.Logger) *RevocationSweeper {
	return &RevocationSweeper{
		store:    newStore(db, m, timeout, logger.With("module", "revocation-sweeper")),
		interval: interval,
	}
}

// SweepOnce purges expired rows and reports how many were removed.
func (s *RevocationSweeper) SweepOnce(ctx context.Context) (int64, error) {
	var n int64
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.repomanager.Revocations(tx).PurgeExpired(ctx, s.now())
		return err
	})
	return n, err
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables sweeping.
func (s *RevocationSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error(ctx, "revocation sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Debug(ctx, "revocation sweep", "purged", n)
			}
		}
	}
}
