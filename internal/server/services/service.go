// Package services contains server-side business logic: accounts and
// sessions (UserService), owned calculations (CalculationService), exports
// to object storage (ExportService) and revocation housekeeping.
//
// Services receive the caller's auth.Identity explicitly, wrap every
// mutation in dbx.WithTx and bound every database call by the configured
// statement timeout. They return sentinel errors from internal/common;
// anything unexpected is folded into common.ErrorInternal.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var known = []error{
	common.ErrorNotFound,
	common.ErrAlreadyExists,
	common.ErrorUnauthorized,
	common.ErrorForbidden,
	common.ErrVersionConflict,
	common.ErrInvalidID,
	common.ErrValidation,
	common.ErrComputation,
	common.ErrorInternal,
}

// asServiceError keeps sentinel errors and folds everything else (driver
// errors, deadlines) into common.ErrorInternal.
func asServiceError(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}

// now returns the wall clock at the precision PostgreSQL stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// store bundles what every service needs to talk to the database.
type store struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	timeout     time.Duration
	logger      logging.Logger
	now         func() time.Time
	newID       func() string
}

func newStore(db *sql.DB, rm repomanager.RepositoryManager, timeout time.Duration, logger logging.Logger) store {
	return store{db: db, repomanager: rm, timeout: timeout, logger: logger, now: now, newID: uuid.NewString}
}

// read runs fn against the pool under the statement timeout.
func (s *store) read(ctx context.Context, fn func(ctx context.Context, db dbx.DBTX) error) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()
	return asServiceError(fn(ctx, s.db))
}

// write runs fn in a transaction under the statement timeout. A deadline
// hit anywhere inside fn rolls the whole transaction back.
func (s *store) write(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.timeout)
	defer cancel()
	return asServiceError(dbx.WithTx(ctx, s.db, nil, fn))
}

func parseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", common.ErrInvalidID
	}
	return u.String(), nil
}
