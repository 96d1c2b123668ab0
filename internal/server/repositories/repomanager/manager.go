package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/calculations"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Calculations(db dbx.DBTX) calculations.Repository
	Revocations(db dbx.DBTX) revocations.Repository
}
