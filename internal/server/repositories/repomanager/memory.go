package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/calculations"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out repositories over one shared
// memory.Store. The DBTX argument is ignored; the *sql.DB passed to the
// services only provides transaction boundaries.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager(store *memory.Store) RepositoryManager {
	return &MemoryRepositoryManager{store: store}
}

// RunMigrations is a no-op: the store has no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.store.Users()
}

func (m *MemoryRepositoryManager) Calculations(dbx.DBTX) calculations.Repository {
	return m.store.Calculations()
}

func (m *MemoryRepositoryManager) Revocations(dbx.DBTX) revocations.Repository {
	return m.store.Revocations()
}
