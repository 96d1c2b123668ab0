package server

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// MemoryDSN selects the in-memory store. Data does not survive a restart.
const MemoryDSN = "memory://"

// openStorage returns the database handle services use for transactions
// together with the matching repository manager. In memory mode the handle
// is an in-memory SQLite database that only provides transaction boundaries.
func openStorage(ctx context.Context, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	if strings.HasPrefix(dsn, MemoryDSN) {
		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		return db, repomanager.NewMemoryRepositoryManager(memory.NewStore()), nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, repomanager.NewPostgresRepositoryManager(), nil
}
