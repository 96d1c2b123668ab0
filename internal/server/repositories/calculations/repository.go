package calculations

import (
	"context"

	"github.com/dmitrijs2005/calckeeper/internal/server/models"
)

// Repository persists calculations. Every read and write is scoped to an
// owner; a row owned by someone else behaves exactly like a missing row.
type Repository interface {
	Create(ctx context.Context, c *models.Calculation) error
	// GetForOwner locks the row when forUpdate is set; only meaningful inside a transaction.
	GetForOwner(ctx context.Context, id, ownerID string, forUpdate bool) (*models.Calculation, error)
	// List returns newest first.
	List(ctx context.Context, ownerID string, filter models.CalculationFilter) ([]*models.Calculation, error)
	// Update writes type, inputs, result and updated_at and bumps the version.
	// A positive expectedVersion must match the stored one.
	Update(ctx context.Context, c *models.Calculation, expectedVersion int64) error
	Delete(ctx context.Context, id, ownerID string) error
	DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error)
	CountByType(ctx context.Context, ownerID string) (map[string]int64, error)
}
