package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/server/models"
)

// Repository persists user accounts. Username and email are unique; a
// violation is reported as common.ErrAlreadyExists. Missing rows are
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByLogin matches login against username or email.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	// ExistsByUsernameOrEmail ignores the row with excludeID (empty for none).
	ExistsByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// Delete removes the user; owned calculations go with it.
	Delete(ctx context.Context, id string) error
}
