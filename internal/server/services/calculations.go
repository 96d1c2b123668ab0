package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/auth"
	"github.com/dmitrijs2005/calckeeper/internal/server/calc"
	"github.com/dmitrijs2005/calckeeper/internal/server/config"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/calckeeper/internal/server/validation"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// CalculationInput creates a calculation.
type CalculationInput struct {
	Type   string    `json:"type" validate:"required"`
	Inputs []float64 `json:"inputs" validate:"required,min=2"`
}

// CalculationUpdate replaces type and/or inputs. A positive Version must
// match the stored one.
type CalculationUpdate struct {
	Type    *string   `json:"type,omitempty"`
	Inputs  []float64 `json:"inputs,omitempty" validate:"omitempty,min=2"`
	Version int64     `json:"version,omitempty" validate:"gte=0"`
}

// BrowseQuery pages through the caller's calculations.
type BrowseQuery struct {
	Type   string `form:"type"`
	Limit  int    `form:"limit" validate:"gte=0"`
	Offset int    `form:"offset" validate:"gte=0"`
}

// Summary counts the caller's calculations per operation.
type Summary struct {
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"by_type"`
}

// CalculationService implements browse, read, edit, add and delete over
// calculations owned by the caller.
type CalculationService struct {
	store
}

func NewCalculationService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *CalculationService {
	return &CalculationService{
		store: newStore(db, m, cfg.StatementTimeout, logger.With("module", "calculations")),
	}
}

// Browse lists the caller's calculations, newest first.
func (s *CalculationService) Browse(ctx context.Context, id auth.Identity, q BrowseQuery) ([]*models.Calculation, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}

	filter := models.CalculationFilter{Limit: DefaultPageSize, Offset: uint64(q.Offset)}
	if q.Limit > 0 {
		filter.Limit = uint64(min(q.Limit, MaxPageSize))
	}
	if q.Type != "" {
		op, err := calc.ParseOperation(q.Type)
		if err != nil {
			return nil, err
		}
		filter.Type = op.String()
	}

	var list []*models.Calculation
	err := s.read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		list, err = s.repomanager.Calculations(db).List(ctx, id.UserID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Calculation{}
	}
	return list, nil
}

// Read returns one calculation. Someone else's calculation is not found.
func (s *CalculationService) Read(ctx context.Context, id auth.Identity, calcID string) (*models.Calculation, error) {
	calcID, err := parseID(calcID)
	if err != nil {
		return nil, err
	}

	var c *models.Calculation
	err = s.read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		c, err = s.repomanager.Calculations(db).GetForOwner(ctx, calcID, id.UserID, false)
		if err != nil {
			return err
		}
		return auth.Authorize(id, c.UserID)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Add computes and stores a new calculation. Nothing is stored when the
// input is invalid or the operation cannot be computed.
func (s *CalculationService) Add(ctx context.Context, id auth.Identity, in CalculationInput) (*models.Calculation, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	op, err := calc.ParseOperation(in.Type)
	if err != nil {
		return nil, err
	}
	result, err := calc.Compute(op, in.Inputs)
	if err != nil {
		return nil, err
	}

	ts := s.now()
	c := &models.Calculation{
		ID:        s.newID(),
		UserID:    id.UserID,
		Type:      op.String(),
		Inputs:    append([]float64(nil), in.Inputs...),
		Result:    result,
		Version:   1,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Calculations(tx).Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "calculation added", "user_id", id.UserID, "calculation_id", c.ID, "type", c.Type)
	return c, nil
}

// Edit recomputes the result from the merged type and inputs and saves it.
// The row is locked for the duration so concurrent edits serialise.
func (s *CalculationService) Edit(ctx context.Context, id auth.Identity, calcID string, in CalculationUpdate) (*models.Calculation, error) {
	calcID, err := parseID(calcID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Type == nil && in.Inputs == nil {
		return nil, common.NewValidationError("body", "nothing to update")
	}

	var c *models.Calculation
	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Calculations(tx)

		var err error
		c, err = repo.GetForOwner(ctx, calcID, id.UserID, true)
		if err != nil {
			return err
		}
		if err := auth.Authorize(id, c.UserID); err != nil {
			return err
		}
		if in.Version > 0 && in.Version != c.Version {
			return common.ErrVersionConflict
		}

		op, err := calc.ParseOperation(c.Type)
		if err != nil {
			return err
		}
		if in.Type != nil {
			if op, err = calc.ParseOperation(*in.Type); err != nil {
				return err
			}
		}
		inputs := c.Inputs
		if in.Inputs != nil {
			inputs = append([]float64(nil), in.Inputs...)
		}

		result, err := calc.Compute(op, inputs)
		if err != nil {
			return err
		}

		c.Type = op.String()
		c.Inputs = inputs
		c.Result = result
		c.UpdatedAt = s.now()
		return repo.Update(ctx, c, c.Version)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "calculation updated", "user_id", id.UserID, "calculation_id", c.ID, "version", c.Version)
	return c, nil
}

// Delete removes one of the caller's calculations.
func (s *CalculationService) Delete(ctx context.Context, id auth.Identity, calcID string) error {
	calcID, err := parseID(calcID)
	if err != nil {
		return err
	}

	err = s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Calculations(tx).Delete(ctx, calcID, id.UserID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "calculation deleted", "user_id", id.UserID, "calculation_id", calcID)
	return nil
}

// Summary reports how many calculations of each type the caller owns.
// Every known operation appears, with zero when unused.
func (s *CalculationService) Summary(ctx context.Context, id auth.Identity) (*Summary, error) {
	var counts map[string]int64
	err := s.read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		counts, err = s.repomanager.Calculations(db).CountByType(ctx, id.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	sum := &Summary{ByType: make(map[string]int64)}
	for _, op := range calc.Operations() {
		n := counts[op.String()]
		sum.ByType[op.String()] = n
		sum.Total += n
	}
	return sum, nil
}

// Clear deletes all of the caller's calculations and reports how many went.
func (s *CalculationService) Clear(ctx context.Context, id auth.Identity) (int64, error) {
	var n int64
	err := s.write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		n, err = s.repomanager.Calculations(tx).DeleteAllForOwner(ctx, id.UserID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "calculations cleared", "user_id", id.UserID, "count", n)
	return n, nil
}
