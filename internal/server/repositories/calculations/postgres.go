// Package calculations provides the owner-scoped calculation repository.
package calculations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/dmitrijs2005/calckeeper/internal/dbx"
	"github.com/dmitrijs2005/calckeeper/internal/server/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var calculationColumns = []string{"id", "user_id", "type", "inputs", "result", "version", "created_at", "updated_at"}

// PostgresRepository implements calculation storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCalculation(row interface{ Scan(...any) error }) (*models.Calculation, error) {
	c := &models.Calculation{}
	var inputs []byte
	if err := row.Scan(&c.ID, &c.UserID, &c.Type, &inputs, &c.Result, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputs, &c.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	return c, nil
}

// Create inserts c as version 1.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Calculation) error {
	inputs, err := json.Marshal(c.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	c.Version = 1

	query :=
		`INSERT INTO calculations (id, user_id, type, inputs, result, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.Type, string(inputs), c.Result, c.Version, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetForOwner(ctx context.Context, id, ownerID string, forUpdate bool) (*models.Calculation, error) {
	b := psql.Select(calculationColumns...).
		From("calculations").
		Where(sq.Eq{"id": id, "user_id": ownerID})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	c, err := scanCalculation(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string, filter models.CalculationFilter) ([]*models.Calculation, error) {
	b := psql.Select(calculationColumns...).
		From("calculations").
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at DESC", "id")
	if filter.Type != "" {
		b = b.Where(sq.Eq{"type": filter.Type})
	}
	if filter.Limit > 0 {
		b = b.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		b = b.Offset(filter.Offset)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select calculations: %w", err)
	}
	defer rows.Close()

	result := []*models.Calculation{}
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update stores the new state of c and sets c.Version to the bumped value.
// With no matching row the result is common.ErrVersionConflict when a
// version was expected and common.ErrorNotFound otherwise.
func (r *PostgresRepository) Update(ctx context.Context, c *models.Calculation, expectedVersion int64) error {
	inputs, err := json.Marshal(c.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}

	where := sq.Eq{"id": c.ID, "user_id": c.UserID}
	if expectedVersion > 0 {
		where["version"] = expectedVersion
	}

	query, args, err := psql.Update("calculations").
		Set("type", c.Type).
		Set("inputs", string(inputs)).
		Set("result", c.Result).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", c.UpdatedAt).
		Where(where).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	var version int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if expectedVersion > 0 {
				return common.ErrVersionConflict
			}
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	c.Version = version
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calculations WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calculations WHERE user_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountByType(ctx context.Context, ownerID string) (map[string]int64, error) {
	query, args, err := psql.Select("type", "COUNT(*)").
		From("calculations").
		Where(sq.Eq{"user_id": ownerID}).
		GroupBy("type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
