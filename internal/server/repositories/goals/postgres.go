package goals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/dbx"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const goalColumns = `id, user_id, category, description, active, version, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id=$1 AND user_id=$2`
	var g models.Goal
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&g.ID, &g.UserID, &g.Category, &g.Description, &g.Active, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select goal: %w", err)
	}
	return &g, nil
}

func (r *PostgresRepository) Create(ctx context.Context, goal *models.Goal) error {
	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		goal.ID, goal.UserID, goal.Category, goal.Description, goal.Active,
		goal.Version, goal.CreatedAt, goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, goal *models.Goal, expectedVersion int64) error {
	query := `
		UPDATE goals SET category=$1, description=$2, active=$3, version=$4, updated_at=$5
		WHERE id=$6 AND user_id=$7 AND version=$8
	`
	res, err := r.db.ExecContext(ctx, query,
		goal.Category, goal.Description, goal.Active,
		expectedVersion+1, goal.UpdatedAt,
		goal.ID, goal.UserID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id=$1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY created_at`
	return r.queryGoals(ctx, query, userID)
}

func (r *PostgresRepository) ListChangedSince(ctx context.Context, userID uuid.UUID, since *time.Time) ([]*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id=$1`
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		query += ` AND updated_at > $2`
	}
	query += ` ORDER BY updated_at`
	return r.queryGoals(ctx, query, args...)
}

func (r *PostgresRepository) queryGoals(ctx context.Context, query string, args ...any) ([]*models.Goal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select goals: %w", err)
	}
	defer rows.Close()

	var result []*models.Goal
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Category, &g.Description, &g.Active,
			&g.Version, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
