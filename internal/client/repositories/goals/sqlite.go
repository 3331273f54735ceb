package goals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/epicrunze/journal/internal/client/models"
	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/dbx"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, g *models.Goal) error {
	query := `INSERT INTO goals (id, category, description, active, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			description = excluded.description,
			active = excluded.active,
			version = excluded.version,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		g.ID.String(), g.Category, g.Description, g.Active, g.Version, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	query := `SELECT id, category, description, active, version, created_at, updated_at
		FROM goals WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id.String())
	g, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) List(ctx context.Context, activeOnly bool) ([]models.Goal, error) {
	query := `SELECT id, category, description, active, version, created_at, updated_at FROM goals`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY category, created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select goals: %w", err)
	}
	defer rows.Close()

	var result []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func scanGoal(scan func(dest ...any) error) (*models.Goal, error) {
	g := &models.Goal{}
	var id string
	err := scan(&id, &g.Category, &g.Description, &g.Active, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if g.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse goal id: %w", err)
	}
	return g, nil
}
