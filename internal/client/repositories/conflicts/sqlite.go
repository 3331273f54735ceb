package conflicts

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

const conflictColumns = `entity_id, entity, base_version, server_version,
	ancestor_text, local_content, server_content, detected_at`

// Save upserts by entity id: a second conflict on the same record replaces
// the stale one.
func (r *SQLiteRepository) Save(ctx context.Context, c *models.Conflict) error {
	query := `INSERT INTO conflicts (` + conflictColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			base_version = excluded.base_version,
			server_version = excluded.server_version,
			ancestor_text = excluded.ancestor_text,
			local_content = excluded.local_content,
			server_content = excluded.server_content,
			detected_at = excluded.detected_at
	`
	_, err := r.db.ExecContext(ctx, query,
		c.EntityID.String(), c.Entity, c.BaseVersion, c.ServerVersion,
		c.AncestorText, c.LocalContent, c.ServerContent, c.DetectedAt)
	if err != nil {
		return fmt.Errorf("failed to save conflict: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByEntity(ctx context.Context, entityID uuid.UUID) (*models.Conflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM conflicts WHERE entity_id = ?`
	row := r.db.QueryRowContext(ctx, query, entityID.String())
	c, err := scanConflict(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conflict: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Conflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM conflicts ORDER BY detected_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select conflicts: %w", err)
	}
	defer rows.Close()

	var result []models.Conflict
	for rows.Next() {
		c, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, entityID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conflicts WHERE entity_id = ?`, entityID.String())
	if err != nil {
		return fmt.Errorf("failed to delete conflict: %w", err)
	}
	return nil
}

func scanConflict(scan func(dest ...any) error) (*models.Conflict, error) {
	c := &models.Conflict{}
	var id string
	err := scan(&id, &c.Entity, &c.BaseVersion, &c.ServerVersion,
		&c.AncestorText, &c.LocalContent, &c.ServerContent, &c.DetectedAt)
	if err != nil {
		return nil, err
	}
	if c.EntityID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse conflict entity id: %w", err)
	}
	return c, nil
}
