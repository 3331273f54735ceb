package pending

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/epicrunze/journal/internal/client/models"
	"github.com/epicrunze/journal/internal/dbx"
	syncapi "github.com/epicrunze/journal/internal/server/sync"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, c *models.PendingChange) error {
	query := `INSERT INTO pending_changes (id, entity, change_type, entity_id, data, base_version, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	var data any
	if c.Data != nil {
		data = string(c.Data)
	}
	_, err := r.db.ExecContext(ctx, query,
		c.ID.String(), c.Entity, string(c.Type), c.EntityID.String(), data, c.BaseVersion, c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append pending change: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) All(ctx context.Context) ([]models.PendingChange, error) {
	query := `SELECT position, id, entity, change_type, entity_id, data, base_version, ts
		FROM pending_changes ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending changes: %w", err)
	}
	defer rows.Close()

	var result []models.PendingChange
	for rows.Next() {
		var c models.PendingChange
		var id, entityID, typ string
		var data sql.NullString
		var base sql.NullInt64
		if err := rows.Scan(&c.Position, &id, &c.Entity, &typ, &entityID, &data, &base, &c.Timestamp); err != nil {
			return nil, err
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse change id: %w", err)
		}
		if c.EntityID, err = uuid.Parse(entityID); err != nil {
			return nil, fmt.Errorf("failed to parse entity id: %w", err)
		}
		c.Type = syncapi.ChangeType(typ)
		if data.Valid {
			c.Data = []byte(data.String)
		}
		if base.Valid {
			v := base.Int64
			c.BaseVersion = &v
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_changes`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending changes: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id.String()
	}
	query := `DELETE FROM pending_changes WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to remove pending changes: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveByEntity(ctx context.Context, entityID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_changes WHERE entity_id = ?`, entityID.String())
	if err != nil {
		return fmt.Errorf("failed to remove pending changes for entity: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_changes`); err != nil {
		return fmt.Errorf("failed to clear pending changes: %w", err)
	}
	return nil
}
