package entryversions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, v *models.EntryVersion) error {
	query := `
		INSERT INTO entry_versions (id, entry_id, version, content_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entry_id, version) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, v.ID, v.EntryID, v.Version, v.ContentSnapshot, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry version: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SnapshotAt(ctx context.Context, entryID uuid.UUID, version int64) (string, error) {
	query := `SELECT content_snapshot FROM entry_versions WHERE entry_id=$1 AND version=$2`
	var snapshot string
	err := r.db.QueryRowContext(ctx, query, entryID, version).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrSnapshotMissing
	}
	if err != nil {
		return "", fmt.Errorf("failed to select entry version: %w", err)
	}
	return snapshot, nil
}

func (r *PostgresRepository) ListByEntry(ctx context.Context, entryID uuid.UUID) ([]*models.EntryVersion, error) {
	query := `
		SELECT id, entry_id, version, content_snapshot, created_at
		FROM entry_versions WHERE entry_id=$1 ORDER BY version DESC
	`
	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry versions: %w", err)
	}
	defer rows.Close()

	var result []*models.EntryVersion
	for rows.Next() {
		var v models.EntryVersion
		if err := rows.Scan(&v.ID, &v.EntryID, &v.Version, &v.ContentSnapshot, &v.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
