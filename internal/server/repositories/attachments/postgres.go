package attachments

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

const attachmentColumns = `id, entry_id, user_id, file_name, storage_key, uploaded, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error) {
	query := `
		INSERT INTO attachments (id, entry_id, user_id, file_name, storage_key, uploaded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		attachment.ID, attachment.EntryID, attachment.UserID,
		attachment.FileName, attachment.StorageKey, attachment.Uploaded, attachment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert attachment: %w", err)
	}
	return attachment, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	query := fmt.Sprintf(`SELECT %s FROM attachments WHERE id=$1`, attachmentColumns)
	var a models.Attachment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.EntryID, &a.UserID, &a.FileName, &a.StorageKey, &a.Uploaded, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select attachment: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) ListByEntry(ctx context.Context, entryID uuid.UUID) ([]*models.Attachment, error) {
	query := fmt.Sprintf(`SELECT %s FROM attachments WHERE entry_id=$1 ORDER BY created_at`, attachmentColumns)
	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to select attachments: %w", err)
	}
	defer rows.Close()

	var result []*models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.EntryID, &a.UserID, &a.FileName, &a.StorageKey, &a.Uploaded, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) MarkUploaded(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE attachments SET uploaded=TRUE WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to update attachment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
