package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/dbx"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const entryColumns = `id, user_id, date, conversations, refined_output, relevance_score,
		last_interacted_at, interaction_count, status, pending_refine, refine_status,
		refine_error, version, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id=$1 AND user_id=$2`
	row := r.db.QueryRowContext(ctx, query, id, userID)

	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return entry, nil
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) error {
	conversations, err := json.Marshal(entry.Conversations)
	if err != nil {
		return fmt.Errorf("failed to marshal conversations: %w", err)
	}

	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Date, conversations, entry.RefinedOutput,
		entry.RelevanceScore, entry.LastInteractedAt, entry.InteractionCount,
		entry.Status, entry.PendingRefine, entry.RefineStatus, entry.RefineError,
		entry.Version, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Update is the compare-and-increment write: the row is touched only when it
// is still at expectedVersion. Zero rows affected means another device won
// the race and the caller must re-classify the change.
func (r *PostgresRepository) Update(ctx context.Context, entry *models.Entry, expectedVersion int64) error {
	conversations, err := json.Marshal(entry.Conversations)
	if err != nil {
		return fmt.Errorf("failed to marshal conversations: %w", err)
	}

	query := `
		UPDATE entries SET
			date=$1, conversations=$2, refined_output=$3, relevance_score=$4,
			last_interacted_at=$5, interaction_count=$6, status=$7,
			pending_refine=$8, refine_status=$9, refine_error=$10,
			version=$11, updated_at=$12
		WHERE id=$13 AND user_id=$14 AND version=$15
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.Date, conversations, entry.RefinedOutput, entry.RelevanceScore,
		entry.LastInteractedAt, entry.InteractionCount, entry.Status,
		entry.PendingRefine, entry.RefineStatus, entry.RefineError,
		expectedVersion+1, entry.UpdatedAt,
		entry.ID, entry.UserID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
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

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_id=$1`
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filter.AfterDate != "" {
		args = append(args, filter.AfterDate)
		query += fmt.Sprintf(" AND date > $%d", len(args))
	}
	if filter.BeforeDate != "" {
		args = append(args, filter.BeforeDate)
		query += fmt.Sprintf(" AND date < $%d", len(args))
	}
	if filter.PendingRefine {
		query += " AND pending_refine=TRUE"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY date DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.queryEntries(ctx, query, args...)
}

// ListChangedSince returns all of the user's entries mutated after since.
// A nil since means a full pull (first sync).
func (r *PostgresRepository) ListChangedSince(ctx context.Context, userID uuid.UUID, since *time.Time) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_id=$1`
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		query += " AND updated_at > $2"
	}
	query += " ORDER BY updated_at"

	return r.queryEntries(ctx, query, args...)
}

func (r *PostgresRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanEntry(scan func(dest ...any) error) (*models.Entry, error) {
	var (
		entry         models.Entry
		conversations []byte
	)
	if err := scan(
		&entry.ID, &entry.UserID, &entry.Date, &conversations, &entry.RefinedOutput,
		&entry.RelevanceScore, &entry.LastInteractedAt, &entry.InteractionCount,
		&entry.Status, &entry.PendingRefine, &entry.RefineStatus, &entry.RefineError,
		&entry.Version, &entry.CreatedAt, &entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(conversations) > 0 {
		if err := json.Unmarshal(conversations, &entry.Conversations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversations: %w", err)
		}
	}
	return &entry, nil
}
