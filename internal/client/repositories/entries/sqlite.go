package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/epicrunze/journal/internal/client/models"
	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/dbx"
	smodels "github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const entryColumns = `id, date, conversations, refined_output, relevance_score,
	last_interacted_at, interaction_count, status, pending_refine, refine_status,
	version, created_at, updated_at, synced_at`

// Upsert replaces the cached row wholesale. The cache always reflects the
// newest state the server has acknowledged, so a blind overwrite is correct.
func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.Entry) error {
	conv, err := json.Marshal(e.Conversations)
	if err != nil {
		return fmt.Errorf("failed to encode conversations: %w", err)
	}
	query := `INSERT INTO entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			conversations = excluded.conversations,
			refined_output = excluded.refined_output,
			relevance_score = excluded.relevance_score,
			last_interacted_at = excluded.last_interacted_at,
			interaction_count = excluded.interaction_count,
			status = excluded.status,
			pending_refine = excluded.pending_refine,
			refine_status = excluded.refine_status,
			version = excluded.version,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at
	`
	_, err = r.db.ExecContext(ctx, query,
		e.ID.String(), e.Date, string(conv), e.RefinedOutput, e.RelevanceScore,
		e.LastInteractedAt, e.InteractionCount, e.Status, e.PendingRefine, e.RefineStatus,
		e.Version, e.CreatedAt, e.UpdatedAt, e.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id.String())
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) List(ctx context.Context, includeArchived bool) ([]models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	if !includeArchived {
		query += ` WHERE status != 'archived'`
	}
	query += ` ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func scanEntry(scan func(dest ...any) error) (*models.Entry, error) {
	e := &models.Entry{}
	var id, conv string
	var synced sql.NullTime
	err := scan(&id, &e.Date, &conv, &e.RefinedOutput, &e.RelevanceScore,
		&e.LastInteractedAt, &e.InteractionCount, &e.Status, &e.PendingRefine, &e.RefineStatus,
		&e.Version, &e.CreatedAt, &e.UpdatedAt, &synced)
	if err != nil {
		return nil, err
	}
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse entry id: %w", err)
	}
	if conv != "" {
		if err := json.Unmarshal([]byte(conv), &e.Conversations); err != nil {
			return nil, fmt.Errorf("failed to decode conversations: %w", err)
		}
	}
	if e.Conversations == nil {
		e.Conversations = []smodels.Conversation{}
	}
	if synced.Valid {
		t := synced.Time
		e.SyncedAt = &t
	}
	return e, nil
}
