// Package entries is the local cache of journal entries mirrored from the
// server. Rows hold the last server-acknowledged version; offline edits are
// recorded in the pending-change queue, not here, so a failed sync never
// loses the server baseline.
package entries

import (
	"context"

	"github.com/epicrunze/journal/internal/client/models"
	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts or replaces the cached row by id.
	Upsert(ctx context.Context, entry *models.Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	// List returns cached entries ordered by date descending, excluding
	// archived ones unless includeArchived is set.
	List(ctx context.Context, includeArchived bool) ([]models.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
