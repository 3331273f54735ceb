// Package entries provides the PostgreSQL-backed repository for journal
// entries, including the optimistic-concurrency update used by sync.
package entries

import (
	"context"
	"time"

	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Entry, error)
	Create(ctx context.Context, entry *models.Entry) error

	// Update writes entry only if the stored row is still at expectedVersion,
	// bumping the version to expectedVersion+1. A concurrent writer makes it
	// return common.ErrVersionConflict.
	Update(ctx context.Context, entry *models.Entry, expectedVersion int64) error

	List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*models.Entry, error)
	ListChangedSince(ctx context.Context, userID uuid.UUID, since *time.Time) ([]*models.Entry, error)
}

// ListFilter narrows List results. Zero values mean "no constraint" except
// Limit, which defaults to 50 when unset.
type ListFilter struct {
	Status        string
	AfterDate     string
	BeforeDate    string
	PendingRefine bool
	Limit         int
	Offset        int
}
