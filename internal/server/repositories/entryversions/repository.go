// Package entryversions stores per-version content snapshots of entries.
// Snapshots serve as the common ancestor texts for three-way merges.
package entryversions

import (
	"context"

	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *models.EntryVersion) error

	// SnapshotAt returns the entry's refined output as of the given version.
	// common.ErrSnapshotMissing is returned when history no longer covers it.
	SnapshotAt(ctx context.Context, entryID uuid.UUID, version int64) (string, error)

	ListByEntry(ctx context.Context, entryID uuid.UUID) ([]*models.EntryVersion, error)
}
