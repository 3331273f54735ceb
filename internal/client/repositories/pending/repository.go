// Package pending persists the offline mutation queue. Changes are appended
// in the order the user made them and stay queued until the server reports
// their ids as applied; anything else (conflicts, skips, failed requests)
// leaves the row in place for the next sync attempt.
package pending

import (
	"context"

	"github.com/epicrunze/journal/internal/client/models"
	"github.com/google/uuid"
)

type Repository interface {
	// Append adds a change at the tail of the queue.
	Append(ctx context.Context, change *models.PendingChange) error
	// All returns the queue in append order.
	All(ctx context.Context) ([]models.PendingChange, error)
	Count(ctx context.Context) (int, error)
	// Remove deletes the changes whose ids the server acknowledged.
	Remove(ctx context.Context, ids []uuid.UUID) error
	// RemoveByEntity drops every queued change for one record. Used after a
	// conflict resolution makes the queued edits moot.
	RemoveByEntity(ctx context.Context, entityID uuid.UUID) error
	Clear(ctx context.Context) error
}
