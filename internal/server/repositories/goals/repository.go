// Package goals provides the PostgreSQL-backed repository for user goals.
package goals

import (
	"context"
	"time"

	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Goal, error)
	Create(ctx context.Context, goal *models.Goal) error

	// Update writes goal only if the stored row is still at expectedVersion.
	Update(ctx context.Context, goal *models.Goal, expectedVersion int64) error

	Delete(ctx context.Context, id, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*models.Goal, error)
	ListChangedSince(ctx context.Context, userID uuid.UUID, since *time.Time) ([]*models.Goal, error)
}
