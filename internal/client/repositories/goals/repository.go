package goals

import (
	"context"

	"github.com/epicrunze/journal/internal/client/models"
	"github.com/google/uuid"
)

type Repository interface {
	Upsert(ctx context.Context, goal *models.Goal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Goal, error)
	List(ctx context.Context, activeOnly bool) ([]models.Goal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
