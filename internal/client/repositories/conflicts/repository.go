package conflicts

import (
	"context"

	"github.com/epicrunze/journal/internal/client/models"
	"github.com/google/uuid"
)

// Repository stores unresolved sync conflicts, one per record, until the
// user picks a resolution.
type Repository interface {
	Save(ctx context.Context, conflict *models.Conflict) error
	GetByEntity(ctx context.Context, entityID uuid.UUID) (*models.Conflict, error)
	List(ctx context.Context) ([]models.Conflict, error)
	Delete(ctx context.Context, entityID uuid.UUID) error
}
