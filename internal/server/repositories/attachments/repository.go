// Package attachments stores object-storage metadata for files linked to
// entries.
package attachments

import (
	"context"

	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	ListByEntry(ctx context.Context, entryID uuid.UUID) ([]*models.Attachment, error)
	MarkUploaded(ctx context.Context, id uuid.UUID) error
}
