// Package refreshtokens stores server-side refresh tokens so they can be
// rotated and revoked.
package refreshtokens

import (
	"context"
	"time"

	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}
