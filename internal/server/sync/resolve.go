package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// Resolve settles a conflicted entry with an explicit user decision.
//
// "local" and "merged" replace the server text with the caller-supplied
// content; "server" keeps the server text and discards the client's edit.
// All three accept a new version, so both devices converge on a version
// neither considers stale, and the client dequeues its pending change.
func (c *Coordinator) Resolve(ctx context.Context, userID uuid.UUID, req ResolveRequest) (*models.Entry, error) {
	switch req.Resolution {
	case ResolutionLocal, ResolutionServer, ResolutionMerged:
	default:
		return nil, fmt.Errorf("%w: unknown resolution %q", common.ErrValidation, req.Resolution)
	}

	var resolved *models.Entry
	backoff := retry.WithMaxRetries(3, retry.NewConstant(25*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		entry, err := c.entries.GetByID(ctx, req.EntityID, userID)
		if err != nil {
			return err
		}

		if req.Resolution != ResolutionServer {
			entry.RefinedOutput = req.Content
		}
		entry.UpdatedAt = c.now().UTC()

		if err := c.update(ctx, entry); err != nil {
			if errors.Is(err, common.ErrVersionConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		resolved = entry
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conflict on %s: %w", req.EntityID, err)
	}

	c.logger.Info(ctx, "conflict resolved",
		"entity_id", req.EntityID, "resolution", req.Resolution, "version", resolved.Version)
	return resolved, nil
}
