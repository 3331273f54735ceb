package services

import (
	"context"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/client/api"
	"github.com/epicrunze/journal/internal/client/models"
	"github.com/epicrunze/journal/internal/client/storage"
	"github.com/epicrunze/journal/internal/logging"
	syncapi "github.com/epicrunze/journal/internal/server/sync"
	"github.com/google/uuid"
)

// SyncResult summarizes one sync round for display.
type SyncResult struct {
	Applied    int
	AutoMerged int
	Conflicts  int
	Skipped    int
	Pulled     int
	Remaining  int
}

// SyncService pushes the pending queue to the server and folds the response
// back into the local cache. Only changes the server reports as applied leave
// the queue; conflicted and failed changes stay put for the next round.
type SyncService interface {
	Run(ctx context.Context) (*SyncResult, error)
	Conflicts(ctx context.Context) ([]models.Conflict, error)
	ResolveConflict(ctx context.Context, entityID uuid.UUID, resolution, content string) error
}

type syncService struct {
	client api.Client
	repos  *storage.Repositories
	logger logging.Logger
	now    func() time.Time
}

func NewSyncService(client api.Client, repos *storage.Repositories, logger logging.Logger) SyncService {
	return &syncService{client: client, repos: repos, logger: logger, now: time.Now}
}

func (s *syncService) Run(ctx context.Context) (*SyncResult, error) {
	queue, err := s.repos.Pending.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending queue: %w", err)
	}

	req := syncapi.SyncRequest{
		PendingChanges: make([]syncapi.PendingChange, 0, len(queue)),
	}
	for i := range queue {
		req.PendingChanges = append(req.PendingChanges, queue[i].Wire())
	}
	if last, err := s.lastSyncedAt(ctx); err != nil {
		return nil, err
	} else if last != nil {
		req.LastSyncedAt = last
	}

	resp, err := s.client.Sync(ctx, req)
	if err != nil {
		// The queue is untouched: every change is retransmitted next round.
		return nil, fmt.Errorf("sync request failed: %w", err)
	}

	if err := s.repos.Pending.Remove(ctx, resp.Applied); err != nil {
		return nil, fmt.Errorf("failed to dequeue applied changes: %w", err)
	}

	for i := range resp.Conflicts {
		d := &resp.Conflicts[i]
		conflict := &models.Conflict{
			EntityID:      d.EntityID,
			Entity:        d.Entity,
			BaseVersion:   d.BaseVersion,
			ServerVersion: d.ServerVersion,
			AncestorText:  d.AncestorText,
			LocalContent:  d.LocalContent,
			ServerContent: d.ServerContent,
			DetectedAt:    s.now().UTC(),
		}
		if err := s.repos.Conflicts.Save(ctx, conflict); err != nil {
			return nil, fmt.Errorf("failed to save conflict: %w", err)
		}
	}

	pulled, err := s.applyServerChanges(ctx, resp.ServerChanges)
	if err != nil {
		return nil, err
	}

	if err := s.setLastSyncedAt(ctx, resp.SyncTimestamp); err != nil {
		return nil, err
	}

	remaining, err := s.repos.Pending.Count(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Applied:    len(resp.Applied),
		AutoMerged: len(resp.AutoMerged),
		Conflicts:  len(resp.Conflicts),
		Skipped:    len(resp.Skipped),
		Pulled:     pulled,
		Remaining:  remaining,
	}
	s.logger.Info(ctx, "sync round completed",
		"applied", result.Applied,
		"auto_merged", result.AutoMerged,
		"conflicts", result.Conflicts,
		"skipped", result.Skipped,
		"pulled", result.Pulled,
		"remaining", result.Remaining)
	return result, nil
}

// applyServerChanges upserts pulled records into the local cache. A record
// with an open conflict is skipped: overwriting it would destroy the local
// side before the user resolved anything.
func (s *syncService) applyServerChanges(ctx context.Context, changes syncapi.ServerChanges) (int, error) {
	synced := s.now().UTC()
	pulled := 0
	for _, e := range changes.Entries {
		if _, err := s.repos.Conflicts.GetByEntity(ctx, e.ID); err == nil {
			continue
		}
		local := &models.Entry{
			ID:               e.ID,
			Date:             e.Date,
			Conversations:    e.Conversations,
			RefinedOutput:    e.RefinedOutput,
			RelevanceScore:   e.RelevanceScore,
			LastInteractedAt: e.LastInteractedAt,
			InteractionCount: e.InteractionCount,
			Status:           e.Status,
			PendingRefine:    e.PendingRefine,
			RefineStatus:     e.RefineStatus,
			Version:          e.Version,
			CreatedAt:        e.CreatedAt,
			UpdatedAt:        e.UpdatedAt,
			SyncedAt:         &synced,
		}
		if err := s.repos.Entries.Upsert(ctx, local); err != nil {
			return pulled, fmt.Errorf("failed to cache entry %s: %w", e.ID, err)
		}
		pulled++
	}
	for _, g := range changes.Goals {
		local := &models.Goal{
			ID:          g.ID,
			Category:    g.Category,
			Description: g.Description,
			Active:      g.Active,
			Version:     g.Version,
			CreatedAt:   g.CreatedAt,
			UpdatedAt:   g.UpdatedAt,
		}
		if err := s.repos.Goals.Upsert(ctx, local); err != nil {
			return pulled, fmt.Errorf("failed to cache goal %s: %w", g.ID, err)
		}
		pulled++
	}
	return pulled, nil
}

func (s *syncService) Conflicts(ctx context.Context) ([]models.Conflict, error) {
	return s.repos.Conflicts.List(ctx)
}

// ResolveConflict settles one conflicted entry on the server, then clears the
// local conflict row, drops the now-moot queued changes for that entry, and
// caches the authoritative record.
func (s *syncService) ResolveConflict(ctx context.Context, entityID uuid.UUID, resolution, content string) error {
	entry, err := s.client.Resolve(ctx, syncapi.ResolveRequest{
		EntityID:   entityID,
		Resolution: resolution,
		Content:    content,
	})
	if err != nil {
		return fmt.Errorf("resolve request failed: %w", err)
	}

	if err := s.repos.Conflicts.Delete(ctx, entityID); err != nil {
		return err
	}
	if err := s.repos.Pending.RemoveByEntity(ctx, entityID); err != nil {
		return err
	}

	synced := s.now().UTC()
	local := &models.Entry{
		ID:               entry.ID,
		Date:             entry.Date,
		Conversations:    entry.Conversations,
		RefinedOutput:    entry.RefinedOutput,
		RelevanceScore:   entry.RelevanceScore,
		LastInteractedAt: entry.LastInteractedAt,
		InteractionCount: entry.InteractionCount,
		Status:           entry.Status,
		PendingRefine:    entry.PendingRefine,
		RefineStatus:     entry.RefineStatus,
		Version:          entry.Version,
		CreatedAt:        entry.CreatedAt,
		UpdatedAt:        entry.UpdatedAt,
		SyncedAt:         &synced,
	}
	if err := s.repos.Entries.Upsert(ctx, local); err != nil {
		return err
	}
	s.logger.Info(ctx, "conflict resolved", "entity_id", entityID, "resolution", resolution, "version", entry.Version)
	return nil
}

func (s *syncService) lastSyncedAt(ctx context.Context) (*time.Time, error) {
	raw, err := s.repos.Metadata.Get(ctx, metaLastSyncedAt)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse last sync timestamp: %w", err)
	}
	return &t, nil
}

func (s *syncService) setLastSyncedAt(ctx context.Context, t time.Time) error {
	return s.repos.Metadata.Set(ctx, metaLastSyncedAt, []byte(t.UTC().Format(time.RFC3339Nano)))
}
