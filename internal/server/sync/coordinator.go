package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/logging"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/epicrunze/journal/internal/server/repositories/entries"
	"github.com/epicrunze/journal/internal/server/repositories/entryversions"
	"github.com/epicrunze/journal/internal/server/repositories/goals"
	"github.com/epicrunze/journal/internal/textdiff"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// Coordinator classifies each pending change as applied, auto-merged,
// conflicted or skipped. Every accepted mutation bumps the record version by
// exactly 1 and writes a content snapshot for later ancestor lookups.
type Coordinator struct {
	entries  entries.Repository
	versions entryversions.Repository
	goals    goals.Repository
	logger   logging.Logger
	now      func() time.Time
}

func NewCoordinator(
	entryRepo entries.Repository,
	versionRepo entryversions.Repository,
	goalRepo goals.Repository,
	logger logging.Logger,
) *Coordinator {
	return &Coordinator{
		entries:  entryRepo,
		versions: versionRepo,
		goals:    goalRepo,
		logger:   logger,
		now:      time.Now,
	}
}

type outcomeKind int

const (
	outcomeApplied outcomeKind = iota
	outcomeAutoMerged
	outcomeConflicted
	outcomeSkipped
)

type outcome struct {
	kind     outcomeKind
	changeID uuid.UUID
	entityID uuid.UUID
	entity   string
	conflict *ConflictDescriptor
	reason   string
}

// Sync processes one batch. Changes targeting the same record are coalesced
// first; afterwards each change is classified independently, so a conflict on
// one record never aborts the rest of the batch. A version conflict raced in
// by a concurrent writer reruns that change's classification instead of
// failing.
func (c *Coordinator) Sync(ctx context.Context, userID uuid.UUID, req SyncRequest) (*SyncResponse, error) {
	now := c.now().UTC()
	resp := &SyncResponse{
		Applied:       []uuid.UUID{},
		AutoMerged:    []uuid.UUID{},
		Skipped:       []SkippedChange{},
		Conflicts:     []ConflictDescriptor{},
		SyncTimestamp: now,
	}

	// Conflicted records are withheld from the pull side: the client must not
	// overwrite its local copy while the conflict is open. Everything else
	// flows through server_changes, including directly-applied records, so
	// the client learns the post-apply version and anchors its next edit on
	// it instead of a stale base.
	excluded := make(map[uuid.UUID]bool)

	for _, change := range coalesce(req.PendingChanges) {
		out, err := c.processChange(ctx, userID, change.PendingChange, req.BaseVersions, now)
		if err != nil {
			return nil, err
		}

		switch out.kind {
		case outcomeApplied:
			resp.Applied = append(resp.Applied, change.absorbed...)
			resp.Applied = append(resp.Applied, out.changeID)
		case outcomeAutoMerged:
			resp.Applied = append(resp.Applied, change.absorbed...)
			resp.Applied = append(resp.Applied, out.changeID)
			resp.AutoMerged = append(resp.AutoMerged, out.changeID)
		case outcomeConflicted:
			resp.Conflicts = append(resp.Conflicts, *out.conflict)
			excluded[out.entityID] = true
		case outcomeSkipped:
			resp.Skipped = append(resp.Skipped, SkippedChange{ChangeID: out.changeID, Reason: out.reason})
		}
	}

	changedEntries, err := c.entries.ListChangedSince(ctx, userID, req.LastSyncedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed entries: %w", err)
	}
	changedGoals, err := c.goals.ListChangedSince(ctx, userID, req.LastSyncedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed goals: %w", err)
	}

	resp.ServerChanges = ServerChanges{Entries: []*models.Entry{}, Goals: []*models.Goal{}}
	for _, e := range changedEntries {
		if !excluded[e.ID] {
			resp.ServerChanges.Entries = append(resp.ServerChanges.Entries, e)
		}
	}
	for _, g := range changedGoals {
		if !excluded[g.ID] {
			resp.ServerChanges.Goals = append(resp.ServerChanges.Goals, g)
		}
	}

	return resp, nil
}

// processChange decodes and classifies a single change, rerunning the
// classification when an optimistic write loses to a concurrent writer.
func (c *Coordinator) processChange(ctx context.Context, userID uuid.UUID, change PendingChange, baseVersions map[string]int64, now time.Time) (outcome, error) {
	skip := func(reason string) outcome {
		return outcome{kind: outcomeSkipped, changeID: change.ID, entityID: change.EntityID, reason: reason}
	}

	var classify func(ctx context.Context) (outcome, error)

	switch change.Entity {
	case EntityEntry:
		ec, err := decodeEntryChange(change, baseVersions)
		if err != nil {
			return skip(err.Error()), nil
		}
		classify = func(ctx context.Context) (outcome, error) {
			return c.processEntryChange(ctx, userID, ec, now)
		}
	case EntityGoal:
		gc, err := decodeGoalChange(change)
		if err != nil {
			return skip(err.Error()), nil
		}
		classify = func(ctx context.Context) (outcome, error) {
			return c.processGoalChange(ctx, userID, gc, now)
		}
	default:
		return skip(fmt.Sprintf("unknown entity kind %q", change.Entity)), nil
	}

	var out outcome
	backoff := retry.WithMaxRetries(3, retry.NewConstant(25*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		o, err := classify(ctx)
		if errors.Is(err, common.ErrVersionConflict) {
			c.logger.Warn(ctx, "optimistic write lost, reclassifying change",
				"change_id", change.ID, "entity_id", change.EntityID)
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return outcome{}, fmt.Errorf("failed to process change %s: %w", change.ID, err)
	}
	return out, nil
}

func (c *Coordinator) processEntryChange(ctx context.Context, userID uuid.UUID, ec entryChange, now time.Time) (outcome, error) {
	applied := outcome{kind: outcomeApplied, changeID: ec.changeID, entityID: ec.entityID, entity: EntityEntry}
	skip := func(reason string) outcome {
		return outcome{kind: outcomeSkipped, changeID: ec.changeID, entityID: ec.entityID, reason: reason}
	}

	server, err := c.entries.GetByID(ctx, ec.entityID, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return outcome{}, err
	}
	exists := err == nil

	switch ec.typ {
	case ChangeCreate:
		if !exists {
			entry := &models.Entry{
				ID:        ec.entityID,
				UserID:    userID,
				Status:    models.EntryStatusActive,
				Version:   1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			applyEntryData(entry, ec.data, now)
			if err := c.entries.Create(ctx, entry); err != nil {
				if errors.Is(err, common.ErrAlreadyExists) {
					// lost a create race, rerun as an update of the winner
					return outcome{}, common.ErrVersionConflict
				}
				return outcome{}, err
			}
			if err := c.snapshot(ctx, entry); err != nil {
				return outcome{}, err
			}
			return applied, nil
		}
		if server.RefinedOutput == ec.data.RefinedOutput {
			// replayed create, nothing to do
			return applied, nil
		}
		return skip("record already exists"), nil

	case ChangeDelete:
		if !exists {
			return skip("record not found"), nil
		}
		if !ec.timestamp.After(server.UpdatedAt) {
			// server mutated after the local delete, server wins
			return applied, nil
		}
		server.Status = models.EntryStatusArchived
		server.UpdatedAt = now
		if err := c.update(ctx, server); err != nil {
			return outcome{}, err
		}
		return applied, nil

	case ChangeUpdate:
		if !exists {
			return skip("record not found"), nil
		}
		if ec.baseVersion == server.Version {
			applyEntryData(server, ec.data, now)
			if err := c.update(ctx, server); err != nil {
				return outcome{}, err
			}
			return applied, nil
		}
		return c.reconcileEntryUpdate(ctx, server, ec, now)

	default:
		return skip(fmt.Sprintf("unknown change type %q", ec.typ)), nil
	}
}

// reconcileEntryUpdate handles an update whose base version is behind the
// server: the refined output is three-way merged against the ancestor
// snapshot, while opaque fields resolve last-write-wins with ties favoring
// the server.
func (c *Coordinator) reconcileEntryUpdate(ctx context.Context, server *models.Entry, ec entryChange, now time.Time) (outcome, error) {
	applied := outcome{kind: outcomeApplied, changeID: ec.changeID, entityID: ec.entityID, entity: EntityEntry}
	clientWinsOpaque := ec.timestamp.After(server.UpdatedAt)

	if ec.data.RefinedOutput == server.RefinedOutput {
		// Text already agrees (typically a replayed batch); only opaque
		// fields can differ.
		if !clientWinsOpaque {
			return applied, nil
		}
		applyEntryOpaque(server, ec.data, now)
		if err := c.update(ctx, server); err != nil {
			return outcome{}, err
		}
		return applied, nil
	}

	ancestor, err := c.versions.SnapshotAt(ctx, ec.entityID, ec.baseVersion)
	if errors.Is(err, common.ErrSnapshotMissing) {
		// No shared anchor to diff against, only the user can decide.
		return c.conflictOutcome(ec, server, "", textdiff.Result{}, textdiff.Result{}), nil
	}
	if err != nil {
		return outcome{}, err
	}

	localDiff := textdiff.Diff(ancestor, ec.data.RefinedOutput)
	serverDiff := textdiff.Diff(ancestor, server.RefinedOutput)

	merged, err := textdiff.Merge(ancestor, localDiff, serverDiff)
	if errors.Is(err, textdiff.ErrOverlap) {
		return c.conflictOutcome(ec, server, ancestor, localDiff, serverDiff), nil
	}
	if err != nil {
		// ErrBaseMismatch here means the snapshot history is corrupt; do not
		// guess at a merge.
		return outcome{}, fmt.Errorf("merge of entry %s at base %d: %w", ec.entityID, ec.baseVersion, err)
	}

	if clientWinsOpaque {
		applyEntryOpaque(server, ec.data, now)
	}
	server.RefinedOutput = merged
	server.UpdatedAt = now
	if err := c.update(ctx, server); err != nil {
		return outcome{}, err
	}

	out := applied
	out.kind = outcomeAutoMerged
	return out, nil
}

func (c *Coordinator) conflictOutcome(ec entryChange, server *models.Entry, ancestor string, localDiff, serverDiff textdiff.Result) outcome {
	return outcome{
		kind:     outcomeConflicted,
		changeID: ec.changeID,
		entityID: ec.entityID,
		entity:   EntityEntry,
		conflict: &ConflictDescriptor{
			EntityID:      ec.entityID,
			Entity:        EntityEntry,
			BaseVersion:   ec.baseVersion,
			ServerVersion: server.Version,
			AncestorText:  ancestor,
			LocalContent:  ec.data.RefinedOutput,
			ServerContent: server.RefinedOutput,
			LocalDiff:     localDiff,
			ServerDiff:    serverDiff,
			AutoMergeable: false,
		},
	}
}

func (c *Coordinator) processGoalChange(ctx context.Context, userID uuid.UUID, gc goalChange, now time.Time) (outcome, error) {
	applied := outcome{kind: outcomeApplied, changeID: gc.changeID, entityID: gc.entityID, entity: EntityGoal}
	skip := func(reason string) outcome {
		return outcome{kind: outcomeSkipped, changeID: gc.changeID, entityID: gc.entityID, reason: reason}
	}

	server, err := c.goals.GetByID(ctx, gc.entityID, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return outcome{}, err
	}
	exists := err == nil

	switch gc.typ {
	case ChangeCreate:
		if exists {
			return applied, nil
		}
		goal := &models.Goal{
			ID:          gc.entityID,
			UserID:      userID,
			Category:    gc.data.Category,
			Description: gc.data.Description,
			Active:      gc.data.Active,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := c.goals.Create(ctx, goal); err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				return outcome{}, common.ErrVersionConflict
			}
			return outcome{}, err
		}
		return applied, nil

	case ChangeUpdate:
		if !exists {
			return skip("record not found"), nil
		}
		if !gc.timestamp.After(server.UpdatedAt) {
			// server wins, change is acknowledged so the client dequeues it
			return applied, nil
		}
		server.Category = gc.data.Category
		server.Description = gc.data.Description
		server.Active = gc.data.Active
		server.UpdatedAt = now
		expected := server.Version
		server.Version = expected + 1
		if err := c.goals.Update(ctx, server, expected); err != nil {
			return outcome{}, err
		}
		return applied, nil

	case ChangeDelete:
		if !exists {
			return applied, nil
		}
		if !gc.timestamp.After(server.UpdatedAt) {
			// server mutated after the local delete, server wins
			return applied, nil
		}
		server.Active = false
		server.UpdatedAt = now
		expected := server.Version
		server.Version = expected + 1
		if err := c.goals.Update(ctx, server, expected); err != nil {
			return outcome{}, err
		}
		return applied, nil

	default:
		return skip(fmt.Sprintf("unknown change type %q", gc.typ)), nil
	}
}

// update bumps the entry version optimistically and snapshots the new content.
func (c *Coordinator) update(ctx context.Context, entry *models.Entry) error {
	expected := entry.Version
	entry.Version = expected + 1
	if err := c.entries.Update(ctx, entry, expected); err != nil {
		entry.Version = expected
		return err
	}
	return c.snapshot(ctx, entry)
}

func (c *Coordinator) snapshot(ctx context.Context, entry *models.Entry) error {
	return c.versions.Create(ctx, &models.EntryVersion{
		ID:              uuid.New(),
		EntryID:         entry.ID,
		Version:         entry.Version,
		ContentSnapshot: entry.RefinedOutput,
		CreatedAt:       c.now().UTC(),
	})
}

func applyEntryData(e *models.Entry, d EntryChangeData, now time.Time) {
	e.RefinedOutput = d.RefinedOutput
	applyEntryOpaque(e, d, now)
}

// applyEntryOpaque copies every field except the refined output; these never
// enter the merge engine.
func applyEntryOpaque(e *models.Entry, d EntryChangeData, now time.Time) {
	if d.Date != "" {
		e.Date = d.Date
	}
	if d.Conversations != nil {
		e.Conversations = d.Conversations
	}
	if d.Status != "" {
		e.Status = d.Status
	}
	if d.RelevanceScore != nil {
		e.RelevanceScore = *d.RelevanceScore
	}
	if !d.LastInteractedAt.IsZero() {
		e.LastInteractedAt = d.LastInteractedAt
	}
	if d.InteractionCount != nil {
		e.InteractionCount = *d.InteractionCount
	}
	if d.PendingRefine != nil {
		e.PendingRefine = *d.PendingRefine
	}
	e.UpdatedAt = now
}
