package sync

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/logging"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = uuid.New()

func newTestCoordinator() (*Coordinator, *fakeEntryRepo, *fakeVersionRepo, *fakeGoalRepo) {
	entryRepo := newFakeEntryRepo()
	versionRepo := newFakeVersionRepo()
	goalRepo := newFakeGoalRepo()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return NewCoordinator(entryRepo, versionRepo, goalRepo, logger), entryRepo, versionRepo, goalRepo
}

// seedEntry installs an entry at the given version together with content
// snapshots for every version in history (oldest first, ending at the
// current content).
func seedEntry(entryRepo *fakeEntryRepo, versionRepo *fakeVersionRepo, id uuid.UUID, version int64, updatedAt time.Time, history ...string) {
	entryRepo.records[id] = &models.Entry{
		ID:            id,
		UserID:        testUser,
		Date:          "2026-08-30",
		RefinedOutput: history[len(history)-1],
		Status:        models.EntryStatusActive,
		Version:       version,
		CreatedAt:     updatedAt.Add(-time.Hour),
		UpdatedAt:     updatedAt,
	}
	versionRepo.snapshots[id] = map[int64]string{}
	for i, content := range history {
		v := version - int64(len(history)-1-i)
		versionRepo.snapshots[id][v] = content
	}
}

func entryUpdate(entityID uuid.UUID, base int64, content string, ts time.Time) PendingChange {
	data, _ := json.Marshal(EntryChangeData{Date: "2026-08-30", RefinedOutput: content})
	return PendingChange{
		ID:          uuid.New(),
		Type:        ChangeUpdate,
		Entity:      EntityEntry,
		EntityID:    entityID,
		Data:        data,
		BaseVersion: &base,
		Timestamp:   ts,
	}
}

func TestSync_DirectApply(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 3, base, "v1", "v2", "Hello world")

	change := entryUpdate(entryID, 3, "Hello there world", base.Add(time.Minute))
	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)
	assert.Empty(t, resp.Conflicts)
	assert.Empty(t, resp.Skipped)

	got := entryRepo.records[entryID]
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, "Hello there world", got.RefinedOutput)
	assert.Equal(t, "Hello there world", versionRepo.snapshots[entryID][4])

	// the bumped record comes back via pull so the client can anchor its
	// next edit on version 4
	require.Len(t, resp.ServerChanges.Entries, 1)
	assert.Equal(t, int64(4), resp.ServerChanges.Entries[0].Version)
	assert.Equal(t, "Hello there world", resp.ServerChanges.Entries[0].RefinedOutput)
}

func TestSync_AutoMerge(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	// v3 is the shared ancestor; the server has since edited the second half.
	seedEntry(entryRepo, versionRepo, entryID, 4, base,
		"Paragraph1. Paragraph2.", "Paragraph1. ParagraphTWO.")

	change := entryUpdate(entryID, 3, "ParagraphONE. Paragraph2.", base.Add(time.Minute))
	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)
	assert.Equal(t, []uuid.UUID{change.ID}, resp.AutoMerged)
	assert.Empty(t, resp.Conflicts)

	got := entryRepo.records[entryID]
	assert.Equal(t, int64(5), got.Version)
	assert.Equal(t, "ParagraphONE. ParagraphTWO.", got.RefinedOutput)

	// merged content is news to the client, it must arrive via pull
	require.Len(t, resp.ServerChanges.Entries, 1)
	assert.Equal(t, "ParagraphONE. ParagraphTWO.", resp.ServerChanges.Entries[0].RefinedOutput)
}

func TestSync_Conflict(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	// both sides rewrote the same word of the first paragraph
	seedEntry(entryRepo, versionRepo, entryID, 4, base,
		"Paragraph1. Paragraph2.", "ParagraphSERVER. Paragraph2.")

	change := entryUpdate(entryID, 3, "ParagraphLOCAL. Paragraph2.", base.Add(time.Minute))
	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
	require.NoError(t, err)

	assert.Empty(t, resp.Applied)
	require.Len(t, resp.Conflicts, 1)

	conflict := resp.Conflicts[0]
	assert.Equal(t, entryID, conflict.EntityID)
	assert.False(t, conflict.AutoMergeable)
	assert.Equal(t, int64(3), conflict.BaseVersion)
	assert.Equal(t, int64(4), conflict.ServerVersion)
	assert.Equal(t, "Paragraph1. Paragraph2.", conflict.AncestorText)
	assert.Equal(t, "ParagraphLOCAL. Paragraph2.", conflict.LocalContent)
	assert.Equal(t, "ParagraphSERVER. Paragraph2.", conflict.ServerContent)

	// record untouched until the user decides
	got := entryRepo.records[entryID]
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, "ParagraphSERVER. Paragraph2.", got.RefinedOutput)
	assert.Empty(t, resp.ServerChanges.Entries)
}

func TestResolve(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	t.Run("local force-applies the client text", func(t *testing.T) {
		coord, entryRepo, versionRepo, _ := newTestCoordinator()
		entryID := uuid.New()
		seedEntry(entryRepo, versionRepo, entryID, 4,
			base, "Paragraph1. Paragraph2.", "ParagraphSERVER. Paragraph2.")

		resolved, err := coord.Resolve(context.Background(), testUser, ResolveRequest{
			EntityID:   entryID,
			Resolution: ResolutionLocal,
			Content:    "ParagraphLOCAL. Paragraph2.",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), resolved.Version)
		assert.Equal(t, "ParagraphLOCAL. Paragraph2.", resolved.RefinedOutput)
		assert.Equal(t, "ParagraphLOCAL. Paragraph2.", versionRepo.snapshots[entryID][5])
	})

	t.Run("server keeps the server text but still bumps", func(t *testing.T) {
		coord, entryRepo, versionRepo, _ := newTestCoordinator()
		entryID := uuid.New()
		seedEntry(entryRepo, versionRepo, entryID, 4,
			base, "Paragraph1. Paragraph2.", "ParagraphSERVER. Paragraph2.")

		resolved, err := coord.Resolve(context.Background(), testUser, ResolveRequest{
			EntityID:   entryID,
			Resolution: ResolutionServer,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), resolved.Version)
		assert.Equal(t, "ParagraphSERVER. Paragraph2.", resolved.RefinedOutput)
	})

	t.Run("merged applies caller-supplied text", func(t *testing.T) {
		coord, entryRepo, versionRepo, _ := newTestCoordinator()
		entryID := uuid.New()
		seedEntry(entryRepo, versionRepo, entryID, 4,
			base, "Paragraph1. Paragraph2.", "ParagraphSERVER. Paragraph2.")

		resolved, err := coord.Resolve(context.Background(), testUser, ResolveRequest{
			EntityID:   entryID,
			Resolution: ResolutionMerged,
			Content:    "ParagraphBOTH. Paragraph2.",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), resolved.Version)
		assert.Equal(t, "ParagraphBOTH. Paragraph2.", resolved.RefinedOutput)
	})

	t.Run("unknown resolution rejected", func(t *testing.T) {
		coord, _, _, _ := newTestCoordinator()
		_, err := coord.Resolve(context.Background(), testUser, ResolveRequest{
			EntityID:   uuid.New(),
			Resolution: "split-the-difference",
		})
		assert.ErrorIs(t, err, common.ErrValidation)
	})
}

func TestSync_Idempotence(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 3, base, "v1", "v2", "Hello world")

	change := entryUpdate(entryID, 3, "Hello there world", base.Add(time.Minute))
	first, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
	require.NoError(t, err)
	require.Len(t, first.Applied, 1)
	writesAfterFirst := entryRepo.updateCalls

	// queue cleared per the applied list; second round carries nothing
	second, err := coord.Sync(context.Background(), testUser, SyncRequest{
		LastSyncedAt: &first.SyncTimestamp,
	})
	require.NoError(t, err)
	assert.Empty(t, second.Applied)
	assert.Empty(t, second.Conflicts)
	assert.Equal(t, int64(4), entryRepo.records[entryID].Version)
	assert.Equal(t, writesAfterFirst, entryRepo.updateCalls)
}

func TestSync_ReplayedBatch(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 3, base, "v1", "v2", "Hello world")

	change := entryUpdate(entryID, 3, "Hello there world", base.Add(time.Minute))
	req := SyncRequest{PendingChanges: []PendingChange{change}}

	first, err := coord.Sync(context.Background(), testUser, req)
	require.NoError(t, err)
	require.Len(t, first.Applied, 1)

	// response lost, whole batch retried as-is
	second, err := coord.Sync(context.Background(), testUser, req)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{change.ID}, second.Applied)
	assert.Empty(t, second.Conflicts)
	assert.Equal(t, int64(4), entryRepo.records[entryID].Version, "replay must not bump again")
}

func TestSync_CoalescesSameEntity(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 3, base, "v1", "v2", "draft one")

	// two offline edits to the same entry: the later text wins, the earlier
	// base version anchors the merge
	older := entryUpdate(entryID, 3, "draft two", base.Add(time.Minute))
	newer := entryUpdate(entryID, 4, "draft three", base.Add(2*time.Minute))

	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{older, newer}})
	require.NoError(t, err)

	// both queue rows are acknowledged even though only one write happened,
	// otherwise the absorbed row would sit in the client queue forever
	assert.Equal(t, []uuid.UUID{older.ID, newer.ID}, resp.Applied)
	got := entryRepo.records[entryID]
	assert.Equal(t, int64(4), got.Version, "one coalesced change, one bump")
	assert.Equal(t, "draft three", got.RefinedOutput)
}

func TestCoalesce_CreateThenUpdateStaysCreate(t *testing.T) {
	entityID := uuid.New()
	data, _ := json.Marshal(EntryChangeData{RefinedOutput: "final"})
	create := PendingChange{ID: uuid.New(), Type: ChangeCreate, Entity: EntityEntry, EntityID: entityID, Data: data}
	update := PendingChange{ID: uuid.New(), Type: ChangeUpdate, Entity: EntityEntry, EntityID: entityID, Data: data}

	out := coalesce([]PendingChange{create, update})
	require.Len(t, out, 1)
	assert.Equal(t, ChangeCreate, out[0].Type)
	assert.Equal(t, update.ID, out[0].ID)
	assert.Equal(t, []uuid.UUID{create.ID}, out[0].absorbed)
}

func TestSync_MalformedChangeSkipped(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 3, base, "v1", "v2", "Hello world")

	malformed := PendingChange{
		ID:       uuid.New(),
		Type:     ChangeUpdate,
		Entity:   EntityEntry,
		EntityID: uuid.New(),
		// no data, no base version
	}
	valid := entryUpdate(entryID, 3, "Hello there world", base.Add(time.Minute))

	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{malformed, valid}})
	require.NoError(t, err)

	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, malformed.ID, resp.Skipped[0].ChangeID)
	assert.Equal(t, []uuid.UUID{valid.ID}, resp.Applied, "batch continues past a malformed change")
}

func TestSync_AncestorMissingIsUnconditionalConflict(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	// history only covers v4; the client branched from long-gone v1
	seedEntry(entryRepo, versionRepo, entryID, 4, base, "current server text")

	change := entryUpdate(entryID, 1, "text from an ancient base", base.Add(time.Minute))
	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
	require.NoError(t, err)

	assert.Empty(t, resp.Applied)
	require.Len(t, resp.Conflicts, 1)
	assert.False(t, resp.Conflicts[0].AutoMergeable)
	assert.Empty(t, resp.Conflicts[0].AncestorText)
	assert.Equal(t, int64(4), entryRepo.records[entryID].Version)
}

func TestSync_RetryReclassifiesOnVersionConflict(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 3, base, "v1", "v2", "Hello world")
	entryRepo.failUpdates = 1 // concurrent device steals the first write

	change := entryUpdate(entryID, 3, "Hello there world", base.Add(time.Minute))
	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)
	assert.Equal(t, int64(4), entryRepo.records[entryID].Version)
	assert.Equal(t, 2, entryRepo.updateCalls, "lost write reruns the classification")
}

func TestSync_DeleteArchives(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 2, base, "v1", "some text")

	t.Run("newer local delete archives", func(t *testing.T) {
		change := PendingChange{
			ID: uuid.New(), Type: ChangeDelete, Entity: EntityEntry,
			EntityID: entryID, Timestamp: base.Add(time.Minute),
		}
		resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)

		got := entryRepo.records[entryID]
		assert.Equal(t, models.EntryStatusArchived, got.Status)
		assert.Equal(t, int64(3), got.Version)
	})

	t.Run("stale delete loses to newer server write", func(t *testing.T) {
		stale := PendingChange{
			ID: uuid.New(), Type: ChangeDelete, Entity: EntityEntry,
			EntityID: entryID, Timestamp: base.Add(-time.Hour),
		}
		resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{stale}})
		require.NoError(t, err)
		// acknowledged so the client dequeues, but nothing changed
		assert.Equal(t, []uuid.UUID{stale.ID}, resp.Applied)
		assert.Equal(t, int64(3), entryRepo.records[entryID].Version)
	})
}

func TestSync_GoalLastWriteWins(t *testing.T) {
	coord, _, _, goalRepo := newTestCoordinator()
	goalID := uuid.New()
	serverTime := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	goalRepo.records[goalID] = &models.Goal{
		ID: goalID, UserID: testUser,
		Category: "health", Description: "run weekly", Active: true,
		Version: 1, CreatedAt: serverTime.Add(-time.Hour), UpdatedAt: serverTime,
	}

	goalUpdate := func(desc string, ts time.Time) PendingChange {
		data, _ := json.Marshal(GoalChangeData{Category: "health", Description: desc, Active: true})
		return PendingChange{
			ID: uuid.New(), Type: ChangeUpdate, Entity: EntityGoal,
			EntityID: goalID, Data: data, Timestamp: ts,
		}
	}

	t.Run("older client edit loses but is acknowledged", func(t *testing.T) {
		change := goalUpdate("run daily", serverTime.Add(-time.Minute))
		resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)
		assert.Equal(t, "run weekly", goalRepo.records[goalID].Description)
		assert.Equal(t, int64(1), goalRepo.records[goalID].Version)
	})

	t.Run("equal timestamps favor the server", func(t *testing.T) {
		change := goalUpdate("run daily", serverTime)
		resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)
		assert.Equal(t, "run weekly", goalRepo.records[goalID].Description)
	})

	t.Run("newer client edit wins", func(t *testing.T) {
		change := goalUpdate("run daily", serverTime.Add(time.Minute))
		resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)
		assert.Equal(t, "run daily", goalRepo.records[goalID].Description)
		assert.Equal(t, int64(2), goalRepo.records[goalID].Version)
	})
}

func TestSync_CreateEntry(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entityID := uuid.New()
	data, _ := json.Marshal(EntryChangeData{Date: "2026-08-31", RefinedOutput: "fresh entry"})
	change := PendingChange{
		ID: uuid.New(), Type: ChangeCreate, Entity: EntityEntry,
		EntityID: entityID, Data: data, Timestamp: time.Now(),
	}

	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)
	got := entryRepo.records[entityID]
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "fresh entry", got.RefinedOutput)
	assert.Equal(t, "fresh entry", versionRepo.snapshots[entityID][1])
}

func TestSync_AppliedVersionAnchorsNextEdit(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 3, base, "v1", "v2", "Hello world")

	first, err := coord.Sync(context.Background(), testUser, SyncRequest{
		PendingChanges: []PendingChange{entryUpdate(entryID, 3, "Hello brave world", base.Add(time.Minute))},
	})
	require.NoError(t, err)
	require.Len(t, first.Applied, 1)
	require.Len(t, first.ServerChanges.Entries, 1)
	pulled := first.ServerChanges.Entries[0]
	require.Equal(t, int64(4), pulled.Version)

	// the follow-up edit branches from the pulled version, so it applies
	// directly instead of being re-merged against the pre-apply base
	second, err := coord.Sync(context.Background(), testUser, SyncRequest{
		PendingChanges: []PendingChange{entryUpdate(entryID, pulled.Version, "Hello brave world indeed", base.Add(2*time.Minute))},
		LastSyncedAt:   &first.SyncTimestamp,
	})
	require.NoError(t, err)
	assert.Len(t, second.Applied, 1)
	assert.Empty(t, second.AutoMerged)
	assert.Empty(t, second.Conflicts)
	assert.Equal(t, "Hello brave world indeed", entryRepo.records[entryID].RefinedOutput)
	assert.Equal(t, int64(5), entryRepo.records[entryID].Version)
}

func TestSync_GoalDeleteArchives(t *testing.T) {
	coord, _, _, goalRepo := newTestCoordinator()
	goalID := uuid.New()
	serverTime := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	goalRepo.records[goalID] = &models.Goal{
		ID: goalID, UserID: testUser,
		Category: "health", Description: "run weekly", Active: true,
		Version: 1, CreatedAt: serverTime.Add(-time.Hour), UpdatedAt: serverTime,
	}

	t.Run("stale delete loses to newer server write", func(t *testing.T) {
		stale := PendingChange{
			ID: uuid.New(), Type: ChangeDelete, Entity: EntityGoal,
			EntityID: goalID, Timestamp: serverTime.Add(-time.Minute),
		}
		resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{stale}})
		require.NoError(t, err)
		// acknowledged so the client dequeues, but the goal survives
		assert.Equal(t, []uuid.UUID{stale.ID}, resp.Applied)
		assert.True(t, goalRepo.records[goalID].Active)
		assert.Equal(t, int64(1), goalRepo.records[goalID].Version)
	})

	t.Run("newer delete deactivates and bumps", func(t *testing.T) {
		change := PendingChange{
			ID: uuid.New(), Type: ChangeDelete, Entity: EntityGoal,
			EntityID: goalID, Timestamp: serverTime.Add(time.Minute),
		}
		resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)

		got := goalRepo.records[goalID]
		require.NotNil(t, got, "delete via sync deactivates, it never drops the row")
		assert.False(t, got.Active)
		assert.Equal(t, int64(2), got.Version)
	})
}

func TestSync_LastWriteWinsLoserPullsWinner(t *testing.T) {
	coord, _, _, goalRepo := newTestCoordinator()
	goalID := uuid.New()
	lastSync := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	// another device edited the goal after this client's last sync
	serverTime := lastSync.Add(30 * time.Minute)
	goalRepo.records[goalID] = &models.Goal{
		ID: goalID, UserID: testUser,
		Category: "health", Description: "run weekly", Active: true,
		Version: 2, CreatedAt: lastSync.Add(-time.Hour), UpdatedAt: serverTime,
	}

	data, _ := json.Marshal(GoalChangeData{Category: "health", Description: "run daily", Active: true})
	change := PendingChange{
		ID: uuid.New(), Type: ChangeUpdate, Entity: EntityGoal,
		EntityID: goalID, Data: data, Timestamp: serverTime.Add(-time.Minute),
	}

	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{
		PendingChanges: []PendingChange{change},
		LastSyncedAt:   &lastSync,
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)
	// the losing change is settled, and the winning record arrives via pull
	// so the client converges on it
	require.Len(t, resp.ServerChanges.Goals, 1)
	assert.Equal(t, "run weekly", resp.ServerChanges.Goals[0].Description)
	assert.Equal(t, int64(2), resp.ServerChanges.Goals[0].Version)
}

func TestSync_OpaqueFieldsResetToZero(t *testing.T) {
	coord, entryRepo, versionRepo, _ := newTestCoordinator()
	entryID := uuid.New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	seedEntry(entryRepo, versionRepo, entryID, 2, base, "v1", "some text")
	entryRepo.records[entryID].RelevanceScore = 0.8
	entryRepo.records[entryID].InteractionCount = 5
	entryRepo.records[entryID].PendingRefine = true

	score := 0.0
	count := 0
	refine := false
	data, _ := json.Marshal(EntryChangeData{
		Date: "2026-08-30", RefinedOutput: "some text",
		RelevanceScore: &score, InteractionCount: &count, PendingRefine: &refine,
	})
	baseVersion := int64(2)
	change := PendingChange{
		ID: uuid.New(), Type: ChangeUpdate, Entity: EntityEntry,
		EntityID: entryID, Data: data, BaseVersion: &baseVersion,
		Timestamp: base.Add(time.Minute),
	}

	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{PendingChanges: []PendingChange{change}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{change.ID}, resp.Applied)

	got := entryRepo.records[entryID]
	assert.Zero(t, got.RelevanceScore)
	assert.Zero(t, got.InteractionCount)
	assert.False(t, got.PendingRefine)
}

func TestSync_PullSideHonorsLastSyncedAt(t *testing.T) {
	coord, entryRepo, versionRepo, goalRepo := newTestCoordinator()
	cutoff := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	oldEntry := uuid.New()
	newEntry := uuid.New()
	seedEntry(entryRepo, versionRepo, oldEntry, 1, cutoff.Add(-time.Hour), "old")
	seedEntry(entryRepo, versionRepo, newEntry, 1, cutoff.Add(time.Hour), "new")
	goalID := uuid.New()
	goalRepo.records[goalID] = &models.Goal{
		ID: goalID, UserID: testUser, Category: "skills",
		Description: "learn piano", Active: true, Version: 1,
		UpdatedAt: cutoff.Add(time.Hour),
	}

	resp, err := coord.Sync(context.Background(), testUser, SyncRequest{LastSyncedAt: &cutoff})
	require.NoError(t, err)

	require.Len(t, resp.ServerChanges.Entries, 1)
	assert.Equal(t, newEntry, resp.ServerChanges.Entries[0].ID)
	assert.Len(t, resp.ServerChanges.Goals, 1)
}
