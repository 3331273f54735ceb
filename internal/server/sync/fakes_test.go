package sync

import (
	"context"
	"sync"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/epicrunze/journal/internal/server/repositories/entries"
	"github.com/google/uuid"
)

// In-memory repositories used to drive the coordinator through full
// apply/merge/conflict cycles without a database.

type fakeEntryRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.Entry

	// failUpdates makes the next n Update calls lose the optimistic write,
	// simulating a concurrent device racing this batch.
	failUpdates int
	updateCalls int
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{records: map[uuid.UUID]*models.Entry{}}
}

func (r *fakeEntryRepo) GetByID(_ context.Context, id, userID uuid.UUID) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.records[id]
	if !ok || e.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEntryRepo) Create(_ context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[entry.ID]; ok {
		return common.ErrAlreadyExists
	}
	cp := *entry
	r.records[entry.ID] = &cp
	return nil
}

func (r *fakeEntryRepo) Update(_ context.Context, entry *models.Entry, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.failUpdates > 0 {
		r.failUpdates--
		return common.ErrVersionConflict
	}
	cur, ok := r.records[entry.ID]
	if !ok {
		return common.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return common.ErrVersionConflict
	}
	cp := *entry
	r.records[entry.ID] = &cp
	return nil
}

func (r *fakeEntryRepo) List(_ context.Context, userID uuid.UUID, _ entries.ListFilter) ([]*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Entry
	for _, e := range r.records {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) ListChangedSince(_ context.Context, userID uuid.UUID, since *time.Time) ([]*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Entry
	for _, e := range r.records {
		if e.UserID != userID {
			continue
		}
		if since != nil && !e.UpdatedAt.After(*since) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

type fakeVersionRepo struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]map[int64]string
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{snapshots: map[uuid.UUID]map[int64]string{}}
}

func (r *fakeVersionRepo) Create(_ context.Context, v *models.EntryVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshots[v.EntryID] == nil {
		r.snapshots[v.EntryID] = map[int64]string{}
	}
	if _, ok := r.snapshots[v.EntryID][v.Version]; ok {
		return nil // mirrors ON CONFLICT DO NOTHING
	}
	r.snapshots[v.EntryID][v.Version] = v.ContentSnapshot
	return nil
}

func (r *fakeVersionRepo) SnapshotAt(_ context.Context, entryID uuid.UUID, version int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.snapshots[entryID][version]
	if !ok {
		return "", common.ErrSnapshotMissing
	}
	return content, nil
}

func (r *fakeVersionRepo) ListByEntry(_ context.Context, entryID uuid.UUID) ([]*models.EntryVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.EntryVersion
	for v, content := range r.snapshots[entryID] {
		out = append(out, &models.EntryVersion{EntryID: entryID, Version: v, ContentSnapshot: content})
	}
	return out, nil
}

type fakeGoalRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.Goal
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{records: map[uuid.UUID]*models.Goal{}}
}

func (r *fakeGoalRepo) GetByID(_ context.Context, id, userID uuid.UUID) (*models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.records[id]
	if !ok || g.UserID != userID {
		return nil, common.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *fakeGoalRepo) Create(_ context.Context, goal *models.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[goal.ID]; ok {
		return common.ErrAlreadyExists
	}
	cp := *goal
	r.records[goal.ID] = &cp
	return nil
}

func (r *fakeGoalRepo) Update(_ context.Context, goal *models.Goal, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.records[goal.ID]
	if !ok {
		return common.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return common.ErrVersionConflict
	}
	cp := *goal
	r.records[goal.ID] = &cp
	return nil
}

func (r *fakeGoalRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.records[id]
	if !ok || g.UserID != userID {
		return common.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeGoalRepo) List(_ context.Context, userID uuid.UUID, activeOnly bool) ([]*models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Goal
	for _, g := range r.records {
		if g.UserID != userID {
			continue
		}
		if activeOnly && !g.Active {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeGoalRepo) ListChangedSince(_ context.Context, userID uuid.UUID, since *time.Time) ([]*models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Goal
	for _, g := range r.records {
		if g.UserID != userID {
			continue
		}
		if since != nil && !g.UpdatedAt.After(*since) {
			continue
		}
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}
