// Package models defines the client-side rows stored in the local SQLite
// database: cached entries and goals, the pending-change queue, and
// unresolved conflicts.
package models

import (
	"encoding/json"
	"time"

	"github.com/epicrunze/journal/internal/server/models"
	syncapi "github.com/epicrunze/journal/internal/server/sync"
	"github.com/google/uuid"
)

// Entry is the local cache of a server entry. Version is the latest
// server-acknowledged version; local edits queue a pending change instead of
// touching it.
type Entry struct {
	ID               uuid.UUID
	Date             string
	Conversations    []models.Conversation
	RefinedOutput    string
	RelevanceScore   float64
	LastInteractedAt time.Time
	InteractionCount int
	Status           string
	PendingRefine    bool
	RefineStatus     string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SyncedAt         *time.Time
}

// Goal is the local cache of a server goal.
type Goal struct {
	ID          uuid.UUID
	Category    string
	Description string
	Active      bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PendingChange is one queued offline mutation. Rows are appended in causal
// order and removed only after the server acknowledges the change id in a
// sync response. Position is assigned by the database and orders the queue.
type PendingChange struct {
	ID          uuid.UUID
	Position    int64
	Entity      string
	Type        syncapi.ChangeType
	EntityID    uuid.UUID
	Data        json.RawMessage
	BaseVersion *int64
	Timestamp   time.Time
}

// Wire converts the queued row into its sync request form.
func (c *PendingChange) Wire() syncapi.PendingChange {
	return syncapi.PendingChange{
		ID:          c.ID,
		Type:        c.Type,
		Entity:      c.Entity,
		EntityID:    c.EntityID,
		Data:        c.Data,
		BaseVersion: c.BaseVersion,
		Timestamp:   c.Timestamp,
	}
}

// NewEntryCreateChange queues the creation of a new entry.
func NewEntryCreateChange(entityID uuid.UUID, data syncapi.EntryChangeData) (*PendingChange, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &PendingChange{
		ID:        uuid.New(),
		Entity:    syncapi.EntityEntry,
		Type:      syncapi.ChangeCreate,
		EntityID:  entityID,
		Data:      raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewEntryUpdateChange queues an entry edit. baseVersion must be the version
// observed at the moment of the edit, not at flush time; it anchors the
// server-side merge.
func NewEntryUpdateChange(entityID uuid.UUID, data syncapi.EntryChangeData, baseVersion int64) (*PendingChange, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &PendingChange{
		ID:          uuid.New(),
		Entity:      syncapi.EntityEntry,
		Type:        syncapi.ChangeUpdate,
		EntityID:    entityID,
		Data:        raw,
		BaseVersion: &baseVersion,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// NewEntryDeleteChange queues an entry archival.
func NewEntryDeleteChange(entityID uuid.UUID) *PendingChange {
	return &PendingChange{
		ID:        uuid.New(),
		Entity:    syncapi.EntityEntry,
		Type:      syncapi.ChangeDelete,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// NewGoalChange queues a goal mutation. Goals carry no diffable text, so no
// constructor accepts a base version: they resolve last-write-wins by
// timestamp on the server.
func NewGoalChange(typ syncapi.ChangeType, entityID uuid.UUID, data *syncapi.GoalChangeData) (*PendingChange, error) {
	c := &PendingChange{
		ID:        uuid.New(),
		Entity:    syncapi.EntityGoal,
		Type:      typ,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		c.Data = raw
	}
	return c, nil
}

// Conflict is an unresolved sync conflict persisted locally, so it survives
// restarts until the user settles it.
type Conflict struct {
	EntityID      uuid.UUID
	Entity        string
	BaseVersion   int64
	ServerVersion int64
	AncestorText  string
	LocalContent  string
	ServerContent string
	DetectedAt    time.Time
}
