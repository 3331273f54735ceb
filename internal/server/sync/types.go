// Package sync reconciles a client's queue of pending offline mutations
// against the versioned server records. Text edits to an entry's refined
// output are three-way merged against the common ancestor snapshot; every
// other field resolves last-write-wins. Overlapping edits surface as
// conflicts that stay pending until the user resolves them.
package sync

import (
	"encoding/json"
	"time"

	"github.com/epicrunze/journal/internal/common"
	"github.com/epicrunze/journal/internal/server/models"
	"github.com/epicrunze/journal/internal/textdiff"
	"github.com/google/uuid"
)

// ChangeType is the mutation kind of a pending change.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Entity kinds a pending change can target.
const (
	EntityEntry = "entry"
	EntityGoal  = "goal"
)

// Resolution choices for a conflicted entry.
const (
	ResolutionLocal  = "local"
	ResolutionServer = "server"
	ResolutionMerged = "merged"
)

// PendingChange is one queued client mutation as it arrives on the wire.
// Data is decoded per entity kind; BaseVersion is meaningful only for entry
// updates (goals carry no diffable text and resolve last-write-wins).
type PendingChange struct {
	ID          uuid.UUID       `json:"id"`
	Type        ChangeType      `json:"type"`
	Entity      string          `json:"entity"`
	EntityID    uuid.UUID       `json:"entity_id"`
	Data        json.RawMessage `json:"data,omitempty"`
	BaseVersion *int64          `json:"base_version,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// EntryChangeData is the proposed entry state carried by an entry change.
// The scalar trackers are pointers so that absence ("field not touched") is
// distinguishable from an explicit reset to zero or false.
type EntryChangeData struct {
	Date             string                `json:"date"`
	RefinedOutput    string                `json:"refined_output"`
	Conversations    []models.Conversation `json:"conversations,omitempty"`
	Status           string                `json:"status,omitempty"`
	RelevanceScore   *float64              `json:"relevance_score,omitempty"`
	LastInteractedAt time.Time             `json:"last_interacted_at"`
	InteractionCount *int                  `json:"interaction_count,omitempty"`
	PendingRefine    *bool                 `json:"pending_refine,omitempty"`
}

// GoalChangeData is the proposed goal state carried by a goal change.
type GoalChangeData struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// entryChange and goalChange are the decoded variants of PendingChange. Only
// the entry variant can carry a base version, so a goal change cannot reach
// the merge path even by accident.
type entryChange struct {
	changeID    uuid.UUID
	typ         ChangeType
	entityID    uuid.UUID
	data        EntryChangeData
	baseVersion int64
	hasBase     bool
	timestamp   time.Time
}

type goalChange struct {
	changeID  uuid.UUID
	typ       ChangeType
	entityID  uuid.UUID
	data      GoalChangeData
	timestamp time.Time
}

// SyncRequest is the sync entrypoint input. BaseVersions supplements changes
// whose own base_version field is unset.
type SyncRequest struct {
	LastSyncedAt   *time.Time       `json:"last_synced_at,omitempty"`
	PendingChanges []PendingChange  `json:"pending_changes"`
	BaseVersions   map[string]int64 `json:"base_versions,omitempty"`
}

// SkippedChange reports a malformed change that was dropped from the batch.
type SkippedChange struct {
	ChangeID uuid.UUID `json:"change_id"`
	Reason   string    `json:"reason"`
}

// ConflictDescriptor describes an entry whose local and server edits overlap.
// Both edit scripts are relative to the shared ancestor text, so the client
// can render the competing regions. It is not persisted; the conflict itself
// lives in the still-queued pending change.
type ConflictDescriptor struct {
	EntityID      uuid.UUID       `json:"entity_id"`
	Entity        string          `json:"entity"`
	BaseVersion   int64           `json:"base_version"`
	ServerVersion int64           `json:"server_version"`
	AncestorText  string          `json:"ancestor_text"`
	LocalContent  string          `json:"local_content"`
	ServerContent string          `json:"server_content"`
	LocalDiff     textdiff.Result `json:"local_diff"`
	ServerDiff    textdiff.Result `json:"server_diff"`
	AutoMergeable bool            `json:"auto_mergeable"`
}

// ServerChanges is the pull side of a sync response.
type ServerChanges struct {
	Entries []*models.Entry `json:"entries"`
	Goals   []*models.Goal  `json:"goals"`
}

// SyncResponse is the sync entrypoint output. Applied lists every change id
// the client may dequeue, including auto-merged ones and last-write-wins
// losses (the authoritative record arrives via ServerChanges).
type SyncResponse struct {
	Applied       []uuid.UUID          `json:"applied"`
	AutoMerged    []uuid.UUID          `json:"auto_merged"`
	Skipped       []SkippedChange      `json:"skipped"`
	Conflicts     []ConflictDescriptor `json:"conflicts"`
	ServerChanges ServerChanges        `json:"server_changes"`
	SyncTimestamp time.Time            `json:"sync_timestamp"`
}

// ResolveRequest is the conflict resolution entrypoint input. Content carries
// the client's text for local and merged resolutions.
type ResolveRequest struct {
	EntityID   uuid.UUID `json:"entity_id"`
	Resolution string    `json:"resolution"`
	Content    string    `json:"content,omitempty"`
}

func decodeEntryChange(c PendingChange, baseVersions map[string]int64) (entryChange, error) {
	ec := entryChange{
		changeID:  c.ID,
		typ:       c.Type,
		entityID:  c.EntityID,
		timestamp: c.Timestamp,
	}
	if c.EntityID == uuid.Nil {
		return ec, common.ErrMalformedChange
	}
	if c.Type == ChangeCreate || c.Type == ChangeUpdate {
		if len(c.Data) == 0 {
			return ec, common.ErrMalformedChange
		}
		if err := json.Unmarshal(c.Data, &ec.data); err != nil {
			return ec, common.ErrMalformedChange
		}
	}
	if c.BaseVersion != nil {
		ec.baseVersion = *c.BaseVersion
		ec.hasBase = true
	} else if v, ok := baseVersions[c.EntityID.String()]; ok {
		ec.baseVersion = v
		ec.hasBase = true
	}
	if c.Type == ChangeUpdate && !ec.hasBase {
		return ec, common.ErrMalformedChange
	}
	return ec, nil
}

func decodeGoalChange(c PendingChange) (goalChange, error) {
	gc := goalChange{
		changeID:  c.ID,
		typ:       c.Type,
		entityID:  c.EntityID,
		timestamp: c.Timestamp,
	}
	if c.EntityID == uuid.Nil {
		return gc, common.ErrMalformedChange
	}
	if c.Type == ChangeCreate || c.Type == ChangeUpdate {
		if len(c.Data) == 0 {
			return gc, common.ErrMalformedChange
		}
		if err := json.Unmarshal(c.Data, &gc.data); err != nil {
			return gc, common.ErrMalformedChange
		}
	}
	return gc, nil
}
