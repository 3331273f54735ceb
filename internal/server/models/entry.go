// Package models defines the server-side journal records persisted in
// Postgres and exchanged with clients during sync.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Entry status values. Deleting an entry through sync archives it; rows are
// never removed while a device may still hold references.
const (
	EntryStatusActive   = "active"
	EntryStatusArchived = "archived"
)

// Refine lifecycle states for the background LLM rewrite of an entry.
const (
	RefineStatusIdle       = "idle"
	RefineStatusProcessing = "processing"
	RefineStatusCompleted  = "completed"
	RefineStatusFailed     = "failed"
)

// Message is a single utterance inside a conversation.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation groups the messages of one journaling session.
type Conversation struct {
	ID             uuid.UUID  `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	Messages       []Message  `json:"messages"`
	PromptSource   string     `json:"prompt_source"` // "user", "notification" or "continuation"
	NotificationID *uuid.UUID `json:"notification_id,omitempty"`
}

// Entry is a journal entry. RefinedOutput is the only free-text field that
// goes through diff/merge during sync; everything else resolves last-write-wins.
//
// Version starts at 1 and is bumped by exactly 1 on every accepted mutation.
type Entry struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"-"`
	Date             string         `json:"date"` // YYYY-MM-DD
	Conversations    []Conversation `json:"conversations"`
	RefinedOutput    string         `json:"refined_output"`
	RelevanceScore   float64        `json:"relevance_score"`
	LastInteractedAt time.Time      `json:"last_interacted_at"`
	InteractionCount int            `json:"interaction_count"`
	Status           string         `json:"status"`
	PendingRefine    bool           `json:"pending_refine"`
	RefineStatus     string         `json:"refine_status"`
	RefineError      string         `json:"refine_error,omitempty"`
	Version          int64          `json:"version"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// EntryVersion is a content snapshot taken before every accepted entry
// mutation. Snapshots are the ancestor texts for three-way merges.
type EntryVersion struct {
	ID              uuid.UUID `json:"id"`
	EntryID         uuid.UUID `json:"entry_id"`
	Version         int64     `json:"version"`
	ContentSnapshot string    `json:"content_snapshot"`
	CreatedAt       time.Time `json:"created_at"`
}
