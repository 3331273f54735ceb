package models

import (
	"time"

	"github.com/google/uuid"
)

// Goal is a user objective. Goals carry only discrete fields, so sync
// resolves them last-write-wins; they never enter the merge engine.
type Goal struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	Category    string    `json:"category"` // "health", "productivity", "skills" or custom
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
