package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is metadata for a binary file stored in object storage and
// linked to an entry. Bytes travel through presigned URLs, never through
// the API server.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	EntryID    uuid.UUID `json:"entry_id"`
	UserID     uuid.UUID `json:"-"`
	FileName   string    `json:"file_name"`
	StorageKey string    `json:"storage_key"`
	Uploaded   bool      `json:"uploaded"`
	CreatedAt  time.Time `json:"created_at"`
}
