package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered journal owner.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// RefreshToken is a server-stored, rotating refresh token.
type RefreshToken struct {
	UserID  uuid.UUID
	Token   string
	Expires time.Time
}
