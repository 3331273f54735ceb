// Package common defines shared constants and sentinel errors used across
// client and server layers of the journal. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")

	// ErrSnapshotMissing is returned when a content snapshot for a requested
	// version is no longer available in history.
	ErrSnapshotMissing = errors.New("version snapshot missing")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")

	// Sync errors.
	ErrMalformedChange = errors.New("malformed pending change")
	ErrNotConflicted   = errors.New("record is not in a conflicted state")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
