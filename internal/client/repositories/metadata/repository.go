package metadata

import (
	"context"
)

// Repository is a small key/value store used for client state that is not a
// record: auth tokens, the last sync timestamp, the logged-in user.
type Repository interface {
	// Get returns the stored value, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
