package ports

import (
	"context"
	"time"
)

// Cache is a read-through accelerator for aggregate results. Every value is
// derivable by re-querying the database, so implementations may drop entries
// at any time; callers must treat every failure as a miss and fall back to
// direct computation.
type Cache interface {
	// Get returns the cached value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for at most ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete evicts a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
