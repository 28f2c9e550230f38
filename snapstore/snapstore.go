// Package snapstore defines the byte store the persist package keeps index
// snapshots in between workspace sessions.
//
// Implementations must be byte-for-byte transparent: Get must return exactly
// the []byte previously passed to Put for the same key. A store that
// compresses or otherwise transforms values internally must fully reverse
// the transform, or the snapshot envelope will read as corrupt and be
// deleted.
package snapstore

import (
	"context"
	"time"
)

// Store is a minimal byte store with TTLs. Must be safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// IO or remote errors are returned as (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value with the given TTL (0 means the store's default, or
	// no expiry where supported). ok=false means the store rejected the
	// write under pressure; that is not an error.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Delete removes a key (best-effort).
	Delete(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
