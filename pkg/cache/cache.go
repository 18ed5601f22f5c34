// Package cache stores computed layouts and rendered diagrams.
//
// Three backends share the [Cache] interface:
//
//   - [NullCache]: stores nothing, for tests and when caching is disabled
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [RedisCache]: shared cache for server deployments
//
// Keys are derived by a [Keyer] from a content hash of the tree, so any edit
// to a tree yields new keys and stale entries simply age out.
package cache

import (
	"context"
	"time"
)

// Default lifetimes of cached entries.
const (
	TTLLayout  = 24 * time.Hour
	TTLDiagram = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the cached value and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}
