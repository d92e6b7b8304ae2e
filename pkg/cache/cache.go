// Package cache stores pipeline results keyed by content hashes.
//
// Three backends share the [Cache] interface: [FileCache] for the CLI,
// [RedisCache] for the HTTP server, and [NullCache] when caching is off.
// Keys come from a [Keyer] so that stacked series, layouts, and rendered
// artifacts of the same input never collide.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default lifetimes per cached stage.
const (
	TTLStack    = 7 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 30 * 24 * time.Hour
)
