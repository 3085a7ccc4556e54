// Package cache provides the key/value store interface and a manager that
// resolves logical backend roles ("default", "karma", "helpfulvotes") to
// connected stores.
package cache

import (
	"context"
	"time"
)

// Cache defines the core interface for cache operations.
// All implementations must be thread-safe and context-aware.
type Cache interface {
	// Get retrieves a value from the cache by key.
	// Returns ErrNotFound if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the specified TTL.
	// If ttl is 0, the value is stored without expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	// Returns nil if the key doesn't exist (idempotent operation).
	Delete(ctx context.Context, key string) error

	// Incr atomically adds delta to the integer stored at key and returns
	// the new value. Missing keys start at 0. Counters such as karma points
	// and helpful votes are kept this way.
	Incr(ctx context.Context, key string, delta int64) (int64, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error

	// Close releases the connection. Operations after Close return ErrClosed.
	Close() error
}

// Connector creates a connected Cache for a backend URL.
type Connector func(ctx context.Context, url string) (Cache, error)
