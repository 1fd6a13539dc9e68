// Package cache provides a byte-value cache with per-entry TTL.
// The dialogue session store can run on top of it.
package cache

import (
	"context"
	"time"
)

// CacheService defines the cache service interface.
// An external cache can stand in for the in-process LRU by implementing it.
type CacheService interface {
	// Get retrieves a value from cache.
	// Returns: value, whether it exists
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache.
	// ttl: expiration time, zero for the default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate invalidates cache entries.
	// pattern: an exact key, or a prefix ending in * (session:*)
	Invalidate(ctx context.Context, pattern string) (int, error)
}

// Sweeper is implemented by caches that can drop expired entries on demand.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}
