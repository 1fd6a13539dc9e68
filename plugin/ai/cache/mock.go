package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMockUnavailable is returned by MockCacheService when Fail is set.
var ErrMockUnavailable = errors.New("cache unavailable")

// MockCacheService is an unbounded CacheService for testing. It records TTLs
// and can be told to fail writes.
type MockCacheService struct {
	mu   sync.Mutex
	lru  *LRUCache
	ttls map[string]time.Duration

	// Fail makes Set return ErrMockUnavailable.
	Fail bool
}

// NewMockCacheService creates a new MockCacheService.
func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		lru:  NewLRUCache(1<<20, time.Hour),
		ttls: make(map[string]time.Duration),
	}
}

// SetClock replaces the clock used for expiry.
func (m *MockCacheService) SetClock(now func() time.Time) {
	m.lru.now = now
}

// Get retrieves a value from cache.
func (m *MockCacheService) Get(_ context.Context, key string) ([]byte, bool) {
	return m.lru.Get(key)
}

// Set stores a value in cache.
func (m *MockCacheService) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return ErrMockUnavailable
	}
	m.ttls[key] = ttl
	m.lru.Set(key, value, ttl)
	return nil
}

// Invalidate invalidates cache entries.
func (m *MockCacheService) Invalidate(_ context.Context, pattern string) (int, error) {
	return m.lru.Invalidate(pattern), nil
}

// SweepExpired implements Sweeper.
func (m *MockCacheService) SweepExpired(_ context.Context) (int, error) {
	return m.lru.SweepExpired(), nil
}

// TTL returns the TTL of the last Set for key.
func (m *MockCacheService) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

// Ensure MockCacheService implements CacheService
var _ CacheService = (*MockCacheService)(nil)
