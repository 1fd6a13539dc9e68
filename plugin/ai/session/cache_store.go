package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/gigvoice/plugin/ai/cache"
)

const cachePrefix = "session:"

// CacheStore implements SessionService on a cache.CacheService. Each session
// is one JSON-encoded entry whose TTL is the idle TTL, so idle sessions
// expire in the cache itself.
type CacheStore struct {
	cache   cache.CacheService
	cfg     Config
	idleTTL time.Duration
	now     func() time.Time

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewCacheStore creates a session store backed by c.
func NewCacheStore(c cache.CacheService, cfg Config, idleTTL time.Duration) *CacheStore {
	return &CacheStore{
		cache:   c,
		cfg:     cfg.withDefaults(),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

func (s *CacheStore) load(ctx context.Context, userID string) ([]Turn, bool) {
	key := cachePrefix + userID
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		slog.Warn("failed to unmarshal cached session", "key", key, "error", err)
		return nil, false
	}
	return turns, true
}

func (s *CacheStore) save(ctx context.Context, userID string, turns []Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.cache.Set(ctx, cachePrefix+userID, data, s.idleTTL); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// getOrCreate must be called with the lock held. Every access rewrites the
// entry so its TTL restarts.
func (s *CacheStore) getOrCreate(ctx context.Context, userID string) ([]Turn, error) {
	turns, ok := s.load(ctx, userID)
	if !ok {
		turns = s.cfg.seed(s.now())
	}
	if err := s.save(ctx, userID, turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// GetOrCreate implements SessionService.
func (s *CacheStore) GetOrCreate(ctx context.Context, userID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(ctx, userID)
}

// Append implements SessionService.
func (s *CacheStore) Append(ctx context.Context, userID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.load(ctx, userID)
	if !ok {
		existing = s.cfg.seed(s.now())
	}
	ts := s.now().Unix()
	for _, turn := range turns {
		if turn.Timestamp == 0 {
			turn.Timestamp = ts
		}
		existing = append(existing, turn)
	}
	return s.save(ctx, userID, bound(existing, s.cfg.MaxTurns))
}

// Window implements SessionService.
func (s *CacheStore) Window(ctx context.Context, userID string, n int) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return window(turns, n), nil
}

// Evict implements SessionService.
func (s *CacheStore) Evict(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cache.Invalidate(ctx, cachePrefix+userID); err != nil {
		return fmt.Errorf("failed to evict session: %w", err)
	}
	return nil
}

// CleanupIdle implements SessionService. Entries already expire after the idle
// TTL; this only asks the cache to drop them now when it supports that.
func (s *CacheStore) CleanupIdle(ctx context.Context, _ time.Duration) (int64, error) {
	sweeper, ok := s.cache.(cache.Sweeper)
	if !ok {
		return 0, nil
	}
	n, err := sweeper.SweepExpired(ctx)
	return int64(n), err
}

// Ensure CacheStore implements SessionService
var _ SessionService = (*CacheStore)(nil)
