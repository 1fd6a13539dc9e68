package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity      int           // Maximum number of entries (default: 1000)
	DefaultTTL    time.Duration // Default TTL for entries (default: 5 minutes)
	SweepInterval time.Duration // Interval for expired entry removal, zero disables the loop
}

// Service implements CacheService over an LRUCache.
type Service struct {
	lru *LRUCache

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewService creates a new cache service and starts its sweep loop when configured.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		lru:  NewLRUCache(cfg.Capacity, cfg.DefaultTTL),
		stop: make(chan struct{}),
	}
	if cfg.SweepInterval > 0 {
		s.wg.Add(1)
		go s.sweepLoop(cfg.SweepInterval)
	}
	return s
}

// Close stops the sweep loop. It is safe to call more than once.
func (s *Service) Close() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// Get retrieves a value from cache.
func (s *Service) Get(_ context.Context, key string) ([]byte, bool) {
	return s.lru.Get(key)
}

// Set stores a value in cache.
func (s *Service) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.Set(key, value, ttl)
	return nil
}

// Invalidate invalidates cache entries matching the pattern.
func (s *Service) Invalidate(_ context.Context, pattern string) (int, error) {
	return s.lru.Invalidate(pattern), nil
}

// SweepExpired implements Sweeper.
func (s *Service) SweepExpired(_ context.Context) (int, error) {
	return s.lru.SweepExpired(), nil
}

// Len returns the number of entries in the cache.
func (s *Service) Len() int {
	return s.lru.Len()
}

func (s *Service) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.lru.SweepExpired(); n > 0 {
				slog.Debug("cache sweep removed expired entries", "count", n)
			}
		}
	}
}

// Ensure Service implements CacheService and Sweeper
var (
	_ CacheService = (*Service)(nil)
	_ Sweeper      = (*Service)(nil)
)
