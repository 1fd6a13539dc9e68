package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements SessionService with an in-process map.
type MemoryStore struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionData
}

type sessionData struct {
	turns      []Turn
	lastAccess time.Time
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		sessions: make(map[string]*sessionData),
	}
}

// getOrCreate must be called with the lock held. It refreshes lastAccess.
func (s *MemoryStore) getOrCreate(userID string) *sessionData {
	now := s.now()
	data, ok := s.sessions[userID]
	if !ok {
		data = &sessionData{turns: s.cfg.seed(now)}
		s.sessions[userID] = data
	}
	data.lastAccess = now
	return data
}

// GetOrCreate implements SessionService.
func (s *MemoryStore) GetOrCreate(_ context.Context, userID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getOrCreate(userID)
	return append([]Turn(nil), data.turns...), nil
}

// Append implements SessionService.
func (s *MemoryStore) Append(_ context.Context, userID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getOrCreate(userID)
	for _, turn := range turns {
		if turn.Timestamp == 0 {
			turn.Timestamp = data.lastAccess.Unix()
		}
		data.turns = append(data.turns, turn)
	}
	data.turns = bound(data.turns, s.cfg.MaxTurns)
	return nil
}

// Window implements SessionService.
func (s *MemoryStore) Window(_ context.Context, userID string, n int) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.getOrCreate(userID)
	return window(data.turns, n), nil
}

// Evict implements SessionService.
func (s *MemoryStore) Evict(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// CleanupIdle implements SessionService.
func (s *MemoryStore) CleanupIdle(_ context.Context, idleTTL time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idleTTL)
	var count int64
	for userID, data := range s.sessions {
		if data.lastAccess.Before(cutoff) {
			delete(s.sessions, userID)
			count++
		}
	}
	return count, nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Ensure MemoryStore implements SessionService
var _ SessionService = (*MemoryStore)(nil)
