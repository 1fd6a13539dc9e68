package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMockSession is returned by MockSessionService when Fail is set.
var ErrMockSession = errors.New("session store unavailable")

// MockSessionService wraps a MemoryStore and can be told to fail.
type MockSessionService struct {
	*MemoryStore

	mu          sync.Mutex
	fail        bool
	appendCalls int
}

// NewMockSessionService creates a mock seeded with preamble.
func NewMockSessionService(preamble string) *MockSessionService {
	return &MockSessionService{MemoryStore: NewMemoryStore(Config{Preamble: preamble})}
}

// SetFail makes every subsequent call return ErrMockSession.
func (m *MockSessionService) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

// SetClock replaces the clock of the underlying store.
func (m *MockSessionService) SetClock(now func() time.Time) {
	m.MemoryStore.now = now
}

// AppendCalls returns the number of Append calls.
func (m *MockSessionService) AppendCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendCalls
}

func (m *MockSessionService) failed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail
}

// GetOrCreate implements SessionService.
func (m *MockSessionService) GetOrCreate(ctx context.Context, userID string) ([]Turn, error) {
	if m.failed() {
		return nil, ErrMockSession
	}
	return m.MemoryStore.GetOrCreate(ctx, userID)
}

// Append implements SessionService.
func (m *MockSessionService) Append(ctx context.Context, userID string, turns ...Turn) error {
	m.mu.Lock()
	m.appendCalls++
	m.mu.Unlock()
	if m.failed() {
		return ErrMockSession
	}
	return m.MemoryStore.Append(ctx, userID, turns...)
}

// Window implements SessionService.
func (m *MockSessionService) Window(ctx context.Context, userID string, n int) ([]Turn, error) {
	if m.failed() {
		return nil, ErrMockSession
	}
	return m.MemoryStore.Window(ctx, userID, n)
}

// CleanupIdle implements SessionService.
func (m *MockSessionService) CleanupIdle(ctx context.Context, idleTTL time.Duration) (int64, error) {
	if m.failed() {
		return 0, ErrMockSession
	}
	return m.MemoryStore.CleanupIdle(ctx, idleTTL)
}

// Ensure MockSessionService implements SessionService
var _ SessionService = (*MockSessionService)(nil)
