package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLRU(capacity int) (*LRUCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	lru := NewLRUCache(capacity, time.Minute)
	lru.now = clock.now
	return lru, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	lru, _ := newTestLRU(10)

	_, ok := lru.Get("missing")
	assert.False(t, ok)

	lru.Set("a", []byte("1"), 0)
	v, ok := lru.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	// Returned values are copies.
	v[0] = 'x'
	v, _ = lru.Get("a")
	assert.Equal(t, []byte("1"), v)

	lru.Set("a", []byte("2"), 0)
	v, _ = lru.Get("a")
	assert.Equal(t, []byte("2"), v)
	assert.Equal(t, 1, lru.Len())
}

func TestLRUCache_Eviction(t *testing.T) {
	lru, _ := newTestLRU(2)

	lru.Set("a", []byte("1"), 0)
	lru.Set("b", []byte("2"), 0)
	lru.Get("a") // b is now least recently used
	lru.Set("c", []byte("3"), 0)

	_, ok := lru.Get("b")
	assert.False(t, ok)
	_, ok = lru.Get("a")
	assert.True(t, ok)
	_, ok = lru.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, lru.Len())
}

func TestLRUCache_Expiry(t *testing.T) {
	lru, clock := newTestLRU(10)

	lru.Set("short", []byte("1"), time.Second)
	lru.Set("default", []byte("2"), 0)

	clock.advance(2 * time.Second)
	_, ok := lru.Get("short")
	assert.False(t, ok)
	_, ok = lru.Get("default")
	assert.True(t, ok)

	clock.advance(2 * time.Minute)
	assert.Equal(t, 1, lru.SweepExpired())
	assert.Equal(t, 0, lru.Len())
}

func TestLRUCache_Invalidate(t *testing.T) {
	lru, _ := newTestLRU(10)
	lru.Set("session:a", []byte("1"), 0)
	lru.Set("session:b", []byte("1"), 0)
	lru.Set("other", []byte("1"), 0)

	assert.Equal(t, 0, lru.Invalidate("session:zzz"))
	assert.Equal(t, 1, lru.Invalidate("other"))
	assert.Equal(t, 2, lru.Invalidate("session:*"))
	assert.Equal(t, 0, lru.Len())
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceConfig{Capacity: 5, DefaultTTL: time.Minute, SweepInterval: time.Millisecond})
	defer svc.Close()

	require.NoError(t, svc.Set(ctx, "k", []byte("v"), 0))
	v, ok := svc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, svc.Set(ctx, "gone", []byte("v"), time.Millisecond))
	assert.Eventually(t, func() bool { return svc.Len() == 1 }, time.Second, 5*time.Millisecond)

	n, err := svc.Invalidate(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	svc.Close()
	svc.Close()
}

func TestMockCacheService(t *testing.T) {
	ctx := context.Background()
	mock := NewMockCacheService()

	require.NoError(t, mock.Set(ctx, "k", []byte("v"), 3*time.Second))
	assert.Equal(t, 3*time.Second, mock.TTL("k"))

	mock.Fail = true
	assert.ErrorIs(t, mock.Set(ctx, "k", []byte("v"), 0), ErrMockUnavailable)
}
