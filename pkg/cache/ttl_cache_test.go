package cache

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock, testlerde zamanı elle ilerletmek için.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// size, süresi dolmuş ama henüz temizlenmemişler dahil entry sayısı.
func size[K comparable, V any](c *TTLCache[K, V]) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func newTestCache(ttl time.Duration) (*TTLCache[string, uint64], *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string, uint64](ttl, 0)
	c.now = clock.Now
	return c, clock
}

func TestTTLCache_GetSet(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	defer c.Close()

	_, ok := c.Get("c1:m1")
	assert.False(t, ok)

	c.Set("c1:m1", 42)
	v, ok := c.Get("c1:m1")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)
}

func TestTTLCache_Expiry(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	defer c.Close()

	c.Set("k", 1)
	clock.Advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, size(c))

	c.evictExpired()
	assert.Equal(t, 0, size(c))
}

func TestTTLCache_Invalidation(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	defer c.Close()

	c.Set("c1:m1", 1)
	c.Set("c2:m1", 2)
	c.Set("c1:m2", 3)

	c.DeleteFunc(func(key string) bool { return strings.HasSuffix(key, ":m1") })
	assert.Equal(t, 1, size(c))

	v, ok := c.Get("c1:m2")
	assert.True(t, ok)
	assert.Equal(t, uint64(3), v)
}

func TestTTLCache_CloseIsIdempotent(t *testing.T) {
	c := New[string, int](time.Minute, time.Millisecond)
	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}
