package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, max int) (*Limiter, *fakeClock) {
	t.Helper()
	l := New(max, 10*time.Second, 30*time.Second)
	t.Cleanup(l.Close)

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l.now = clock.now
	return l, clock
}

func TestLimiter_AllowsUpToMaxThenCoolsDown(t *testing.T) {
	l, clock := newTestLimiter(t, 2)

	assert.True(t, l.Allow("svc"))
	assert.True(t, l.Allow("svc"))
	assert.False(t, l.Allow("svc"))
	assert.Equal(t, 31, l.RetryAfter("svc"))

	// Diğer anahtarlar etkilenmez
	assert.True(t, l.Allow("other"))

	clock.advance(15 * time.Second)
	assert.False(t, l.Allow("svc"), "cooldown still running")

	clock.advance(16 * time.Second)
	assert.True(t, l.Allow("svc"))
	assert.Equal(t, 0, l.RetryAfter("svc"))
}

func TestLimiter_WindowResets(t *testing.T) {
	l, clock := newTestLimiter(t, 1)

	assert.True(t, l.Allow("svc"))
	clock.advance(11 * time.Second)
	assert.True(t, l.Allow("svc"))
}

func TestLimiter_Cleanup(t *testing.T) {
	l, clock := newTestLimiter(t, 1)

	l.Allow("svc")
	clock.advance(11 * time.Second)
	l.cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.buckets)
}

func TestLimiter_NilAllowsEverything(t *testing.T) {
	l := New(0, time.Second, time.Second)
	assert.Nil(t, l)
	assert.True(t, l.Allow("svc"))
	assert.Equal(t, 0, l.RetryAfter("svc"))
	l.Close()
}
