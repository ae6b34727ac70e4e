package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCacheGetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	c.Set("a", "2")
	v, _ = c.Get("a")
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, c.Size())

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB, "b was least recently used")
	assert.True(t, okC)
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clk.advance(30 * time.Second)
	c.Set("c", "3")
	clk.advance(45 * time.Second)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired(), "only b is left to expire")
	assert.Equal(t, 1, c.Size())
}

func TestLRUCacheDisabled(t *testing.T) {
	c := NewLRUCache[string](0, time.Minute)
	c.Set("a", "1")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())

	var nilCache *LRUCache[string]
	assert.False(t, nilCache.Enabled())
}

func TestLRUCachePurge(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Purge()
	assert.Equal(t, 0, c.Size())
}

func TestManagerSweepAndRun(t *testing.T) {
	c, clk := newTestCache(4, time.Second)
	c.Set("a", "1")
	clk.advance(2 * time.Second)

	m := NewManager(nil)
	m.Register("summaries", c)
	assert.Equal(t, 1, m.Sweep())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, 10*time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
