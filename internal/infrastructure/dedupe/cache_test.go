package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func newTestCache(capacity int, ttl time.Duration) (*Cache, *clock) {
	clk := &clock{t: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(capacity, ttl)
	c.now = clk.now
	return c, clk
}

func TestCache_RedeliveredVersionIsIndexed(t *testing.T) {
	cache, _ := newTestCache(10, time.Minute)
	require.False(t, cache.Indexed("doc-1", "v1"))

	cache.MarkIndexed("doc-1", "v1")

	require.True(t, cache.Indexed("doc-1", "v1"))
	require.False(t, cache.Indexed("doc-2", "v1"))
}

func TestCache_NewVersionIsNotIndexed(t *testing.T) {
	cache, _ := newTestCache(10, time.Minute)
	cache.MarkIndexed("doc-1", "likes=10")

	require.False(t, cache.Indexed("doc-1", "likes=12"))

	cache.MarkIndexed("doc-1", "likes=12")
	require.True(t, cache.Indexed("doc-1", "likes=12"))
	require.False(t, cache.Indexed("doc-1", "likes=10"))
	require.Equal(t, 1, cache.Len())
}

func TestCache_TTLExpiry(t *testing.T) {
	cache, clk := newTestCache(10, time.Minute)
	cache.MarkIndexed("doc-1", "v1")

	clk.t = clk.t.Add(time.Minute + time.Second)

	require.False(t, cache.Indexed("doc-1", "v1"))
	require.Equal(t, 0, cache.Len())
}

func TestCache_CapacityEvictsLeastRecentlyMarked(t *testing.T) {
	cache, clk := newTestCache(2, time.Minute)
	cache.MarkIndexed("a", "v1")
	clk.t = clk.t.Add(time.Second)
	cache.MarkIndexed("b", "v1")
	clk.t = clk.t.Add(time.Second)
	cache.MarkIndexed("a", "v2")
	clk.t = clk.t.Add(time.Second)
	cache.MarkIndexed("c", "v1")

	require.True(t, cache.Indexed("a", "v2"))
	require.False(t, cache.Indexed("b", "v1"))
	require.True(t, cache.Indexed("c", "v1"))
	require.Equal(t, 2, cache.Len())
}

func TestCache_MarkDropsExpired(t *testing.T) {
	cache, clk := newTestCache(10, time.Minute)
	cache.MarkIndexed("old", "v1")
	clk.t = clk.t.Add(2 * time.Minute)

	cache.MarkIndexed("new", "v1")

	require.Equal(t, 1, cache.Len())
}

func TestNewCacheDefaults(t *testing.T) {
	cache := NewCache(0, 0)
	require.Equal(t, 1, cache.capacity)
	require.Equal(t, time.Hour, cache.ttl)
}
