package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCache(ttl time.Duration, size int) (*Cache[string, string], *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newCache[string, string](ttl, size, func() time.Time { return now })
	return c, &now
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)
	defer c.Close()

	c.Set("colima list --json", `{"name":"default"}`)
	v, ok := c.Get("colima list --json")
	assert.True(t, ok)
	assert.Equal(t, `{"name":"default"}`, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, now := newTestCache(2*time.Second, 10)
	defer c.Close()

	c.Set("k", "v")
	*now = now.Add(time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	*now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, now := newTestCache(time.Minute, 2)
	defer c.Close()

	c.Set("a", "1")
	*now = now.Add(time.Millisecond)
	c.Set("b", "2")
	*now = now.Add(time.Millisecond)
	_, _ = c.Get("a")
	*now = now.Add(time.Millisecond)
	c.Set("c", "3")

	assert.True(t, c.has("a"))
	assert.False(t, c.has("b"))
	assert.True(t, c.has("c"))
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c, _ := newTestCache(time.Minute, 1)
	defer c.Close()

	c.Set("a", "1")
	c.Set("a", "2")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestCache_CleanupAndClose(t *testing.T) {
	c, now := newTestCache(time.Second, 10)
	c.Set("a", "1")
	*now = now.Add(500 * time.Millisecond)
	c.Set("b", "2")
	*now = now.Add(700 * time.Millisecond)

	c.cleanup()
	assert.Equal(t, 1, c.Size())
	assert.True(t, c.has("b"))

	c.Close()
	c.Close()
}

func (c *Cache[K, V]) has(key K) bool {
	_, ok := c.Get(key)
	return ok
}
