package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetAndGet(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("key", "value")

	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestGetMissing(t *testing.T) {
	c := New(10, time.Minute)

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := New(10, 10*time.Millisecond)

	c.Set("key", "value")
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestSetWithTTLOverridesDefault(t *testing.T) {
	c := New(10, 10*time.Millisecond)

	c.SetWithTTL("token", "abc123", time.Minute)
	time.Sleep(20 * time.Millisecond)

	got, ok := c.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc123", got)
}

func TestLRUEviction(t *testing.T) {
	c := New(2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh "a" so "b" is oldest
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")

	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("key", "value")
	c.Delete("key")

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	c := New(10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestCleanExpired(t *testing.T) {
	c := New(10, time.Minute)

	c.SetWithTTL("old", 1, 5*time.Millisecond)
	c.Set("fresh", 2)
	time.Sleep(10 * time.Millisecond)

	c.CleanExpired()

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
}
