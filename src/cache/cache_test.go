package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_MissOnUnknownKey(t *testing.T) {
	c := New[string]()

	v, ok := c.Get("price:TCS")
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

// -----------------------------------------------------------------------------

func TestSetGet_RoundTrip(t *testing.T) {
	c := New[float64]()
	c.Set("price:TCS", 3450.5, time.Minute)

	v, ok := c.Get("price:TCS")
	require.True(t, ok)
	assert.Equal(t, 3450.5, v)
	assert.Equal(t, 1, c.Len())
}

// -----------------------------------------------------------------------------

func TestGet_ExpiryIsLazy(t *testing.T) {
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c := New[string]()
	c.now = func() time.Time { return clock }

	c.Set("k", "v", time.Minute)

	// Just inside the TTL
	clock = clock.Add(time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	// Past the TTL: the read itself evicts
	clock = clock.Add(time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

// -----------------------------------------------------------------------------

func TestSet_OverwriteReplacesValueAndTTL(t *testing.T) {
	clock := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c := New[int]()
	c.now = func() time.Time { return clock }

	c.Set("k", 1, 10*time.Second)
	clock = clock.Add(8 * time.Second)
	c.Set("k", 2, 10*time.Second)

	// The rewrite restarted the clock: 12s after the first Set is still live
	clock = clock.Add(4 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

// -----------------------------------------------------------------------------

func TestDelete_RemovesEntry(t *testing.T) {
	c := New[string]()
	c.Set("k", "v", time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	// Deleting a missing key is a no-op
	c.Delete("k")
}
