package http

import (
	"bytes"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheScenario() domain.Scenario {
	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return domain.Scenario{
		Window: domain.Window{Start: jan1, End: jan1.Add(2 * time.Hour), Step: time.Hour},
		Devices: []domain.Device{
			{Name: "a", Lat: 1, Lon: 2},
			{Name: "b", Lat: 3, Lon: 4},
			{Name: "c", Lat: 5, Lon: 6},
		},
	}
}

// --- seriesCache tests ---

func TestSeriesCache_RenderAndHit(t *testing.T) {
	c := newSeriesCache(cacheScenario(), 10)

	body, ok, err := c.render("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, bytes.Count(body, []byte("\n")))
	assert.Equal(t, 1, c.cache.len())

	again, ok, err := c.render("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, body, again)
	assert.Equal(t, 1, c.cache.len())
}

func TestSeriesCache_UnknownStation(t *testing.T) {
	c := newSeriesCache(cacheScenario(), 10)

	_, ok, err := c.render("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, c.cache.len())
}

func TestSeriesCache_Bounded(t *testing.T) {
	c := newSeriesCache(cacheScenario(), 2)

	for _, name := range []string{"a", "b", "c"} {
		_, ok, err := c.render(name)
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.Equal(t, 2, c.cache.len())
	_, cached := c.cache.get("a")
	assert.False(t, cached, "a should have been evicted")
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", []byte("A"))
	c.put("b", []byte("B"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("A"), result)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", []byte("A"))
	c.put("b", []byte("B"))
	c.put("c", []byte("C")) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, []byte("B"), result)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, []byte("C"), result)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", []byte("A"))
	c.put("b", []byte("B"))

	// Access "a" to promote it
	c.get("a")

	// Insert "c"; should evict "b" (LRU), not "a"
	c.put("c", []byte("C"))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", []byte("A1"))
	c.put("a", []byte("A2"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("A2"), result)
}
