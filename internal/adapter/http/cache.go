package http

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
)

// seriesCache keeps rendered NDJSON series for the most recently requested
// stations. A month at one-minute resolution is a few megabytes per station,
// so the cache is bounded.
type seriesCache struct {
	scenario domain.Scenario
	cache    *lruCache
}

func newSeriesCache(s domain.Scenario, maxEntries int) *seriesCache {
	return &seriesCache{scenario: s, cache: newLRUCache(maxEntries)}
}

// render returns the NDJSON series for the named station, generating it on a
// cache miss. ok is false when the station is unknown.
func (c *seriesCache) render(name string) (body []byte, ok bool, err error) {
	if body, ok := c.cache.get(name); ok {
		return body, true, nil
	}
	d, ok := c.scenario.Device(name)
	if !ok {
		return nil, false, nil
	}

	var buf bytes.Buffer
	buf.Grow(c.scenario.Window.Steps() * 96)
	enc := json.NewEncoder(&buf)
	if err := domain.GenerateSeries(d, c.scenario.Window, func(s domain.Sample) error {
		return enc.Encode(s)
	}); err != nil {
		return nil, true, err
	}

	body = buf.Bytes()
	c.cache.put(name, body)
	return body, true, nil
}

// lruCache is a simple thread-safe LRU cache for rendered series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
