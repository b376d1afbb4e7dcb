// Package cache provides a small bounded TTL+LRU cache for scan results and
// extracted PDF text. State is in-memory and process-lifetime only.
package cache

import (
	"container/list"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long an entry stays valid.
const DefaultTTL = 900 * time.Second

// Cache is an LRU cache with a fixed TTL. Entries older than the TTL are
// treated as absent and removed lazily on read. The eviction list and the
// map are mutated together under one mutex.
type Cache struct {
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	lru      *list.List
	now      func() time.Time
	mu       sync.Mutex
}

type entry struct {
	key      string
	value    interface{}
	storedAt time.Time
}

// New creates a cache holding at most capacity entries with the given TTL.
// Zero or negative arguments fall back to 256 entries and DefaultTTL.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns the cached value for key if present and fresh. A stale entry
// is evicted and reported as a miss. A hit refreshes the entry's LRU
// position.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.lru.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return e.value, true
}

// Set stores value under key, evicting the least-recently-used entry when
// at capacity.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		e := elem.Value.(*entry)
		e.value = value
		e.storedAt = c.now()
		return
	}

	elem := c.lru.PushFront(&entry{key: key, value: value, storedAt: c.now()})
	c.entries[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).key)
		}
	}
}

// Len returns the number of entries currently held, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Key builds a deterministic, order-independent cache key from parameter
// pairs. Pairs are sorted by name, so callers may pass them in any order.
// Timestamps and request ids must never be part of a key.
func Key(parts map[string]string) string {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(parts[name])
	}
	return b.String()
}
