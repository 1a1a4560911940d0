package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// LRU implements an in-memory least-recently-used cache.
type LRU[V any] struct {
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// NewLRU creates a cache holding at most maxEntries values. A zero ttl keeps
// entries until they are evicted.
func NewLRU[V any](maxEntries int, ttl time.Duration) *LRU[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &LRU[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, exists := c.entries[key]
	if !exists {
		c.misses.Add(1)
		return zero, false
	}

	entry := elem.Value.(*lruEntry[V])
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		c.misses.Add(1)
		return zero, false
	}

	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return entry.value, true
}

func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)

	if elem, exists := c.entries[key]; exists {
		entry := elem.Value.(*lruEntry[V])
		entry.value = value
		entry.expiresAt = expires
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxEntries {
		c.evictOldest()
	}

	elem := c.order.PushFront(&lruEntry[V]{key: key, value: value, expiresAt: expires})
	c.entries[key] = elem
}

// Delete removes key if present.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[key]; exists {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
}

func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Stats returns hit, miss and entry counts.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	n := c.order.Len()
	c.mu.Unlock()

	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: n,
	}
}

func (c *LRU[V]) evictOldest() {
	elem := c.order.Back()
	if elem != nil {
		entry := elem.Value.(*lruEntry[V])
		delete(c.entries, entry.key)
		c.order.Remove(elem)
	}
}
