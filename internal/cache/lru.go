package cache

import (
	"container/list"
	"sync"

	"rediska/internal/hashtable"
)

// lruEntry is the table payload for the LRU engine: the value plus the
// entry's node in the recency list.
type lruEntry struct {
	value string
	elem  *list.Element
}

// LRU is the least-recently-used eviction engine. A doubly linked list
// orders keys from most recent (front) to least recent (back); the hash
// table keeps each key's list node so moves are O(1).
type LRU struct {
	mu       sync.Mutex
	capacity int
	data     *hashtable.Table
	order    *list.List // of string keys
	stats    Stats
}

// NewLRU creates an LRU engine with the given fixed capacity.
func NewLRU(capacity int, hash hashtable.HashFunc) *LRU {
	return &LRU{
		capacity: capacity,
		data:     hashtable.New(capacity, hash),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it most recently used.
// Misses return "" and never error.
func (c *LRU) Get(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok, err := c.data.Get(key)
	if err != nil || !ok {
		c.stats.Misses++
		return ""
	}

	entry := value.(lruEntry)
	c.order.MoveToFront(entry.elem)
	c.stats.Hits++
	return entry.value
}

// Set stores value under key at the most-recent end of the order. When
// the cache is at capacity a new key evicts the least-recently-used one.
func (c *LRU) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity <= 0 {
		return
	}

	if existing, ok, err := c.data.Get(key); err == nil && ok {
		entry := existing.(lruEntry)
		entry.value = value
		c.data.Insert(key, entry)
		c.order.MoveToFront(entry.elem)
		return
	}

	if c.data.Len() >= c.capacity {
		c.evictOldest()
	}

	elem := c.order.PushFront(key)
	c.data.Insert(key, lruEntry{value: value, elem: elem})
}

// Remove deletes key from the table and the recency order; absent keys
// are a no-op.
func (c *LRU) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok, err := c.data.Delete(key)
	if err != nil || !ok {
		return
	}
	c.order.Remove(value.(lruEntry).elem)
}

// Items returns a snapshot of all live entries in table order.
func (c *LRU) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	pairs := c.data.Items()
	items := make([]Item, 0, len(pairs))
	for _, pair := range pairs {
		items = append(items, Item{Key: pair.Key, Value: pair.Value.(lruEntry).value})
	}
	return items
}

// Len returns the number of live entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Len()
}

// Stats returns activity counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close is a no-op; the LRU engine owns no background work.
func (c *LRU) Close() {}

func (c *LRU) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	c.order.Remove(back)
	c.data.Delete(back.Value.(string))
	c.stats.Evictions++
}
