package cache

import (
	"sync"

	"rediska/internal/hashtable"
)

// lfuEntry is the table payload for the LFU engine.
type lfuEntry struct {
	value string
	freq  int
}

// LFU is the least-frequently-used eviction engine. Keys are grouped
// into frequency buckets; within a bucket insertion order is preserved
// so ties evict the oldest key at that frequency.
type LFU struct {
	mu       sync.Mutex
	capacity int
	data     *hashtable.Table
	buckets  map[int][]string // frequency -> keys, oldest first
	minFreq  int
	stats    Stats
}

// NewLFU creates an LFU engine with the given fixed capacity.
func NewLFU(capacity int, hash hashtable.HashFunc) *LFU {
	return &LFU{
		capacity: capacity,
		data:     hashtable.New(capacity, hash),
		buckets:  make(map[int][]string),
	}
}

// Get returns the value for key and bumps its frequency. Misses return
// "" and never error.
func (c *LFU) Get(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok, err := c.data.Get(key)
	if err != nil || !ok {
		c.stats.Misses++
		return ""
	}

	entry := value.(lfuEntry)
	c.bump(key, entry)
	c.stats.Hits++
	return entry.value
}

// Set stores value under key. An existing key keeps its bucket history
// and gets a frequency bump; a new key starts at frequency 1, evicting
// the oldest minimum-frequency key first when the cache is full.
//
// A non-positive capacity disables Set entirely. That is a boundary
// policy, not an error.
func (c *LFU) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity <= 0 {
		return
	}

	if existing, ok, err := c.data.Get(key); err == nil && ok {
		entry := existing.(lfuEntry)
		entry.value = value
		c.bump(key, entry)
		return
	}

	if c.data.Len() >= c.capacity {
		c.evict()
	}

	c.data.Insert(key, lfuEntry{value: value, freq: 1})
	c.buckets[1] = append(c.buckets[1], key)
	c.minFreq = 1
}

// Remove deletes key and its frequency bookkeeping; absent keys are a
// no-op.
func (c *LFU) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok, err := c.data.Delete(key)
	if err != nil || !ok {
		return
	}
	c.dropFromBucket(key, value.(lfuEntry).freq)
}

// Items returns a snapshot of all live entries in table order.
func (c *LFU) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	pairs := c.data.Items()
	items := make([]Item, 0, len(pairs))
	for _, pair := range pairs {
		items = append(items, Item{Key: pair.Key, Value: pair.Value.(lfuEntry).value})
	}
	return items
}

// Len returns the number of live entries.
func (c *LFU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Len()
}

// Stats returns activity counters.
func (c *LFU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close is a no-op; the LFU engine owns no background work.
func (c *LFU) Close() {}

// bump moves key from its current frequency bucket to the next one and
// stores the (possibly updated) entry back in the table.
func (c *LFU) bump(key string, entry lfuEntry) {
	c.dropFromBucket(key, entry.freq)

	entry.freq++
	c.data.Insert(key, entry)
	c.buckets[entry.freq] = append(c.buckets[entry.freq], key)
	if c.minFreq == 0 || entry.freq < c.minFreq {
		c.minFreq = entry.freq
	}
}

// dropFromBucket removes key from the bucket for freq, advancing
// minFreq when the minimum bucket drains.
func (c *LFU) dropFromBucket(key string, freq int) {
	bucket := c.buckets[freq]
	for i, k := range bucket {
		if k == key {
			c.buckets[freq] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(c.buckets[freq]) == 0 {
		delete(c.buckets, freq)
		if c.minFreq == freq {
			// Frequencies can be sparse, so find the next live bucket
			// rather than assuming freq+1 exists.
			c.minFreq = 0
			for f := range c.buckets {
				if c.minFreq == 0 || f < c.minFreq {
					c.minFreq = f
				}
			}
		}
	}
}

// evict removes the oldest key in the minimum-frequency bucket.
func (c *LFU) evict() {
	bucket := c.buckets[c.minFreq]
	if len(bucket) == 0 {
		return
	}

	victim := bucket[0]
	c.buckets[c.minFreq] = bucket[1:]
	if len(c.buckets[c.minFreq]) == 0 {
		delete(c.buckets, c.minFreq)
	}

	c.data.Delete(victim)
	c.stats.Evictions++
}
