package cache

import (
	"sync"
	"time"

	"rediska/internal/hashtable"
)

// sweepInterval is the cadence of the background expiry sweeper.
const sweepInterval = time.Second

// ttlValue carries a stored value together with its expiry deadline.
type ttlValue struct {
	value     string
	expiresAt time.Time
}

// TTL is the time-based eviction engine. Entries expire ttl seconds
// after their last Set; a background sweeper removes dead entries every
// second, and Get evicts lazily in case the sweeper has not run yet.
type TTL struct {
	mu    sync.Mutex
	data  *hashtable.Table
	ttl   time.Duration
	stats Stats

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTTL creates a TTL engine. The table size follows the configured
// capacity; the entry count itself is unbounded.
func NewTTL(ttlSeconds, capacity int, hash hashtable.HashFunc) *TTL {
	c := &TTL{
		data: hashtable.New(capacity, hash),
		ttl:  time.Duration(ttlSeconds) * time.Second,
		stop: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.sweep()

	return c
}

// Get returns the value for key if it has not expired. An expired entry
// is evicted as a side effect and reported as a miss.
func (c *TTL) Get(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok, err := c.data.Get(key)
	if err != nil || !ok {
		// Invalid keys surface as a plain miss at this boundary.
		c.stats.Misses++
		return ""
	}

	item := value.(ttlValue)
	if time.Now().Before(item.expiresAt) {
		c.stats.Hits++
		return item.value
	}

	c.data.Delete(key)
	c.stats.Evictions++
	c.stats.Misses++
	return ""
}

// Set stores value under key with a fresh TTL window, overwriting any
// previous entry and its expiry.
func (c *TTL) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Insert(key, ttlValue{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Remove deletes key; absent keys are a no-op.
func (c *TTL) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Delete(key)
}

// Items returns the entries that are still live at the time of the call.
func (c *TTL) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	pairs := c.data.Items()
	items := make([]Item, 0, len(pairs))
	for _, pair := range pairs {
		item := pair.Value.(ttlValue)
		if now.Before(item.expiresAt) {
			items = append(items, Item{Key: pair.Key, Value: item.value})
		}
	}
	return items
}

// Len returns the number of stored entries, including any that expired
// since the last sweep.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Len()
}

// Stats returns activity counters.
func (c *TTL) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close stops the background sweeper. The engine must not be used after
// Close returns.
func (c *TTL) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.wg.Wait()
}

// sweep evicts expired entries on a fixed cadence until Close is called.
func (c *TTL) sweep() {
	defer c.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *TTL) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, pair := range c.data.Items() {
		if !now.Before(pair.Value.(ttlValue).expiresAt) {
			c.data.Delete(pair.Key)
			c.stats.Evictions++
		}
	}
}
