// Package cache implements the three eviction engines behind the store:
// time-based (TTL), least-recently-used (LRU) and least-frequently-used
// (LFU). Each engine composes a hashtable.Table with policy metadata and
// a single exclusive lock, so every public operation is atomic with
// respect to the others.
package cache

import (
	"rediska/internal/hashtable"
	"rediska/pkg/config"
)

// Item is one live key-value entry as exposed to callers.
type Item struct {
	Key   string
	Value string
}

// Stats counts cache activity since the engine was created.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is the capability interface shared by all eviction engines.
//
// A miss is signaled as an empty value, never an error: the protocol
// cannot transmit anything richer and callers treat "" as absent.
type Cache interface {
	// Get returns the value for key, or "" on a miss.
	Get(key string) string
	// Set adds or updates a key-value pair, evicting per policy.
	Set(key, value string)
	// Remove deletes a pair; removing an absent key is a no-op.
	Remove(key string)
	// Items returns a snapshot of all live entries.
	Items() []Item
	// Len returns the number of live entries.
	Len() int
	// Stats returns activity counters.
	Stats() Stats
	// Close releases engine resources, stopping any background work.
	Close()
}

// New constructs the engine described by cfg. It is the single place
// that maps a configured cache type to a concrete implementation.
func New(cfg config.CacheConfig) Cache {
	hash := hashtable.ForType(cfg.HashFunction)
	switch cfg.Type {
	case config.CacheLRU:
		return NewLRU(cfg.Capacity, hash)
	case config.CacheLFU:
		return NewLFU(cfg.Capacity, hash)
	default:
		return NewTTL(cfg.TTLSeconds, cfg.Capacity, hash)
	}
}
