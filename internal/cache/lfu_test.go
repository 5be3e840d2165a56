package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLFUSetGet(t *testing.T) {
	c := NewLFU(10, nil)
	defer c.Close()

	c.Set("a", "1")
	assert.Equal(t, "1", c.Get("a"))
	assert.Equal(t, "", c.Get("missing"))
}

func TestLFUEvictsLeastFrequent(t *testing.T) {
	c := NewLFU(2, nil)
	defer c.Close()

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")      // a now has frequency 2, b stays at 1
	c.Set("c", "3") // evicts b

	assert.Equal(t, "1", c.Get("a"))
	assert.Equal(t, "", c.Get("b"), "b should have been evicted")
	assert.Equal(t, "3", c.Get("c"))
}

func TestLFUTieBreakEvictsOldest(t *testing.T) {
	c := NewLFU(2, nil)
	defer c.Close()

	c.Set("a", "1")
	c.Set("b", "2")
	// both at frequency 1; a was inserted first so a is the victim
	c.Set("c", "3")

	assert.Equal(t, "", c.Get("a"), "oldest key at minimum frequency should be evicted")
	assert.Equal(t, "2", c.Get("b"))
}

func TestLFUSetExistingBumpsFrequency(t *testing.T) {
	c := NewLFU(2, nil)
	defer c.Close()

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "1b") // a moves to frequency 2
	c.Set("c", "3")  // evicts b, the only frequency-1 key

	assert.Equal(t, "1b", c.Get("a"))
	assert.Equal(t, "", c.Get("b"))
	assert.Equal(t, 2, c.Len())
}

func TestLFUZeroCapacityDisablesSet(t *testing.T) {
	c := NewLFU(0, nil)
	defer c.Close()

	c.Set("a", "1") // silent no-op, not an error

	assert.Equal(t, "", c.Get("a"))
	assert.Equal(t, 0, c.Len())
}

func TestLFURemoveKeepsBucketsConsistent(t *testing.T) {
	c := NewLFU(2, nil)
	defer c.Close()

	c.Set("a", "1")
	c.Get("a") // frequency 2
	c.Set("b", "2")
	c.Remove("b") // drains the frequency-1 bucket

	// the cache must still evict correctly from the remaining bucket
	c.Set("c", "3")
	c.Set("d", "4") // cache full: a (freq 2) vs c (freq 1) -> c evicted

	assert.Equal(t, "", c.Get("c"))
	assert.Equal(t, "1", c.Get("a"))
	assert.Equal(t, "4", c.Get("d"))
}

func TestLFUNewKeyResetsMinFrequency(t *testing.T) {
	c := NewLFU(3, nil)
	defer c.Close()

	c.Set("a", "1")
	c.Get("a")
	c.Get("a") // a at frequency 3
	c.Set("b", "2")
	c.Set("c", "3")
	c.Set("d", "4") // full: evicts b (frequency 1, oldest)

	assert.Equal(t, "", c.Get("b"))
	assert.Equal(t, "1", c.Get("a"))
}

func TestLFUStats(t *testing.T) {
	c := NewLFU(1, nil)
	defer c.Close()

	c.Set("a", "1")
	c.Get("a")
	c.Get("nope")
	c.Set("b", "2") // evicts a

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)
}
