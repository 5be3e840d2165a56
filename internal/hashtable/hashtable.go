// Package hashtable implements a fixed-size chained hash table with
// swappable hash-function strategies. The table never resizes; capacity
// planning belongs to the caller.
package hashtable

import "errors"

// ErrInvalidKey is returned by every operation given an unusable key.
var ErrInvalidKey = errors.New("invalid key")

// DefaultSize is the bucket count used when none is given.
const DefaultSize = 100

// Pair is one key-value entry in a bucket chain.
type Pair struct {
	Key   string
	Value any
}

// Table is a chained hash table with a fixed number of buckets.
// It is not safe for concurrent use; callers provide their own locking.
type Table struct {
	size    int
	buckets [][]Pair
	length  int
	hash    HashFunc
}

// New creates a table with the given bucket count and hash function.
// A non-positive size falls back to DefaultSize, a nil hash function to
// the division method.
func New(size int, hash HashFunc) *Table {
	if size <= 0 {
		size = DefaultSize
	}
	if hash == nil {
		hash = DivisionHash
	}
	return &Table{
		size:    size,
		buckets: make([][]Pair, size),
		hash:    hash,
	}
}

func checkKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}

// Get returns the value stored under key and whether it was present.
func (t *Table) Get(key string) (any, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	index := t.hash(key, t.size)
	for _, pair := range t.buckets[index] {
		if pair.Key == key {
			return pair.Value, true, nil
		}
	}
	return nil, false, nil
}

// Insert stores value under key. An existing key is replaced in place so
// its position within the bucket chain is preserved.
func (t *Table) Insert(key string, value any) error {
	if err := checkKey(key); err != nil {
		return err
	}

	index := t.hash(key, t.size)
	for i, pair := range t.buckets[index] {
		if pair.Key == key {
			t.buckets[index][i] = Pair{Key: key, Value: value}
			return nil
		}
	}

	t.buckets[index] = append(t.buckets[index], Pair{Key: key, Value: value})
	t.length++
	return nil
}

// Delete removes key and returns the value that was stored under it.
func (t *Table) Delete(key string) (any, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	index := t.hash(key, t.size)
	chain := t.buckets[index]
	for i, pair := range chain {
		if pair.Key == key {
			t.buckets[index] = append(chain[:i], chain[i+1:]...)
			t.length--
			return pair.Value, true, nil
		}
	}
	return nil, false, nil
}

// Contains reports whether key is present.
func (t *Table) Contains(key string) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

// Items returns every pair in bucket order; chain order within a bucket
// is the insertion order.
func (t *Table) Items() []Pair {
	items := make([]Pair, 0, t.length)
	for _, chain := range t.buckets {
		items = append(items, chain...)
	}
	return items
}

// Len returns the number of live pairs.
func (t *Table) Len() int {
	return t.length
}

// Size returns the fixed bucket count.
func (t *Table) Size() int {
	return t.size
}
