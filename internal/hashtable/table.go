package hashtable

import (
	"errors"
	"fmt"
)

const (
	// GrowthCoefficient is the factor the bucket count is multiplied with whenever the table grows
	GrowthCoefficient = 2

	// DefaultLoadFactor is the fill ratio threshold used by New
	DefaultLoadFactor = 0.75
)

var (
	// ErrInvalidCapacity is returned when a table is constructed with a capacity <= 0
	ErrInvalidCapacity = errors.New("hash table capacity must be greater than zero")

	// ErrInvalidLoadFactor is returned when a table is constructed with a load factor outside of (0, 1]
	ErrInvalidLoadFactor = errors.New("hash table load factor must be in range (0, 1]")
)

// entry represents a single key-value pair stored inside a bucket
type entry struct {
	key   int64
	value string
}

// bucket represents an ordered chain of key-value pairs whose keys share a bucket index.
// Entries are appended on insertion; removals splice the chain without reordering the rest.
type bucket []entry

// Table implements a separate-chaining hash table mapping int64 keys to string values.
// It grows automatically whenever the fill ratio reaches the configured load factor.
//
// A Table is not safe for concurrent use. Callers that share one across goroutines have to
// serialize every call themselves (see the kv package for a locked wrapper).
type Table struct {
	buckets    []bucket
	numKeys    int
	loadFactor float64
}

// New creates a hash table with the given number of buckets and the default load factor
func New(capacity int) (*Table, error) {
	return NewWithLoadFactor(capacity, DefaultLoadFactor)
}

// NewWithLoadFactor creates a hash table with the given number of buckets and load factor.
// The capacity has to be positive and the load factor has to lie in (0, 1].
func NewWithLoadFactor(capacity int, loadFactor float64) (*Table, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if loadFactor <= 0 || loadFactor > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLoadFactor, loadFactor)
	}
	return &Table{
		buckets:    make([]bucket, capacity),
		loadFactor: loadFactor,
	}, nil
}

// index computes the bucket index of a key for a specific bucket count using floor modulo.
// Negative keys wrap around to a non-negative index, so every int64 key is usable.
func index(key int64, capacity int) int {
	i := int(key % int64(capacity))
	if i < 0 {
		i += capacity
	}
	return i
}

// Search looks up the value stored for the given key.
// The second return value reports whether the key is present.
func (table *Table) Search(key int64) (string, bool) {
	for _, pair := range table.buckets[index(key, len(table.buckets))] {
		if pair.key == key {
			return pair.value, true
		}
	}
	return "", false
}

// ContainsKey reports whether a value is stored for the given key
func (table *Table) ContainsKey(key int64) bool {
	_, ok := table.Search(key)
	return ok
}

// Put inserts a new key-value pair or overwrites the value of an existing one.
// If the fill ratio reaches the load factor afterwards, the bucket array is grown once by
// GrowthCoefficient and every pair is relocated against the new bucket count. A single growth
// step is performed even if the ratio still meets the threshold afterwards, which can only
// happen for load factors <= 1/GrowthCoefficient.
func (table *Table) Put(key int64, value string) {
	i := index(key, len(table.buckets))

	updated := false
	for n, pair := range table.buckets[i] {
		if pair.key == key {
			table.buckets[i][n].value = value
			updated = true
			break
		}
	}
	if !updated {
		table.buckets[i] = append(table.buckets[i], entry{key: key, value: value})
		table.numKeys++
	}

	if float64(table.numKeys)/float64(len(table.buckets)) >= table.loadFactor {
		table.grow()
	}
}

// grow doubles the bucket array and relocates all pairs.
// Buckets are walked in ascending order and chains front to back, so pairs that end up sharing
// a bucket keep their relative order.
func (table *Table) grow() {
	grown := make([]bucket, len(table.buckets)*GrowthCoefficient)
	for _, chain := range table.buckets {
		for _, pair := range chain {
			i := index(pair.key, len(grown))
			grown[i] = append(grown[i], pair)
		}
	}
	table.buckets = grown
}

// Remove deletes the key-value pair stored for the given key and returns the removed value.
// The second return value reports whether the key was present. The table never shrinks.
func (table *Table) Remove(key int64) (string, bool) {
	i := index(key, len(table.buckets))
	for n, pair := range table.buckets[i] {
		if pair.key == key {
			table.buckets[i] = append(table.buckets[i][:n], table.buckets[i][n+1:]...)
			table.numKeys--
			return pair.value, true
		}
	}
	return "", false
}

// Empty reports whether the table holds no key-value pairs
func (table *Table) Empty() bool {
	return table.numKeys == 0
}

// Size returns the amount of stored key-value pairs
func (table *Table) Size() int {
	return table.numKeys
}

// Capacity returns the current amount of buckets
func (table *Table) Capacity() int {
	return len(table.buckets)
}

// LoadFactor returns the fill ratio threshold the table was constructed with
func (table *Table) LoadFactor() float64 {
	return table.loadFactor
}

// Keys returns the set of all stored keys
func (table *Table) Keys() map[int64]struct{} {
	keys := make(map[int64]struct{}, table.numKeys)
	for _, chain := range table.buckets {
		for _, pair := range chain {
			keys[pair.key] = struct{}{}
		}
	}
	return keys
}

// Values returns all stored values in bucket order (buckets ascending, chains front to back).
// For pure appends without colliding keys this matches insertion order.
func (table *Table) Values() []string {
	values := make([]string, 0, table.numKeys)
	for _, chain := range table.buckets {
		for _, pair := range chain {
			values = append(values, pair.value)
		}
	}
	return values
}
