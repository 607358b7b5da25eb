package kv

import (
	"sort"
	"sync"

	"github.com/skybi/kv-server/internal/hashtable"
)

// Store provides a locked hashtable.Table in order to make it safe for concurrent use.
// The table itself is single-threaded by contract, so every public call is serialized through
// a single RWMutex; mutations take the write lock, reads take the read lock.
type Store struct {
	mtx   sync.RWMutex
	table *hashtable.Table
}

// NewStore creates a new store around a fresh hash table.
// The capacity and load factor are validated by the table constructor.
func NewStore(capacity int, loadFactor float64) (*Store, error) {
	table, err := hashtable.NewWithLoadFactor(capacity, loadFactor)
	if err != nil {
		return nil, err
	}
	return &Store{table: table}, nil
}

// Get looks up the value of a specific key and reports whether it was found
func (store *Store) Get(key int64) (string, bool) {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return store.table.Search(key)
}

// Has reports whether a value is stored for a specific key
func (store *Store) Has(key int64) bool {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return store.table.ContainsKey(key)
}

// Set stores a key-value pair and reports whether the key was newly created
// (false means an existing value was overwritten)
func (store *Store) Set(key int64, value string) bool {
	store.mtx.Lock()
	defer store.mtx.Unlock()
	created := !store.table.ContainsKey(key)
	store.table.Put(key, value)
	return created
}

// Delete removes the value of a specific key and returns it.
// The second return value reports whether the key was present.
func (store *Store) Delete(key int64) (string, bool) {
	store.mtx.Lock()
	defer store.mtx.Unlock()
	return store.table.Remove(key)
}

// Size returns the amount of stored key-value pairs
func (store *Store) Size() int {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return store.table.Size()
}

// Empty reports whether the store holds no key-value pairs
func (store *Store) Empty() bool {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return store.table.Empty()
}

// Keys returns all stored keys in ascending order.
// The table itself hands out an unordered set; sorting here keeps paginated listings stable.
func (store *Store) Keys() []int64 {
	store.mtx.RLock()
	set := store.table.Keys()
	store.mtx.RUnlock()

	keys := make([]int64, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

// Values returns all stored values in the table's bucket order
func (store *Store) Values() []string {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return store.table.Values()
}

// Stats represents a consistent snapshot of the store's table metrics
type Stats struct {
	Size              int     `json:"size"`
	Capacity          int     `json:"capacity"`
	LoadFactor        float64 `json:"load_factor"`
	FillRatio         float64 `json:"fill_ratio"`
	GrowthCoefficient int     `json:"growth_coefficient"`
}

// Stats returns a consistent snapshot of the store's table metrics
func (store *Store) Stats() Stats {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return Stats{
		Size:              store.table.Size(),
		Capacity:          store.table.Capacity(),
		LoadFactor:        store.table.LoadFactor(),
		FillRatio:         float64(store.table.Size()) / float64(store.table.Capacity()),
		GrowthCoefficient: hashtable.GrowthCoefficient,
	}
}
