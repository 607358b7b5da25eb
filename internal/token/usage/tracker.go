package usage

import (
	"sync"

	"github.com/google/uuid"
	"github.com/skybi/kv-server/internal/token"
)

// Tracker keeps track of the amount of requests served per access token.
// Counters are accumulated in memory and handed to a flush hook in batches, so the hot request
// path never does more than a map increment under a mutex.
type Tracker struct {
	mtx      sync.Mutex
	counters map[uuid.UUID]uint64
}

// NewTracker creates a new request usage tracker
func NewTracker() *Tracker {
	return &Tracker{
		counters: make(map[uuid.UUID]uint64),
	}
}

// Get returns the amount of requests counted for a specific token since the last flush
func (tracker *Tracker) Get(tkn *token.Token) uint64 {
	tracker.mtx.Lock()
	defer tracker.mtx.Unlock()
	return tracker.counters[tkn.ID]
}

// Accumulate increments the request counter of a specific token by 1
func (tracker *Tracker) Accumulate(tkn *token.Token) {
	tracker.mtx.Lock()
	defer tracker.mtx.Unlock()
	tracker.counters[tkn.ID]++
}

// Flush hands all non-zero counters to the given function and resets them.
// It returns the amount of tokens that had requests counted.
func (tracker *Tracker) Flush(fn func(counters map[uuid.UUID]uint64)) int {
	tracker.mtx.Lock()
	defer tracker.mtx.Unlock()

	amount := len(tracker.counters)
	if amount == 0 {
		return 0
	}
	fn(tracker.counters)
	tracker.counters = make(map[uuid.UUID]uint64)
	return amount
}
