package verdictlog

import "sync"

// Index holds the most recent verdicts in memory keyed by verdict ID, so
// feedback submissions can be checked against a real verdict without a
// round-trip to durable storage. Capacity-bounded: the oldest entry is
// evicted when full.
type Index struct {
	mu       sync.RWMutex
	capacity int
	byID     map[string]Record
	order    []string // ring of verdict IDs in insertion order
	head     int
}

func NewIndex(capacity int) *Index {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Index{
		capacity: capacity,
		byID:     make(map[string]Record, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (ix *Index) Add(r Record) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.byID[r.VerdictID]; ok {
		ix.byID[r.VerdictID] = r
		return
	}

	if len(ix.order) < ix.capacity {
		ix.order = append(ix.order, r.VerdictID)
	} else {
		delete(ix.byID, ix.order[ix.head])
		ix.order[ix.head] = r.VerdictID
		ix.head = (ix.head + 1) % ix.capacity
	}
	ix.byID[r.VerdictID] = r
}

func (ix *Index) Get(verdictID string) (Record, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	r, ok := ix.byID[verdictID]
	return r, ok
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}
