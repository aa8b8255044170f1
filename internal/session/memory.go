package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 64

type entry struct {
	createdAt        time.Time
	lastSeenAt       time.Time
	prevExtractionAt time.Time
	counters         Counters
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

// MemoryStore is the default single-process Store: sharded maps with a
// background TTL sweep. Eviction and updates for a session serialize on the
// same shard lock, so a sweep can never drop an in-flight update.
type MemoryStore struct {
	shards [shardCount]*shard
	ttl    time.Duration
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store and starts its eviction sweep. A sweep
// interval of zero disables the sweeper (useful in tests).
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*entry)}
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) getOrCreateLocked(sh *shard, id string, now time.Time) *entry {
	e, ok := sh.sessions[id]
	if !ok {
		e = &entry{createdAt: now, lastSeenAt: now}
		sh.sessions[id] = e
	}
	return e
}

func snapshotOf(id string, e *entry) Snapshot {
	return Snapshot{
		ID:               id,
		CreatedAt:        e.createdAt,
		LastSeenAt:       e.lastSeenAt,
		PrevExtractionAt: e.prevExtractionAt,
		Counters:         e.counters,
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, id string) (Snapshot, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e := s.getOrCreateLocked(sh, id, s.now())
	return snapshotOf(id, e), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, delta Delta) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	now := s.now()
	e := s.getOrCreateLocked(sh, id, now)
	e.lastSeenAt = now
	e.counters.PointerMoves += delta.PointerMoves
	e.counters.Scrolls += delta.Scrolls
	e.counters.Clicks += delta.Clicks
	e.counters.InputEvents += delta.InputEvents
	e.counters.PagesVisited += delta.PagesVisited
	e.counters.ResourceRequests += delta.ResourceRequests
	e.counters.Searches += delta.Searches
	e.counters.APICalls += delta.APICalls
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e := s.getOrCreateLocked(sh, id, s.now())
	e.lastSeenAt = s.now()
	return nil
}

func (s *MemoryStore) Extract(_ context.Context, id string, now time.Time) (Snapshot, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e := s.getOrCreateLocked(sh, id, now)
	snap := snapshotOf(id, e)
	e.prevExtractionAt = now
	e.lastSeenAt = now
	return snap, nil
}

// Len reports the number of live sessions across all shards.
func (s *MemoryStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.sessions)
		sh.mu.Unlock()
	}
	return total
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Sweep evicts sessions whose last-seen is older than the TTL.
func (s *MemoryStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.sessions {
			if e.lastSeenAt.Before(cutoff) {
				delete(sh.sessions, id)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
