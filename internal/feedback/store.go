package feedback

import (
	"sync"
	"time"
)

// Entry is one human correction referencing a verdict by ID. Append-only.
type Entry struct {
	VerdictID   string    `json:"verdict_id"`
	ActualIsBot bool      `json:"actual_is_bot"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Store accumulates feedback entries between calibration passes. Accepted
// entries are idempotent per verdict ID: retrying a submission never
// double-counts, even after the original entry has been consumed by a
// calibration pass. Rejected entries (unknown verdict IDs) are kept too, so
// operators can see what the dashboard tried to correct.
type Store struct {
	mu       sync.Mutex
	accepted map[string]Entry
	consumed map[string]bool
	rejected []Entry
}

func NewStore() *Store {
	return &Store{
		accepted: make(map[string]Entry),
		consumed: make(map[string]bool),
	}
}

// Add records an accepted entry. Returns false if the verdict already has
// feedback, in which case the original entry stands.
func (s *Store) Add(e Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accepted[e.VerdictID]; ok {
		return false
	}
	s.accepted[e.VerdictID] = e
	return true
}

// Reject records an entry that referenced an unknown verdict.
func (s *Store) Reject(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, e)
}

// Pending returns the accepted entries no calibration pass has consumed yet.
func (s *Store) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.accepted))
	for id, e := range s.accepted {
		if !s.consumed[id] {
			out = append(out, e)
		}
	}
	return out
}

// Consume marks entries as applied so the next pass starts from a clean
// slate. The entries stay in the accepted set for duplicate detection.
func (s *Store) Consume(verdictIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range verdictIDs {
		s.consumed[id] = true
	}
}

func (s *Store) AcceptedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accepted)
}

func (s *Store) RejectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rejected)
}
