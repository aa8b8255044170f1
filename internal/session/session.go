package session

import (
	"errors"
	"time"
)

// ErrStoreUnavailable wraps backend failures (Redis down, context expired).
// Callers treat it as transient and degrade rather than fail the request.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Counters are the running behavioral tallies for one session.
type Counters struct {
	PointerMoves     int64 `json:"pointer_moves"`
	Scrolls          int64 `json:"scrolls"`
	Clicks           int64 `json:"clicks"`
	InputEvents      int64 `json:"input_events"`
	PagesVisited     int64 `json:"pages_visited"`
	ResourceRequests int64 `json:"resource_requests"`
	Searches         int64 `json:"searches"`
	APICalls         int64 `json:"api_calls"`
}

// Delta is one batch of counter increments reported by a signal collector.
// All fields are non-negative increments.
type Delta struct {
	PointerMoves     int64 `json:"pointer_moves,omitempty"`
	Scrolls          int64 `json:"scrolls,omitempty"`
	Clicks           int64 `json:"clicks,omitempty"`
	InputEvents      int64 `json:"input_events,omitempty"`
	PagesVisited     int64 `json:"pages_visited,omitempty"`
	ResourceRequests int64 `json:"resource_requests,omitempty"`
	Searches         int64 `json:"searches,omitempty"`
	APICalls         int64 `json:"api_calls,omitempty"`
}

// Snapshot is an immutable copy of one session's state at a point in time.
type Snapshot struct {
	ID               string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	PrevExtractionAt time.Time // zero until the first scoring pass
	Counters         Counters
}
