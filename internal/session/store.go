package session

import (
	"context"
	"time"
)

// Store tracks per-session state shared by all concurrent requests of a
// deployment. Updates to one session's counters are atomic; distinct
// sessions never contend with each other.
type Store interface {
	// GetOrCreate returns a snapshot, creating the session lazily.
	GetOrCreate(ctx context.Context, id string) (Snapshot, error)

	// Update applies counter increments and refreshes last-seen.
	// The session is created if it does not exist.
	Update(ctx context.Context, id string, delta Delta) error

	// Touch refreshes last-seen without changing counters.
	Touch(ctx context.Context, id string) error

	// Extract returns a snapshot for feature extraction and records now as
	// the session's extraction time. The returned snapshot carries the
	// previous extraction time, which drives the navigation interval.
	Extract(ctx context.Context, id string, now time.Time) (Snapshot, error)

	Close() error
}
