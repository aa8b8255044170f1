package verdictlog

import "context"

// Sink receives verdict records for durable storage or export. Enqueue must
// be cheap and non-blocking from the scoring path's perspective; failures
// degrade logging, never scoring.
type Sink interface {
	Start(ctx context.Context) error
	Enqueue(r Record) error
	Close() error
	Name() string // sink name for metrics and logging
}
