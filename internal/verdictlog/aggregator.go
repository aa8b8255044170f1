package verdictlog

import (
	"context"
	"sync"
	"time"
)

// aggregatorWindow is how far back the aggregator can answer for. Buckets
// older than this are overwritten in place as the ring wraps.
const aggregatorWindow = 60

// bucket accumulates verdict counts for a single minute.
type bucket struct {
	minute     int64 // unix minute this bucket currently represents
	total      int64
	bots       int64
	byCategory map[string]int64
}

// Summary reports verdict totals over a recent window.
type Summary struct {
	WindowMinutes int              `json:"window_minutes"`
	Total         int64            `json:"total"`
	Bots          int64            `json:"bots"`
	Humans        int64            `json:"humans"`
	ByCategory    map[string]int64 `json:"by_category"`
}

// Aggregator keeps a fixed ring of per-minute buckets so the stats endpoint
// can answer without scanning stored records. It implements Sink so it can
// sit in the same fan-out as the durable sinks.
type Aggregator struct {
	mu      sync.Mutex
	buckets [aggregatorWindow]bucket
	now     func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

func (a *Aggregator) Start(ctx context.Context) error { return nil }
func (a *Aggregator) Close() error                    { return nil }
func (a *Aggregator) Name() string                    { return "aggregator" }

func (a *Aggregator) Enqueue(r Record) error {
	minute := r.Timestamp.Unix() / 60
	a.mu.Lock()
	defer a.mu.Unlock()

	b := &a.buckets[minute%aggregatorWindow]
	if b.minute != minute {
		*b = bucket{minute: minute, byCategory: make(map[string]int64)}
	}
	b.total++
	if r.IsBot {
		b.bots++
	}
	b.byCategory[r.BotType]++
	return nil
}

// Summarize totals the last windowMinutes of buckets, clamped to the ring
// size. Buckets that wrapped past the window are skipped by minute check.
func (a *Aggregator) Summarize(windowMinutes int) Summary {
	if windowMinutes <= 0 || windowMinutes > aggregatorWindow {
		windowMinutes = aggregatorWindow
	}
	nowMinute := a.now().Unix() / 60
	oldest := nowMinute - int64(windowMinutes) + 1

	out := Summary{
		WindowMinutes: windowMinutes,
		ByCategory:    make(map[string]int64),
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.buckets {
		b := &a.buckets[i]
		if b.minute < oldest || b.minute > nowMinute {
			continue
		}
		out.Total += b.total
		out.Bots += b.bots
		for cat, n := range b.byCategory {
			out.ByCategory[cat] += n
		}
	}
	out.Humans = out.Total - out.Bots
	return out
}
