package feedback

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snaretech/snare/internal/detect"
	"github.com/snaretech/snare/internal/score"
	"github.com/snaretech/snare/internal/verdictlog"
)

const (
	// adjustRate caps how far one calibration pass can move a single
	// behavioral weight.
	adjustRate = 0.1

	// minWeight keeps every dimension in play so a temporarily-misleading
	// batch of feedback cannot permanently zero a signal out.
	minWeight = 0.02
)

// Loop is the calibration loop: it accepts verdict corrections and
// periodically derives a new scoring parameter version from them.
// Recompute publishes through the registry, so in-flight scoring keeps
// whatever version it read and is never blocked.
type Loop struct {
	store    *Store
	index    *verdictlog.Index
	registry *score.Registry
	logger   *logrus.Logger
	now      func() time.Time
}

func NewLoop(store *Store, index *verdictlog.Index, registry *score.Registry, logger *logrus.Logger) *Loop {
	if logger == nil {
		logger = logrus.New()
	}
	return &Loop{
		store:    store,
		index:    index,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Record appends a correction for a prior verdict. An unknown verdict ID is
// recorded as rejected and reported back; a duplicate for an
// already-corrected verdict is accepted silently so retries stay safe.
func (l *Loop) Record(verdictID string, actualIsBot bool) error {
	if verdictID == "" {
		return &detect.InputError{Field: "verdict_id", Reason: "must not be empty"}
	}

	entry := Entry{VerdictID: verdictID, ActualIsBot: actualIsBot, ReceivedAt: l.now()}
	if _, ok := l.index.Get(verdictID); !ok {
		l.store.Reject(entry)
		return &detect.NotFoundError{Kind: "verdict", ID: verdictID}
	}

	l.store.Add(entry)
	return nil
}

// Recompute derives and publishes the next parameter version from feedback
// received since the last pass. Dimensions whose breach showed up in
// confirmed bot verdicts gain weight; dimensions implicated in false
// positives lose it. Each correction is consumed by the pass that applies
// it, so a pass with nothing new keeps the current version and publishes
// nothing.
func (l *Loop) Recompute() (*score.Parameters, error) {
	current := l.registry.Current()
	entries := l.store.Pending()

	type tally struct{ confirmed, falsePositive int }
	tallies := make(map[string]*tally)
	for _, name := range dimensionNames {
		tallies[name] = &tally{}
	}

	paired := 0
	for _, e := range entries {
		record, ok := l.index.Get(e.VerdictID)
		if !ok {
			continue // verdict aged out of the index since submission
		}
		if record.BotType == string(score.CategoryTrapTriggered) {
			continue // axiomatic verdicts carry no tunable signal
		}
		paired++
		for name, t := range tallies {
			if !recordImplicates(record, name) {
				continue
			}
			if e.ActualIsBot {
				t.confirmed++
			} else {
				t.falsePositive++
			}
		}
	}

	if paired == 0 {
		return current, nil
	}

	next := current.Clone()
	next.Version = current.Version + 1

	weights := map[string]*score.Dimension{
		"navigation_interval": &next.Behavior.NavigationMs,
		"pointer_moves":       &next.Behavior.PointerMoves,
		"scrolls":             &next.Behavior.Scrolls,
		"clicks":              &next.Behavior.Clicks,
		"input_events":        &next.Behavior.InputEvents,
	}

	sum := 0.0
	for name, dim := range weights {
		t := tallies[name]
		if n := t.confirmed + t.falsePositive; n > 0 {
			shift := adjustRate * float64(t.confirmed-t.falsePositive) / float64(n)
			dim.Weight *= 1 + shift
		}
		if dim.Weight < minWeight {
			dim.Weight = minWeight
		}
		sum += dim.Weight
	}
	// Weights must stay a unit distribution.
	for _, dim := range weights {
		dim.Weight /= sum
	}

	// The technical add-on dimensions shift the same way but are not part
	// of the behavioral distribution, so no renormalization.
	techWeights := map[string]*score.Dimension{
		"capability_consistency": &next.Technical.CapabilityConsistency,
		"network_reputation":     &next.Technical.NetworkReputation,
	}
	for name, dim := range techWeights {
		t := tallies[name]
		if n := t.confirmed + t.falsePositive; n > 0 {
			shift := adjustRate * float64(t.confirmed-t.falsePositive) / float64(n)
			dim.Weight *= 1 + shift
		}
		if dim.Weight < minWeight {
			dim.Weight = minWeight
		}
		if dim.Weight > 1 {
			dim.Weight = 1
		}
	}

	if err := next.Compile(); err != nil {
		return nil, &detect.ConfigurationError{Reason: "recomputed parameters invalid", Err: err}
	}
	if err := l.registry.Publish(next); err != nil {
		return nil, err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.VerdictID
	}
	l.store.Consume(ids)

	l.logger.WithFields(logrus.Fields{
		"version":       next.Version,
		"feedback_used": paired,
	}).Info("published recalibrated scoring parameters")
	return next, nil
}

// Run recomputes on a fixed interval until the context is cancelled. A
// failed pass is logged and the previous version keeps serving.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := l.Recompute(); err != nil {
				l.logger.WithError(err).Error("parameter recompute failed")
			}
		}
	}
}

var dimensionNames = []string{
	"navigation_interval", "pointer_moves", "scrolls", "clicks", "input_events",
	"capability_consistency", "network_reputation",
}

// recordImplicates reports whether the verdict's contribution breakdown
// names the given behavioral dimension.
func recordImplicates(r verdictlog.Record, dimension string) bool {
	for _, c := range r.Contributions {
		if c.Feature == dimension {
			return true
		}
	}
	return false
}
