package detect

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snaretech/snare/internal/feature"
	"github.com/snaretech/snare/internal/honeypot"
	"github.com/snaretech/snare/internal/metrics"
	"github.com/snaretech/snare/internal/score"
	"github.com/snaretech/snare/internal/session"
	"github.com/snaretech/snare/internal/signal"
	"github.com/snaretech/snare/internal/verdictlog"
)

// storeRetries is how many times a failed session store call is retried
// before the error surfaces as transient. Each retry waits storeRetryDelay
// doubled per attempt so a momentary blip is not hammered.
const (
	storeRetries    = 2
	storeRetryDelay = 50 * time.Millisecond
)

// Detector orchestrates the scoring pipeline: session state, feature
// extraction, scoring, and verdict fan-out. One instance serves all
// requests of a deployment.
type Detector struct {
	store    session.Store
	registry *score.Registry
	traps    *honeypot.Instrumenter
	sinks    []verdictlog.Sink
	index    *verdictlog.Index
	agg      *verdictlog.Aggregator
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	now      func() time.Time
}

type Options struct {
	Store    session.Store
	Registry *score.Registry
	Traps    *honeypot.Instrumenter
	Sinks    []verdictlog.Sink
	Index    *verdictlog.Index
	Agg      *verdictlog.Aggregator
	Metrics  *metrics.Metrics
	Logger   *logrus.Logger
}

func New(opts Options) (*Detector, error) {
	if opts.Store == nil {
		return nil, &ConfigurationError{Reason: "detector requires a session store"}
	}
	if opts.Registry == nil {
		return nil, &ConfigurationError{Reason: "detector requires a parameter registry"}
	}
	if opts.Traps == nil {
		return nil, &ConfigurationError{Reason: "detector requires a trap instrumenter"}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Index == nil {
		opts.Index = verdictlog.NewIndex(0)
	}
	if opts.Agg == nil {
		opts.Agg = verdictlog.NewAggregator()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	return &Detector{
		store:    opts.Store,
		registry: opts.Registry,
		traps:    opts.Traps,
		sinks:    opts.Sinks,
		index:    opts.Index,
		agg:      opts.Agg,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      time.Now,
	}, nil
}

// Index exposes the recent-verdict index for feedback validation.
func (d *Detector) Index() *verdictlog.Index { return d.index }

// Aggregator exposes the rolling verdict totals for the stats endpoint.
func (d *Detector) Aggregator() *verdictlog.Aggregator { return d.agg }

// ReportSignals folds a batch of behavioral counter increments into the
// session. It emits no verdict; signals only change state consulted by a
// later Score call.
func (d *Detector) ReportSignals(ctx context.Context, sessionID string, delta session.Delta) error {
	if sessionID == "" {
		return &InputError{Field: "session_id", Reason: "must not be empty"}
	}
	if err := validateDelta(delta); err != nil {
		return err
	}

	var err error
	for attempt := 0; attempt <= storeRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &TransientStoreError{Err: err}
			case <-time.After(storeRetryDelay << (attempt - 1)):
			}
		}
		if err = d.store.Update(ctx, sessionID, delta); err == nil {
			d.metrics.SignalsIngested.Inc()
			return nil
		}
		if !errors.Is(err, session.ErrStoreUnavailable) {
			return err
		}
	}
	return &TransientStoreError{Err: err}
}

func validateDelta(delta session.Delta) error {
	fields := []struct {
		name  string
		value int64
	}{
		{"pointer_moves", delta.PointerMoves},
		{"scrolls", delta.Scrolls},
		{"clicks", delta.Clicks},
		{"input_events", delta.InputEvents},
		{"pages_visited", delta.PagesVisited},
		{"resource_requests", delta.ResourceRequests},
		{"searches", delta.Searches},
		{"api_calls", delta.APICalls},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &InputError{Field: f.name, Reason: "must not be negative"}
		}
	}
	return nil
}

// Score produces a verdict for the session in its current state. A session
// store outage degrades scoring to request-context features only; the
// caller still gets a verdict.
func (d *Detector) Score(ctx context.Context, sessionID string, snap signal.Snapshot) (score.Verdict, error) {
	if sessionID == "" {
		return score.Verdict{}, &InputError{Field: "session_id", Reason: "must not be empty"}
	}

	now := d.now()
	start := time.Now()

	sess, err := d.store.Extract(ctx, sessionID, now)
	if err != nil {
		if !errors.Is(err, session.ErrStoreUnavailable) {
			return score.Verdict{}, err
		}
		d.logger.WithError(err).WithField("session_id", sessionID).
			Warn("session store unavailable, scoring on request context only")
		sess = session.Snapshot{ID: sessionID, CreatedAt: now, LastSeenAt: now}
	}

	vector := feature.Extract(sess, snap, now)
	verdict := score.ScoreAt(vector, d.registry.Current(), now)

	d.metrics.ObserveScoringDuration(time.Since(start))
	d.metrics.IncrementVerdicts(string(verdict.Category))
	d.emit(verdict)
	return verdict, nil
}

// ReportTrap converts a trap interaction into a maximum-confidence bot
// verdict. Forged or mangled trap IDs are rejected without emitting
// anything, so probing the endpoint cannot pollute stored verdicts.
func (d *Detector) ReportTrap(ctx context.Context, sessionID, trapID string) (score.Verdict, error) {
	if sessionID == "" {
		return score.Verdict{}, &InputError{Field: "session_id", Reason: "must not be empty"}
	}

	kind, err := d.traps.Validate(trapID)
	if err != nil {
		return score.Verdict{}, &InputError{Field: "trap_id", Reason: "not a valid trap id"}
	}

	// Trap hits still refresh the session so later scores see the activity
	// window. A store outage does not block the verdict.
	if err := d.store.Touch(ctx, sessionID); err != nil {
		d.logger.WithError(err).WithField("session_id", sessionID).
			Warn("failed to touch session on trap hit")
	}

	verdict := score.TrapVerdict(sessionID, string(kind), trapID, d.now())
	d.metrics.IncrementTrapTriggers(string(kind))
	d.metrics.IncrementVerdicts(string(verdict.Category))
	d.emit(verdict)
	return verdict, nil
}

// emit fans a verdict out to the index, the aggregator, and every
// configured sink. Sink failures are counted and logged, never returned:
// verdict delivery to the caller wins over durability.
func (d *Detector) emit(v score.Verdict) {
	record := verdictlog.FromVerdict(v)
	d.index.Add(record)
	_ = d.agg.Enqueue(record)

	for _, s := range d.sinks {
		if err := s.Enqueue(record); err != nil {
			d.metrics.IncrementSinkErrors(s.Name())
			d.logger.WithError(err).WithField("sink", s.Name()).Error("failed to enqueue verdict")
		}
	}
}
