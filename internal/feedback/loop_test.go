package feedback

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snaretech/snare/internal/detect"
	"github.com/snaretech/snare/internal/score"
	"github.com/snaretech/snare/internal/verdictlog"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestLoop(t *testing.T) (*Loop, *verdictlog.Index, *score.Registry) {
	t.Helper()
	index := verdictlog.NewIndex(128)
	registry := score.NewRegistry(score.Defaults())
	loop := NewLoop(NewStore(), index, registry, quietLogger())
	return loop, index, registry
}

func botRecord(id string, dimensions ...string) verdictlog.Record {
	r := verdictlog.Record{
		VerdictID:  id,
		SessionID:  "sess-1",
		Timestamp:  time.Now(),
		IsBot:      true,
		BotType:    "UNKNOWN_BOT",
		Confidence: 0.7,
	}
	for _, d := range dimensions {
		r.Contributions = append(r.Contributions, score.Contribution{Feature: d, Weight: 0.1})
	}
	return r
}

func TestRecordValidation(t *testing.T) {
	loop, index, _ := newTestLoop(t)

	t.Run("empty verdict id", func(t *testing.T) {
		err := loop.Record("", true)
		var inputErr *detect.InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("want InputError, got %v", err)
		}
	})

	t.Run("unknown verdict id recorded as rejected", func(t *testing.T) {
		err := loop.Record("v-missing", true)
		var notFound *detect.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("want NotFoundError, got %v", err)
		}
		if loop.store.RejectedCount() != 1 {
			t.Errorf("RejectedCount = %d, want 1", loop.store.RejectedCount())
		}
	})

	t.Run("known verdict accepted", func(t *testing.T) {
		index.Add(botRecord("v-1", "pointer_moves"))
		if err := loop.Record("v-1", true); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if loop.store.AcceptedCount() != 1 {
			t.Errorf("AcceptedCount = %d, want 1", loop.store.AcceptedCount())
		}
	})
}

func TestRecordIdempotent(t *testing.T) {
	loop, index, _ := newTestLoop(t)
	index.Add(botRecord("v-1", "pointer_moves"))

	for i := 0; i < 3; i++ {
		if err := loop.Record("v-1", true); err != nil {
			t.Fatalf("Record attempt %d: %v", i, err)
		}
	}
	if loop.store.AcceptedCount() != 1 {
		t.Errorf("AcceptedCount = %d, want 1 (duplicates must not double-count)", loop.store.AcceptedCount())
	}
}

func TestRecomputeWithoutFeedbackKeepsVersion(t *testing.T) {
	loop, _, registry := newTestLoop(t)

	before := registry.Current().Version
	p, err := loop.Recompute()
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if p.Version != before {
		t.Errorf("Version = %d, want unchanged %d", p.Version, before)
	}
}

func TestRecomputeShiftsWeights(t *testing.T) {
	loop, index, registry := newTestLoop(t)

	// Confirmed bots breached pointer_moves; a false positive breached
	// scrolls. pointer weight should rise relative to scrolls.
	for _, id := range []string{"v-1", "v-2", "v-3"} {
		index.Add(botRecord(id, "pointer_moves"))
		if err := loop.Record(id, true); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	index.Add(botRecord("v-4", "scrolls"))
	if err := loop.Record("v-4", false); err != nil {
		t.Fatalf("Record: %v", err)
	}

	before := registry.Current()
	next, err := loop.Recompute()
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	if next.Version != before.Version+1 {
		t.Errorf("Version = %d, want %d", next.Version, before.Version+1)
	}
	beforeRatio := before.Behavior.PointerMoves.Weight / before.Behavior.Scrolls.Weight
	afterRatio := next.Behavior.PointerMoves.Weight / next.Behavior.Scrolls.Weight
	if afterRatio <= beforeRatio {
		t.Errorf("pointer/scroll weight ratio should grow: before %v after %v", beforeRatio, afterRatio)
	}

	sum := next.Behavior.NavigationMs.Weight + next.Behavior.PointerMoves.Weight +
		next.Behavior.Scrolls.Weight + next.Behavior.Clicks.Weight + next.Behavior.InputEvents.Weight
	if sum < 0.999999 || sum > 1.000001 {
		t.Errorf("behavioral weights must renormalize to 1, got %v", sum)
	}

	if registry.Current().Version != next.Version {
		t.Error("recomputed parameters should be published")
	}
}

func TestRecomputeConsumesAppliedFeedback(t *testing.T) {
	loop, index, registry := newTestLoop(t)

	for _, id := range []string{"v-1", "v-2", "v-3"} {
		index.Add(botRecord(id, "pointer_moves"))
		if err := loop.Record(id, true); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	first, err := loop.Recompute()
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	weight := first.Behavior.PointerMoves.Weight

	// Nothing new arrived: the next pass must not publish or shift again.
	second, err := loop.Recompute()
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if second.Version != first.Version {
		t.Errorf("idle pass published version %d, want %d unchanged", second.Version, first.Version)
	}
	if second.Behavior.PointerMoves.Weight != weight {
		t.Errorf("idle pass moved pointer weight %v to %v", weight, second.Behavior.PointerMoves.Weight)
	}
	if registry.Current().Version != first.Version {
		t.Errorf("registry advanced to %d without new feedback", registry.Current().Version)
	}
}

func TestRecomputeAdjustsTechnicalWeights(t *testing.T) {
	loop, index, registry := newTestLoop(t)

	// Humans flagged via network reputation are false positives: its
	// weight should fall.
	for _, id := range []string{"v-1", "v-2"} {
		index.Add(botRecord(id, "network_reputation"))
		if err := loop.Record(id, false); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	before := registry.Current().Technical.NetworkReputation.Weight
	next, err := loop.Recompute()
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if next.Technical.NetworkReputation.Weight >= before {
		t.Errorf("reputation weight should fall after false positives: before %v after %v",
			before, next.Technical.NetworkReputation.Weight)
	}
}

func TestRecomputeVersionsMonotonic(t *testing.T) {
	loop, index, registry := newTestLoop(t)

	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		index.Add(botRecord("v-"+id, "clicks"))
		if err := loop.Record("v-"+id, true); err != nil {
			t.Fatalf("Record: %v", err)
		}

		before := registry.Current().Version
		next, err := loop.Recompute()
		if err != nil {
			t.Fatalf("Recompute %d: %v", i, err)
		}
		if next.Version != before+1 {
			t.Errorf("pass %d: Version = %d, want %d", i, next.Version, before+1)
		}
	}
}

func TestRecomputeIgnoresTrapVerdicts(t *testing.T) {
	loop, index, registry := newTestLoop(t)

	index.Add(verdictlog.Record{
		VerdictID: "v-trap", SessionID: "sess-1", Timestamp: time.Now(),
		IsBot: true, BotType: string(score.CategoryTrapTriggered), Confidence: score.TrapConfidence,
	})
	if err := loop.Record("v-trap", true); err != nil {
		t.Fatalf("Record: %v", err)
	}

	before := registry.Current().Version
	p, err := loop.Recompute()
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if p.Version != before {
		t.Error("trap-only feedback should not publish a new version")
	}
}

func TestRecomputeDoesNotDisturbConcurrentScoring(t *testing.T) {
	loop, index, registry := newTestLoop(t)

	index.Add(botRecord("v-1", "input_events"))
	if err := loop.Record("v-1", true); err != nil {
		t.Fatalf("Record: %v", err)
	}

	held := registry.Current()
	if _, err := loop.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	// A reader that grabbed parameters before the publish still holds a
	// valid, unmodified set.
	if held.Version != 1 {
		t.Errorf("held version mutated to %d", held.Version)
	}
	if err := held.Compile(); err != nil {
		t.Errorf("held parameters corrupted: %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	loop, _, _ := newTestLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
