package feature

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"time"

	"github.com/snaretech/snare/internal/session"
	"github.com/snaretech/snare/internal/signal"
)

// FirstContactIntervalMs is the navigation-interval sentinel for a session's
// first extraction. Deliberately "slow" so first contact never reads as
// rapid-fire navigation.
const FirstContactIntervalMs = 3_600_000

// Extract builds a Vector from a session snapshot and request evidence. Pure
// in its inputs plus the supplied clock; it never fails. Missing signals
// default to neutral values; partial information is the common case.
func Extract(sess session.Snapshot, snap signal.Snapshot, now time.Time) Vector {
	v := Vector{
		SessionID:  sess.ID,
		ObservedAt: now,
	}

	v.Technical = Technical{
		UserAgent:             snap.UserAgent,
		CapabilityConsistency: capabilityConsistency(snap),
		NetworkReputation:     snap.Reputation,
		Fingerprint:           Fingerprint(snap),
	}

	interval := float64(FirstContactIntervalMs)
	if !sess.PrevExtractionAt.IsZero() {
		interval = float64(now.Sub(sess.PrevExtractionAt).Milliseconds())
	}

	var duration float64
	if !sess.CreatedAt.IsZero() {
		duration = float64(now.Sub(sess.CreatedAt).Milliseconds())
	}

	v.Behavioral = Behavioral{
		NavigationIntervalMs: nonNegative(interval),
		PointerMoves:         clampCount(sess.Counters.PointerMoves),
		Scrolls:              clampCount(sess.Counters.Scrolls),
		Clicks:               clampCount(sess.Counters.Clicks),
		InputEvents:          clampCount(sess.Counters.InputEvents),
		SessionDurationMs:    nonNegative(duration),
	}

	v.Content = Content{
		PagesVisited:     clampCount(sess.Counters.PagesVisited),
		ResourceRequests: clampCount(sess.Counters.ResourceRequests),
		Searches:         clampCount(sess.Counters.Searches),
		APICalls:         clampCount(sess.Counters.APICalls),
	}

	return v
}

// capabilityConsistency scores how coherent the client's declared identity
// is. 1.0 is a fully browser-shaped request; contradictions subtract.
func capabilityConsistency(snap signal.Snapshot) float64 {
	score := 1.0
	score -= 0.15 * float64(len(snap.Headers.MissingExpected))
	score -= 0.25 * float64(len(snap.Headers.InconsistentValues))
	if len(snap.Headers.AutomationHeaders) > 0 {
		score -= 0.3
	}
	if snap.UA.ContainsAutomation {
		score -= 0.3
	}
	if snap.UA.DeclaredBot {
		score -= 0.3
	}
	// A claimed browser on an unrecognizable device is a weak contradiction.
	if !snap.UA.DeviceKnown && snap.UA.Browser != "" {
		score -= 0.1
	}
	if score < 0 {
		return 0
	}
	return score
}

// Fingerprint hashes deterministic request attributes only. Verdict state is
// excluded so scores can never feed back into their own input.
func Fingerprint(snap signal.Snapshot) string {
	parts := []string{snap.UserAgent, snap.ClientIP}
	missing := append([]string(nil), snap.Headers.MissingExpected...)
	sort.Strings(missing)
	parts = append(parts, missing...)

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:8])
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func clampCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
