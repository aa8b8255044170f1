package score

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/snaretech/snare/internal/feature"
)

// TrapConfidence is the confidence assigned to trap-trigger verdicts. Just
// under 1 so log consumers can tell axiomatic evidence from combined
// scoring that happened to saturate.
const TrapConfidence = 0.98

// Score classifies one feature vector under one parameter version. It is
// deterministic: identical inputs always produce the same is_bot, category,
// confidence, contributions, and reasons (verdict ID and timestamp aside).
func Score(v feature.Vector, p *Parameters) Verdict {
	return ScoreAt(v, p, time.Now())
}

func ScoreAt(v feature.Vector, p *Parameters, now time.Time) Verdict {
	verdict := Verdict{
		ID:          uuid.NewString(),
		SessionID:   v.SessionID,
		Fingerprint: v.Technical.Fingerprint,
		UserAgent:   v.Technical.UserAgent,
		Timestamp:   now,
	}

	type breach struct {
		feature string
		weight  float64
		reason  string
	}

	// Technical pass: ordered first-match against the pattern rules, plus
	// the secondary signals layered on top of whatever the pattern scored.
	var (
		pattern         float64
		matchedCategory Category
		matchedReason   string
	)
	for i := range p.Patterns {
		rule := &p.Patterns[i]
		if rule.re.MatchString(v.Technical.UserAgent) {
			pattern = rule.Confidence
			matchedCategory = rule.Category
			matchedReason = fmt.Sprintf("client identification matched %s pattern %q",
				rule.Category, rule.Pattern)
			break
		}
	}

	var techBreaches []breach
	if v.Technical.CapabilityConsistency < p.Technical.CapabilityConsistency.Threshold {
		techBreaches = append(techBreaches, breach{
			feature: "capability_consistency",
			weight:  p.Technical.CapabilityConsistency.Weight,
			reason: fmt.Sprintf("declared capability coherence %.2f below %.2f",
				v.Technical.CapabilityConsistency, p.Technical.CapabilityConsistency.Threshold),
		})
	}
	if v.Technical.NetworkReputation > p.Technical.NetworkReputation.Threshold {
		techBreaches = append(techBreaches, breach{
			feature: "network_reputation",
			weight:  p.Technical.NetworkReputation.Weight,
			reason: fmt.Sprintf("origin network reputation %.2f above hosting threshold %.2f",
				v.Technical.NetworkReputation, p.Technical.NetworkReputation.Threshold),
		})
	}

	technical := pattern
	for _, br := range techBreaches {
		technical += br.weight
	}
	technical = clamp01(technical)

	// Behavioral pass: each breached dimension adds its weight.
	var breaches []breach
	b := v.Behavioral
	dims := p.Behavior
	if b.NavigationIntervalMs < dims.NavigationMs.Threshold {
		breaches = append(breaches, breach{
			feature: "navigation_interval",
			weight:  dims.NavigationMs.Weight,
			reason: fmt.Sprintf("navigation interval %.0fms below %.0fms",
				b.NavigationIntervalMs, dims.NavigationMs.Threshold),
		})
	}
	if float64(b.PointerMoves) < dims.PointerMoves.Threshold {
		breaches = append(breaches, breach{
			feature: "pointer_moves",
			weight:  dims.PointerMoves.Weight,
			reason: fmt.Sprintf("%d pointer movements below expected minimum %.0f",
				b.PointerMoves, dims.PointerMoves.Threshold),
		})
	}
	if float64(b.Scrolls) < dims.Scrolls.Threshold {
		breaches = append(breaches, breach{
			feature: "scrolls",
			weight:  dims.Scrolls.Weight,
			reason:  fmt.Sprintf("%d scroll events below expected minimum %.0f", b.Scrolls, dims.Scrolls.Threshold),
		})
	}
	if float64(b.Clicks) < dims.Clicks.Threshold {
		breaches = append(breaches, breach{
			feature: "clicks",
			weight:  dims.Clicks.Weight,
			reason:  fmt.Sprintf("%d click events below expected minimum %.0f", b.Clicks, dims.Clicks.Threshold),
		})
	}
	if float64(b.InputEvents) < dims.InputEvents.Threshold {
		breaches = append(breaches, breach{
			feature: "input_events",
			weight:  dims.InputEvents.Weight,
			reason:  fmt.Sprintf("%d input interactions below expected minimum %.0f", b.InputEvents, dims.InputEvents.Threshold),
		})
	}

	behavioral := 0.0
	for _, br := range breaches {
		behavioral += br.weight
	}
	behavioral = clamp01(behavioral)

	combined := clamp01(technical*p.TechnicalWeight + behavioral*p.BehavioralWeight)
	verdict.IsBot = combined > p.BotThreshold

	switch {
	case !verdict.IsBot:
		verdict.Category = CategoryHuman
	case matchedCategory != "":
		verdict.Category = matchedCategory
	default:
		verdict.Category = CategoryUnknownBot
	}

	// Confidence is relative to the returned class.
	if verdict.IsBot {
		verdict.Confidence = combined
	} else {
		verdict.Confidence = 1 - combined
	}
	verdict.Confidence = clamp01(verdict.Confidence)

	// Contributions and reasons; reasons only for material contributions.
	if pattern > 0 {
		verdict.Contributions = append(verdict.Contributions, Contribution{
			Feature: "user_agent_pattern",
			Weight:  pattern * p.TechnicalWeight,
		})
		verdict.Reasons = append(verdict.Reasons, matchedReason)
	}
	for _, br := range techBreaches {
		weighted := br.weight * p.TechnicalWeight
		verdict.Contributions = append(verdict.Contributions, Contribution{
			Feature: br.feature,
			Weight:  weighted,
		})
		if weighted >= p.MaterialityWeight {
			verdict.Reasons = append(verdict.Reasons, br.reason)
		}
	}
	for _, br := range breaches {
		weighted := br.weight * p.BehavioralWeight
		verdict.Contributions = append(verdict.Contributions, Contribution{
			Feature: br.feature,
			Weight:  weighted,
		})
		if weighted >= p.MaterialityWeight {
			verdict.Reasons = append(verdict.Reasons, br.reason)
		}
	}

	// A bot verdict never goes out without at least one reason.
	if verdict.IsBot && len(verdict.Reasons) == 0 {
		verdict.Reasons = append(verdict.Reasons,
			fmt.Sprintf("combined weak signals scored %.2f above threshold %.2f", combined, p.BotThreshold))
	}

	return verdict
}

// TrapVerdict bypasses scoring entirely: no legitimate client can interact
// with a trap, so a trigger is maximum-confidence bot evidence.
func TrapVerdict(sessionID, trapKind, trapID string, now time.Time) Verdict {
	return Verdict{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		IsBot:      true,
		Category:   CategoryTrapTriggered,
		Confidence: TrapConfidence,
		Timestamp:  now,
		Contributions: []Contribution{
			{Feature: "trap:" + trapKind, Weight: TrapConfidence},
		},
		Reasons: []string{
			fmt.Sprintf("interaction with %s trap %s", trapKind, trapID),
		},
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
