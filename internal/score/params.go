package score

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// PatternRule maps a client-identification pattern to a bot category. Rules
// are evaluated in order and the first match wins, so more specific
// patterns must precede generic ones.
type PatternRule struct {
	Pattern    string   `json:"pattern"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`

	re *regexp.Regexp
}

// Dimension is one behavioral threshold: a breach adds Weight to the
// behavioral accumulator.
type Dimension struct {
	Threshold float64 `json:"threshold"`
	Weight    float64 `json:"weight"`
}

// BehaviorThresholds configures the behavioral pass. Navigation breaches
// when the interval is below the threshold; the count dimensions breach
// when the count is below the threshold (automation rarely moves a pointer).
type BehaviorThresholds struct {
	NavigationMs Dimension `json:"navigation_ms"`
	PointerMoves Dimension `json:"pointer_moves"`
	Scrolls      Dimension `json:"scrolls"`
	Clicks       Dimension `json:"clicks"`
	InputEvents  Dimension `json:"input_events"`
}

// TechnicalThresholds configures the secondary technical signals layered on
// top of the pattern match. Capability consistency breaches when the
// coherence score falls below its threshold; network reputation breaches
// when the origin score rises above its threshold (hosting infrastructure).
type TechnicalThresholds struct {
	CapabilityConsistency Dimension `json:"capability_consistency"`
	NetworkReputation     Dimension `json:"network_reputation"`
}

// Parameters is one immutable-once-published version of the scoring
// configuration. New versions come from the calibration loop.
type Parameters struct {
	Version int64 `json:"version"`

	Patterns  []PatternRule       `json:"patterns"`
	Technical TechnicalThresholds `json:"technical"`
	Behavior  BehaviorThresholds  `json:"behavior"`

	TechnicalWeight   float64 `json:"technical_weight"`
	BehavioralWeight  float64 `json:"behavioral_weight"`
	BotThreshold      float64 `json:"bot_threshold"`
	MaterialityWeight float64 `json:"materiality_weight"`
}

// Defaults is the known-safe baked-in parameter set used when no file is
// configured or as the fallback origin for calibration.
func Defaults() *Parameters {
	p := &Parameters{
		Version: 1,
		Patterns: []PatternRule{
			{Pattern: `(?i)(hydra|medusa|sentry.?mba|openbullet|snipr)`, Category: CategoryCredentialStuffer, Confidence: 0.95},
			{Pattern: `(?i)(python-requests|python-urllib|go-http-client|curl/|wget/|libwww|okhttp|scrapy|aiohttp|httpclient)`, Category: CategoryScraper, Confidence: 0.9},
			{Pattern: `(?i)(headless|phantomjs|selenium|webdriver|puppeteer|playwright)`, Category: CategoryScraper, Confidence: 0.85},
			{Pattern: `(?i)(googlebot|bingbot|yandexbot|baiduspider|duckduckbot|slurp|semrushbot|ahrefsbot)`, Category: CategoryCrawler, Confidence: 0.8},
			{Pattern: `(?i)(bot|crawler|spider|scraper)`, Category: CategoryUnknownBot, Confidence: 0.7},
		},
		Technical: TechnicalThresholds{
			CapabilityConsistency: Dimension{Threshold: 0.6, Weight: 0.2},
			NetworkReputation:     Dimension{Threshold: 0.7, Weight: 0.25},
		},
		Behavior: BehaviorThresholds{
			NavigationMs: Dimension{Threshold: 1000, Weight: 0.3},
			PointerMoves: Dimension{Threshold: 3, Weight: 0.25},
			Scrolls:      Dimension{Threshold: 1, Weight: 0.15},
			Clicks:       Dimension{Threshold: 1, Weight: 0.1},
			InputEvents:  Dimension{Threshold: 1, Weight: 0.2},
		},
		TechnicalWeight:   0.6,
		BehavioralWeight:  0.4,
		BotThreshold:      0.6,
		MaterialityWeight: 0.1,
	}
	if err := p.Compile(); err != nil {
		// Defaults are covered by tests; a compile failure here is a bug.
		panic(fmt.Sprintf("default scoring parameters invalid: %v", err))
	}
	return p
}

// Compile validates the parameter set and compiles its patterns. Published
// parameters are always compiled.
func (p *Parameters) Compile() error {
	if p.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", p.Version)
	}
	if !almostOne(p.TechnicalWeight + p.BehavioralWeight) {
		return fmt.Errorf("technical_weight + behavioral_weight must equal 1, got %v",
			p.TechnicalWeight+p.BehavioralWeight)
	}
	if p.BotThreshold <= 0 || p.BotThreshold >= 1 {
		return fmt.Errorf("bot_threshold must be in (0,1), got %v", p.BotThreshold)
	}
	if p.MaterialityWeight < 0 || p.MaterialityWeight > 1 {
		return fmt.Errorf("materiality_weight must be in [0,1], got %v", p.MaterialityWeight)
	}

	for _, d := range []Dimension{p.Technical.CapabilityConsistency, p.Technical.NetworkReputation} {
		if d.Threshold < 0 || d.Threshold > 1 {
			return fmt.Errorf("technical threshold must be in [0,1], got %v", d.Threshold)
		}
		if d.Weight < 0 || d.Weight > 1 {
			return fmt.Errorf("technical weight must be in [0,1], got %v", d.Weight)
		}
	}

	sum := 0.0
	for _, d := range []Dimension{
		p.Behavior.NavigationMs, p.Behavior.PointerMoves, p.Behavior.Scrolls,
		p.Behavior.Clicks, p.Behavior.InputEvents,
	} {
		if d.Threshold < 0 {
			return fmt.Errorf("behavioral threshold must be non-negative, got %v", d.Threshold)
		}
		if d.Weight < 0 {
			return fmt.Errorf("behavioral weight must be non-negative, got %v", d.Weight)
		}
		sum += d.Weight
	}
	if !almostOne(sum) {
		return fmt.Errorf("behavioral weights must sum to 1, got %v", sum)
	}

	seen := make(map[string]bool, len(p.Patterns))
	for i := range p.Patterns {
		rule := &p.Patterns[i]
		if seen[rule.Pattern] {
			return fmt.Errorf("duplicate pattern %q", rule.Pattern)
		}
		seen[rule.Pattern] = true
		if rule.Confidence < 0 || rule.Confidence > 1 {
			return fmt.Errorf("pattern %q confidence must be in [0,1], got %v", rule.Pattern, rule.Confidence)
		}
		switch rule.Category {
		case CategoryScraper, CategoryCrawler, CategoryCredentialStuffer, CategoryUnknownBot:
		default:
			return fmt.Errorf("pattern %q has non-bot category %q", rule.Pattern, rule.Category)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", rule.Pattern, err)
		}
		rule.re = re
	}

	return nil
}

// LoadFile reads and validates a parameters JSON file. Any failure here is
// a configuration error: the caller must refuse to start rather than score
// with undefined weights.
func LoadFile(path string) (*Parameters, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring parameters: %w", err)
	}
	var p Parameters
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse scoring parameters: %w", err)
	}
	if err := p.Compile(); err != nil {
		return nil, fmt.Errorf("validate scoring parameters: %w", err)
	}
	return &p, nil
}

// Clone copies the parameter set so a calibration pass can derive the next
// version without touching the published one.
func (p *Parameters) Clone() *Parameters {
	cp := *p
	cp.Patterns = make([]PatternRule, len(p.Patterns))
	copy(cp.Patterns, p.Patterns)
	return &cp
}

func almostOne(f float64) bool {
	const eps = 1e-6
	return f > 1-eps && f < 1+eps
}
