package score

import "time"

// Category is the classification a verdict assigns.
type Category string

const (
	CategoryHuman             Category = "HUMAN"
	CategoryScraper           Category = "SCRAPER"
	CategoryCrawler           Category = "CRAWLER"
	CategoryCredentialStuffer Category = "CREDENTIAL_STUFFER"
	CategoryUnknownBot        Category = "UNKNOWN_BOT"
	CategoryTrapTriggered     Category = "TRAP_TRIGGERED"
)

// Contribution records one feature's weight toward a verdict, in emission
// order.
type Contribution struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// Verdict is one scoring call's output. Append-only once created;
// corrections arrive as feedback records referencing it by ID.
type Verdict struct {
	ID          string    `json:"verdict_id"`
	SessionID   string    `json:"session_id"`
	IsBot       bool      `json:"is_bot"`
	Category    Category  `json:"category"`
	Confidence  float64   `json:"confidence"` // confidence in the returned category
	Fingerprint string    `json:"fingerprint,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Timestamp   time.Time `json:"timestamp"`

	Contributions []Contribution `json:"contributions,omitempty"`
	Reasons       []string       `json:"reasons,omitempty"`
}
