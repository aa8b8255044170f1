package verdictlog

import (
	"time"

	"github.com/snaretech/snare/internal/score"
)

// Record is the durable form of a verdict, shaped for the persistence and
// dashboard collaborators. Records are append-only: corrections arrive as
// feedback referencing VerdictID, never as edits.
type Record struct {
	VerdictID   string    `json:"verdict_id"`
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	IsBot       bool      `json:"is_bot"`
	BotType     string    `json:"bot_type"`
	Confidence  float64   `json:"confidence"`

	Contributions []score.Contribution `json:"contributions,omitempty"`
	Reasons       []string             `json:"reasons,omitempty"`
}

func FromVerdict(v score.Verdict) Record {
	return Record{
		VerdictID:   v.ID,
		SessionID:   v.SessionID,
		Timestamp:   v.Timestamp,
		Fingerprint: v.Fingerprint,
		UserAgent:   v.UserAgent,
		IsBot:       v.IsBot,
		BotType:     string(v.Category),
		Confidence:  v.Confidence,

		Contributions: v.Contributions,
		Reasons:       v.Reasons,
	}
}
