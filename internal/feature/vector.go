package feature

import "time"

// Technical features derive from the request itself.
type Technical struct {
	UserAgent             string  `json:"user_agent"`
	CapabilityConsistency float64 `json:"capability_consistency"` // 1 coherent .. 0 contradictory
	NetworkReputation     float64 `json:"network_reputation"`     // 0 clean .. 1 hosting/datacenter
	Fingerprint           string  `json:"fingerprint"`
}

// Behavioral features derive from accumulated session activity.
type Behavioral struct {
	NavigationIntervalMs float64 `json:"navigation_interval_ms"`
	PointerMoves         int64   `json:"pointer_moves"`
	Scrolls              int64   `json:"scrolls"`
	Clicks               int64   `json:"clicks"`
	InputEvents          int64   `json:"input_events"`
	SessionDurationMs    float64 `json:"session_duration_ms"`
}

// Content features describe what the session consumed.
type Content struct {
	PagesVisited     int64 `json:"pages_visited"`
	ResourceRequests int64 `json:"resource_requests"`
	Searches         int64 `json:"searches"`
	APICalls         int64 `json:"api_calls"`
}

// Vector is the fixed-shape scoring input: an immutable snapshot of one
// session plus one request at one point in time. Every numeric field is
// non-negative and the fingerprint never depends on any verdict.
type Vector struct {
	SessionID  string     `json:"session_id"`
	ObservedAt time.Time  `json:"observed_at"`
	Technical  Technical  `json:"technical"`
	Behavioral Behavioral `json:"behavioral"`
	Content    Content    `json:"content"`
}
