package signal

// Snapshot is the immutable evidence collected from one request. It carries
// no verdict state and never mutates after Collect returns.
type Snapshot struct {
	ClientIP   string         `json:"client_ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	Headers    HeaderAnalysis `json:"header_analysis"`
	UA         UAAnalysis     `json:"user_agent_analysis"`
	Reputation float64        `json:"network_reputation"` // 0 clean .. 1 hostile, 0.5 unknown
}

// HeaderAnalysis contains header-based detection signals.
type HeaderAnalysis struct {
	MissingExpected    []string `json:"missing_expected"`
	AutomationHeaders  []string `json:"automation_headers"`
	InconsistentValues []string `json:"inconsistent_values"`
	HeaderCount        int      `json:"header_count"`
}

// UAAnalysis contains client-identification string analysis.
type UAAnalysis struct {
	Length             int      `json:"length"`
	ContainsAutomation bool     `json:"contains_automation"`
	AutomationKeywords []string `json:"automation_keywords"`
	Platform           string   `json:"platform"`
	Browser            string   `json:"browser"`
	DeclaredBot        bool     `json:"declared_bot"` // parser classified the UA as a bot
	DeviceKnown        bool     `json:"device_known"` // parser recognized a device class
}
