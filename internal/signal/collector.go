package signal

import "net/http"

// Collect builds an immutable evidence snapshot from one request. It never
// fails: absent headers simply yield empty analyses and an unconfigured
// reputation provider should be NeutralReputation.
func Collect(r *http.Request, trustProxy bool, reputation ReputationProvider) Snapshot {
	ua := r.Header.Get("User-Agent")
	ip := ClientIP(r, trustProxy)

	score := neutralReputation
	if reputation != nil {
		score = reputation.Score(ip)
	}

	return Snapshot{
		ClientIP:   ip,
		UserAgent:  ua,
		Headers:    AnalyzeHeaders(r.Header),
		UA:         AnalyzeUserAgent(ua),
		Reputation: score,
	}
}
