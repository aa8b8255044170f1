package signal

import (
	"strings"

	"github.com/avct/uasurfer"
)

var automationKeywords = []string{
	"headless", "selenium", "webdriver", "puppeteer",
	"playwright", "phantom", "jsdom", "nightmare",
	"chrome-headless", "automated", "bot", "crawler",
	"spider", "scraper", "python-requests", "curl", "wget",
}

// AnalyzeUserAgent combines a structural parse of the client-identification
// string with a keyword scan for automation tooling.
func AnalyzeUserAgent(userAgent string) UAAnalysis {
	analysis := UAAnalysis{
		Length:             len(userAgent),
		AutomationKeywords: []string{},
	}

	lowerUA := strings.ToLower(userAgent)
	for _, keyword := range automationKeywords {
		if strings.Contains(lowerUA, keyword) {
			analysis.ContainsAutomation = true
			analysis.AutomationKeywords = append(analysis.AutomationKeywords, keyword)
		}
	}

	parsed := uasurfer.Parse(userAgent)
	analysis.DeclaredBot = parsed.IsBot()
	analysis.DeviceKnown = parsed.DeviceType != uasurfer.DeviceUnknown
	if parsed.Browser.Name != uasurfer.BrowserUnknown {
		analysis.Browser = strings.TrimPrefix(parsed.Browser.Name.String(), "Browser")
	}
	if parsed.OS.Name != uasurfer.OSUnknown {
		analysis.Platform = strings.TrimPrefix(parsed.OS.Name.String(), "OS")
	}

	return analysis
}
