package signal

import (
	"fmt"
	"net/http"
	"strings"
)

// AnalyzeHeaders inspects HTTP headers for automation markers, missing
// browser-typical headers, and declared-value inconsistencies.
func AnalyzeHeaders(headers http.Header) HeaderAnalysis {
	analysis := HeaderAnalysis{
		MissingExpected:    []string{},
		AutomationHeaders:  []string{},
		InconsistentValues: []string{},
		HeaderCount:        len(headers),
	}

	analysis.AutomationHeaders = detectAutomationHeaders(headers)
	analysis.MissingExpected = checkMissingHeaders(headers)

	userAgent := headers.Get("User-Agent")
	acceptLanguage := headers.Get("Accept-Language")
	if userAgent != "" && acceptLanguage != "" {
		if isLanguageUAInconsistent(userAgent, acceptLanguage) {
			analysis.InconsistentValues = append(analysis.InconsistentValues, "language-ua-mismatch")
		}
	}

	return analysis
}

// detectAutomationHeaders checks for automation-specific headers and values.
func detectAutomationHeaders(headers http.Header) []string {
	var automationHeaders []string

	// Automation tool signatures may appear in any header value.
	automationKeywords := []string{"headless", "selenium", "webdriver", "puppeteer", "playwright"}

	for header, values := range headers {
		for _, value := range values {
			lowerValue := strings.ToLower(value)
			for _, keyword := range automationKeywords {
				if strings.Contains(lowerValue, keyword) {
					automationHeaders = append(automationHeaders, fmt.Sprintf("%s: %s", header, value))
					break // don't duplicate the same header
				}
			}
		}
	}

	// Headers whose presence (or specific value) indicates tooling.
	automationIndicators := map[string][]string{
		"Purpose":      {"prefetch"},
		"X-Purpose":    {"preview"},
		"Chrome-Proxy": {},
		"X-DevTools-Emulate-Network-Conditions-Client-Id": {},
	}

	for header, suspiciousValues := range automationIndicators {
		if value := headers.Get(header); value != "" {
			lowerValue := strings.ToLower(value)

			if len(suspiciousValues) > 0 {
				for _, suspicious := range suspiciousValues {
					if strings.Contains(lowerValue, suspicious) {
						automationHeaders = append(automationHeaders, fmt.Sprintf("%s: %s", header, value))
						break
					}
				}
			} else {
				automationHeaders = append(automationHeaders, fmt.Sprintf("%s: %s", header, value))
			}
		}
	}

	return automationHeaders
}

// checkMissingHeaders reports expected browser headers that are absent.
func checkMissingHeaders(headers http.Header) []string {
	var missing []string
	expectedHeaders := []string{"User-Agent", "Accept", "Accept-Language", "Accept-Encoding"}

	for _, expected := range expectedHeaders {
		if headers.Get(expected) == "" {
			missing = append(missing, expected)
		}
	}

	return missing
}

// isLanguageUAInconsistent checks if Accept-Language and User-Agent disagree.
func isLanguageUAInconsistent(userAgent, acceptLanguage string) bool {
	ua := strings.ToLower(userAgent)
	lang := strings.ToLower(acceptLanguage)

	if strings.Contains(ua, "zh-cn") && !strings.Contains(lang, "zh") {
		return true
	}
	if strings.Contains(ua, "ja-jp") && !strings.Contains(lang, "ja") {
		return true
	}
	if strings.Contains(ua, "ko-kr") && !strings.Contains(lang, "ko") {
		return true
	}

	return false
}
