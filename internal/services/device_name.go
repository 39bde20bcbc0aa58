package services

import "strings"

// Device-name sniffing is an ordered rule table: platform rows are checked
// top to bottom, and within a row the browser patterns are checked in
// order. Order carries meaning: Android before Linux (Android UAs contain
// "Linux"), Chrome before Safari on Mac (Chrome UAs contain "Safari").
type browserRule struct {
	pattern string
	label   string
}

type deviceNameRule struct {
	platform string
	fallback string
	browsers []browserRule
}

var macBrowserRules = []browserRule{
	{"chrome", "Chrome on Mac"},
	{"safari", "Safari on Mac"},
	{"firefox", "Firefox on Mac"},
}

var deviceNameRules = []deviceNameRule{
	{platform: "iphone", fallback: "iPhone"},
	{platform: "ipad", fallback: "iPad"},
	{platform: "android", fallback: "Android Device"},
	{platform: "windows", fallback: "Windows Device", browsers: []browserRule{
		{"chrome", "Chrome on Windows"},
		{"firefox", "Firefox on Windows"},
		{"edge", "Edge on Windows"},
	}},
	{platform: "macintosh", fallback: "Mac Device", browsers: macBrowserRules},
	{platform: "mac os", fallback: "Mac Device", browsers: macBrowserRules},
	{platform: "linux", fallback: "Linux Device"},
}

// DeviceNameFromUserAgent derives a human-readable label for the trusted
// devices list. Unrecognized agents get "Unknown Device".
func DeviceNameFromUserAgent(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, rule := range deviceNameRules {
		if !strings.Contains(ua, rule.platform) {
			continue
		}
		for _, b := range rule.browsers {
			if strings.Contains(ua, b.pattern) {
				return b.label
			}
		}
		return rule.fallback
	}
	return "Unknown Device"
}
