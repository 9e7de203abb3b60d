package analyzer

import (
	"net/url"
	"regexp"
	"strings"
)

// domainFallbackPattern extracts a hostname-like token when URL parsing
// fails: optional scheme, optional www., then everything up to the first
// path, port, or query separator.
var domainFallbackPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?([^/:?]+)`)

// ExtractDomain normalizes a raw payload into a canonical lowercase
// hostname with no scheme, no www. prefix, and no path, query, or port.
// It is deterministic and side-effect free, and never fails: on total
// parse failure it returns the lowercased, trimmed payload.
func ExtractDomain(payload string) string {
	clean := strings.ToLower(strings.TrimSpace(payload))

	candidate := clean
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "http://" + candidate
	}

	if u, err := url.Parse(candidate); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}

	if m := domainFallbackPattern.FindStringSubmatch(clean); m != nil {
		return m[1]
	}

	return clean
}
