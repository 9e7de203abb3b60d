package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// ruleContext carries the precomputed views of one payload that the
// rules share. Built once per analysis; never mutated by rules.
type ruleContext struct {
	payload string // raw payload, untouched
	lower   string // lowercased payload
	domain  string // canonical hostname from ExtractDomain
	brands  []BrandPattern
}

// ruleResult is the contribution of a single rule: a (negative) score
// delta, zero or more issues, and an optional severity floor.
type ruleResult struct {
	delta  int
	issues []string
	floor  Rating
}

// ruleFunc is a pure detector: same context in, same result out.
// Rules never short-circuit each other; the engine folds every result
// into one accumulator in a fixed order.
type ruleFunc func(ruleContext) ruleResult

// Keyword and pattern tables. Matching is substring-based on the
// lowercased payload, which is a documented heuristic trade-off
// ("notabank" contains "bank") rather than a bug.
var (
	sensitiveKeywords = []string{"password", "admin", "config", "login", "verify"}
	scamKeywords      = []string{"free", "win", "prize", "reward", "bonus", "lottery", "claim"}
	suspiciousTLDs    = []string{".tk", ".ml", ".ga", ".cf", ".xyz", ".top"}

	injectionPatterns = []string{"javascript:", "vbscript:", "<script", "eval(", "document.cookie"}

	shortenerDomains = []string{
		"bit.ly", "tinyurl.com", "goo.gl", "t.co",
		"ow.ly", "is.gd", "buff.ly", "adf.ly",
		"shorturl.at", "cutt.ly", "shorte.st", "tiny.cc",
		"bit.do", "lnkd.in", "rebrand.ly", "tiny.one", "t.ly", "rb.gy",
	}

	wifiSSIDPattern     = regexp.MustCompile(`(?i)S:([^;]*)`)
	wifiSecurityPattern = regexp.MustCompile(`(?i)T:([^;]*)`)
	smsNumberPattern    = regexp.MustCompile(`^\+?[0-9]{3,}$`)
	phoneNumberPattern  = regexp.MustCompile(`^\+?[0-9]{6,}$`)
	ipAddressPattern    = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

	leetReplacer = strings.NewReplacer(
		"0", "o",
		"1", "l",
		"3", "e",
		"4", "a",
		"5", "s",
		"7", "t",
		"@", "a",
		"\x00", "",
	)
)

// Issue texts shared with the tests
const (
	issueWiFiInsecure     = "Insecure Wi-Fi: This network uses weak or no encryption."
	issueWiFiCredential   = "Exposed Credential: Payload carries a network secret alongside the SSID."
	issueHomograph        = "Homograph Risk: This domain uses IDN/Punycode and may imitate a trusted brand."
	issueSensitiveContent = "Sensitive Content: URL contains security-sensitive keywords."
	issueInjection        = "Injection Risk: Payload contains script injection patterns."
	issueShortener        = "Uses URL shortener - may hide malicious destination"
	issueInsecureHTTP     = "Uses HTTP (not secure) instead of HTTPS"
	issueOpenRedirect     = "Open redirect pattern: URL embeds a second destination URL"
	issueScamKeywords     = "Contains promotional keywords often used in scams"
	issueIPAddress        = "Uses IP address instead of domain name (often suspicious)"
	issueSuspiciousTLD    = "Uses less common TLD often associated with spam"
	issueSubdomains       = "Excessive subdomains - could be hiding true destination"
	issueKnownThreats     = "KNOWN SECURITY THREATS DETECTED"
	issueAPIUnconfigured  = "Security API not configured - using basic checks only"
)

// leetify folds common leetspeak substitutions back to letters so that
// obfuscated brand names (paypa1, g00gle) still match.
func leetify(value string) string {
	return leetReplacer.Replace(value)
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// wifiRule flags Wi-Fi join directives. The marker is searched as a
// substring because payloads may carry leading text. A second penalty
// applies when the declared security type is WEP, nopass, or absent.
// Payloads without a marker fall back to the two-token credential form:
// a non-URL, non-directive payload of exactly "<ssid> <secret>".
func wifiRule(ctx ruleContext) ruleResult {
	var res ruleResult

	if strings.Contains(ctx.lower, "wifi:") {
		ssid := "unknown network"
		if m := wifiSSIDPattern.FindStringSubmatch(ctx.payload); m != nil && m[1] != "" {
			ssid = m[1]
		}
		res.delta -= 20
		res.issues = append(res.issues, fmt.Sprintf("Network Config: Attempting to connect to Wi-Fi network '%s'.", ssid))
		res.floor = RatingCaution

		security := ""
		if m := wifiSecurityPattern.FindStringSubmatch(ctx.payload); m != nil {
			security = strings.ToUpper(strings.TrimSpace(m[1]))
		}
		if security == "" || security == "WEP" || security == "NOPASS" {
			res.delta -= 30
			res.issues = append(res.issues, issueWiFiInsecure)
			res.floor = RatingDangerous
		}
		return res
	}

	// Heuristic fallback: "<ssid> <secret>" two-token plain text.
	// The credential itself is never surfaced, only its presence.
	trimmed := strings.TrimSpace(ctx.payload)
	if strings.Contains(ctx.lower, "://") ||
		strings.HasPrefix(ctx.lower, "tel:") ||
		strings.HasPrefix(ctx.lower, "smsto:") {
		return res
	}
	tokens := strings.Fields(trimmed)
	if len(tokens) != 2 {
		return res
	}

	res.delta -= 20
	res.issues = append(res.issues, fmt.Sprintf("Network Config: Payload looks like Wi-Fi credentials for '%s'.", tokens[0]))
	res.delta -= 20
	res.issues = append(res.issues, issueWiFiCredential)
	res.floor = RatingCaution
	return res
}

// smsRule flags premium SMS directives, both the explicit SMSTO: form
// and the implicit "number then message" text form.
func smsRule(ctx ruleContext) ruleResult {
	var res ruleResult

	if strings.HasPrefix(ctx.lower, "smsto:") {
		rest := ctx.payload[len("smsto:"):]
		parts := strings.Split(rest, ":")
		number := parts[0]
		if number == "" {
			number = "unknown number"
		}
		// The message may itself contain ':', so rejoin the remainder
		message := strings.Join(parts[1:], ":")
		if message == "" {
			message = `""`
		}
		res.delta -= 50
		res.issues = append(res.issues, fmt.Sprintf("Financial Risk: Triggers an SMS to %s with message '%s'.", number, message))
		res.floor = RatingDangerous
		return res
	}

	// Fallback: first line is a phone number, remainder is the message
	lines := regexp.MustCompile(`\r?\n`).Split(ctx.payload, -1)
	firstLine := strings.TrimSpace(lines[0])
	rest := strings.TrimSpace(strings.Join(lines[1:], " "))

	phoneLike := smsNumberPattern.MatchString(firstLine)
	hasMessage := rest != "" || strings.ContainsAny(strings.TrimSpace(ctx.payload), " \t")

	if phoneLike && hasMessage {
		message := rest
		if message == "" {
			message = strings.TrimSpace(strings.Replace(ctx.payload, firstLine, "", 1))
		}
		if message == "" {
			message = `""`
		}
		res.delta -= 50
		res.issues = append(res.issues, fmt.Sprintf("Financial Risk: Triggers an SMS to %s with message '%s'.", firstLine, message))
		res.floor = RatingDangerous
	}
	return res
}

// telRule flags direct-call directives and bare phone-number payloads
func telRule(ctx ruleContext) ruleResult {
	var res ruleResult

	if strings.HasPrefix(ctx.lower, "tel:") {
		number := ctx.payload[len("tel:"):]
		if number == "" {
			number = "unknown number"
		}
		res.delta -= 20
		res.issues = append(res.issues, fmt.Sprintf("Privacy Risk: Initiates an automatic phone call to %s.", number))
		res.floor = RatingCaution
		return res
	}

	trimmed := strings.TrimSpace(ctx.payload)
	if phoneNumberPattern.MatchString(trimmed) {
		res.delta -= 20
		res.issues = append(res.issues, fmt.Sprintf("Privacy Risk: Initiates an automatic phone call to %s.", trimmed))
		res.floor = RatingCaution
	}
	return res
}

// homographRule flags punycode-encoded internationalized domains
func homographRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if !strings.HasPrefix(ctx.domain, "xn--") {
		return res
	}

	issue := issueHomograph
	if decoded, err := idna.ToUnicode(ctx.domain); err == nil && decoded != ctx.domain {
		issue = fmt.Sprintf("%s (displays as %s)", issueHomograph, decoded)
	}

	res.delta -= 50
	res.issues = append(res.issues, issue)
	res.floor = RatingDangerous
	return res
}

// brandRule flags hostnames that contain a known brand name after
// leetspeak folding, unless the hostname is one of the brand's own
// domains. Each matching brand contributes its own penalty.
func brandRule(ctx ruleContext) ruleResult {
	var res ruleResult
	cleaned := leetify(ctx.domain)

	for _, brand := range ctx.brands {
		if brand.isOfficialDomain(ctx.domain) {
			continue
		}
		if strings.Contains(cleaned, brand.Name) {
			res.delta -= 40
			res.issues = append(res.issues, fmt.Sprintf("Phishing Alert: This URL mimics %s but is likely fake.", brand.Name))
			res.floor = RatingDangerous
		}
	}
	return res
}

// entropyRule flags hostnames whose character distribution looks
// machine-generated (DGA-style)
func entropyRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if !entropyEligible(ctx.domain) {
		return res
	}

	entropy := ShannonEntropy(ctx.domain)
	switch {
	case entropy >= entropyHighThreshold:
		res.delta -= 20
		res.floor = RatingCaution
	case entropy >= entropyMediumThreshold:
		res.delta -= 10
		res.floor = RatingCaution
	case entropy >= entropyLowThreshold:
		res.delta -= 5
	default:
		return res
	}
	res.issues = append(res.issues, fmt.Sprintf("Randomized Domain: hostname looks machine-generated (entropy %.2f).", entropy))
	return res
}

func sensitiveKeywordRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if containsAny(ctx.lower, sensitiveKeywords) {
		res.delta -= 15
		res.issues = append(res.issues, issueSensitiveContent)
		res.floor = RatingCaution
	}
	return res
}

func injectionRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if containsAny(ctx.lower, injectionPatterns) {
		res.delta -= 50
		res.issues = append(res.issues, issueInjection)
		res.floor = RatingDangerous
	}
	return res
}

// hasShortener reports whether the payload references a known URL
// shortening service. The penalty is applied by the engine, which also
// triggers the best-effort redirect resolution.
func hasShortener(ctx ruleContext) bool {
	return containsAny(ctx.lower, shortenerDomains)
}

func insecureTransportRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if strings.HasPrefix(ctx.payload, "http://") {
		res.delta -= 25
		res.issues = append(res.issues, issueInsecureHTTP)
	}
	return res
}

// openRedirectRule flags payloads where a second absolute URL appears
// after the first scheme separator
func openRedirectRule(ctx ruleContext) ruleResult {
	var res ruleResult
	idx := strings.Index(ctx.lower, "://")
	if idx < 0 {
		return res
	}
	rest := ctx.lower[idx+len("://"):]
	if strings.Contains(rest, "http://") || strings.Contains(rest, "https://") {
		res.delta -= 30
		res.issues = append(res.issues, issueOpenRedirect)
		res.floor = RatingCaution
	}
	return res
}

func scamKeywordRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if containsAny(ctx.lower, scamKeywords) {
		res.delta -= 30
		res.issues = append(res.issues, issueScamKeywords)
	}
	return res
}

func ipLiteralRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if ipAddressPattern.MatchString(ctx.payload) {
		res.delta -= 30
		res.issues = append(res.issues, issueIPAddress)
	}
	return res
}

func suspiciousTLDRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if containsAny(ctx.lower, suspiciousTLDs) {
		res.delta -= 15
		res.issues = append(res.issues, issueSuspiciousTLD)
	}
	return res
}

func subdomainRule(ctx ruleContext) ruleResult {
	var res ruleResult
	if strings.Count(ctx.payload, ".") > 4 {
		res.delta -= 10
		res.issues = append(res.issues, issueSubdomains)
	}
	return res
}
