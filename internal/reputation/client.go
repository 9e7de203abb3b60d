// Package reputation implements the known-threat lookup gateway
// against a Safe-Browsing-style threat matching API. The client never
// fails: transport and API errors degrade to an unverified lookup that
// carries a single informational label and no score penalty.
package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/qrguardian/guardian/internal/analyzer"
	"github.com/qrguardian/guardian/internal/logging"
)

// ThreatUnverified is the informational label returned when the lookup
// could not be completed. It is surfaced to the caller but never
// penalized, so connectivity failures are not scored as threats.
const ThreatUnverified = "Could not verify with security database"

const defaultBaseURL = "https://safebrowsing.googleapis.com"

// Client handles requests to the threat matching API
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logging.Logger
}

// threatRequest is the v4 threatMatches:find request body
type threatRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

// threatResponse is the subset of the API response we read
type threatResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

// New creates a reputation client. An empty apiKey enables the
// deterministic mock mode used for local testing.
func New(apiKey string, rps float64, logger *logging.Logger) *Client {
	return &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		userAgent: "guardian-scanner/1.0",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.WithComponent("reputation"),
	}
}

// Configured reports whether an API credential is available
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// CheckURL looks up the payload, treated as a URL, against the threat
// database. It implements analyzer.ReputationGateway and never fails.
func (c *Client) CheckURL(ctx context.Context, target string) analyzer.ThreatLookup {
	if !c.Configured() {
		return analyzer.ThreatLookup{Labels: mockThreats(target), Verified: false}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return analyzer.ThreatLookup{Labels: []string{ThreatUnverified}, Verified: false}
	}

	labels, err := c.findThreatMatches(ctx, target)
	if err != nil {
		c.logger.Error("threat lookup failed", "url", target, "error", err)
		return analyzer.ThreatLookup{Labels: []string{ThreatUnverified}, Verified: false}
	}

	return analyzer.ThreatLookup{Labels: labels, Verified: true}
}

// findThreatMatches performs the actual API round trip
func (c *Client) findThreatMatches(ctx context.Context, target string) ([]string, error) {
	reqBody := threatRequest{
		Client: clientInfo{
			ClientID:      "qr-guardian",
			ClientVersion: "1.0.0",
		},
		ThreatInfo: threatInfo{
			ThreatTypes:      []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: target}},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/v4/threatMatches:find?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call threat API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("threat API returned status %d", resp.StatusCode)
	}

	var threatResp threatResponse
	if err := json.NewDecoder(resp.Body).Decode(&threatResp); err != nil {
		return nil, fmt.Errorf("failed to parse threat API response: %w", err)
	}

	labels := make([]string, 0, len(threatResp.Matches))
	for _, match := range threatResp.Matches {
		threatType := strings.ToLower(strings.ReplaceAll(match.ThreatType, "_", " "))
		labels = append(labels, fmt.Sprintf("%s threat detected", threatType))
	}

	return labels, nil
}

// mockThreats is the deterministic mock used when no credential is
// configured: specific marker substrings map to fixed labels so local
// tests can exercise the threat path offline.
func mockThreats(target string) []string {
	lower := strings.ToLower(target)
	if strings.Contains(lower, "test-malware") {
		return []string{"MALWARE detected (Mock)"}
	}
	if strings.Contains(lower, "test-phishing") {
		return []string{"SOCIAL_ENGINEERING detected (Mock)"}
	}
	return nil
}
