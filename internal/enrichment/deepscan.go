// Package enrichment holds the clients for the optional external
// services whose results are presented to the end user additively.
// None of them contributes to the heuristic score.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/qrguardian/guardian/internal/logging"
)

// DeepScanVerdict summarizes a multi-engine scan
type DeepScanVerdict string

const (
	VerdictClean      DeepScanVerdict = "CLEAN"
	VerdictSuspicious DeepScanVerdict = "SUSPICIOUS"
	VerdictMalicious  DeepScanVerdict = "MALICIOUS"
)

// EngineDetection is one engine's opinion about the URL
type EngineDetection struct {
	Engine   string `json:"engine"`
	Category string `json:"category"` // MALICIOUS, SUSPICIOUS, SAFE, UNDETECTED, UNKNOWN
	Result   string `json:"result"`
}

// DeepScanSummary aggregates the engine-level results of one scan
type DeepScanSummary struct {
	Service    string            `json:"service"`
	Permalink  string            `json:"permalink,omitempty"`
	Harmless   int               `json:"harmless"`
	Malicious  int               `json:"malicious"`
	Suspicious int               `json:"suspicious"`
	Undetected int               `json:"undetected"`
	Timeout    int               `json:"timeout"`
	Verdict    DeepScanVerdict   `json:"verdict"`
	ScanDate   string            `json:"scan_date,omitempty"`
	Detections []EngineDetection `json:"detections"`
	Engines    []EngineDetection `json:"engines"`
}

// DeepScanClient submits URLs to a VirusTotal-style v3 API and polls
// for the completed analysis
type DeepScanClient struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	logger       *logging.Logger
	pollAttempts int
	pollInterval time.Duration
}

// NewDeepScanClient creates a deep-scan client. An empty apiKey means
// the service is unavailable and Scan always returns an error.
func NewDeepScanClient(apiKey string, logger *logging.Logger) *DeepScanClient {
	return &DeepScanClient{
		apiKey:  apiKey,
		baseURL: "https://www.virustotal.com",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:       logger.WithComponent("deepscan"),
		pollAttempts: 4,
		pollInterval: 2 * time.Second,
	}
}

// Configured reports whether an API credential is available
func (c *DeepScanClient) Configured() bool {
	return c.apiKey != ""
}

// Scan submits the URL, waits for the analysis to complete, and
// returns the normalized engine-level summary
func (c *DeepScanClient) Scan(ctx context.Context, target string) (*DeepScanSummary, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("deep scan API key not configured")
	}

	analysisID, err := c.submit(ctx, target)
	if err != nil {
		return nil, err
	}

	analysis, err := c.pollAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	// Prefer the canonical URL report when the analysis links one; it
	// matches what the scan service's own UI shows
	var urlAttrs *reportAttributes
	if urlID := analysis.Data.Relationships.URL.Data.ID; urlID != "" {
		if report, err := c.fetchURLReport(ctx, urlID); err != nil {
			c.logger.Info("URL report fetch failed", "error", err)
		} else {
			urlAttrs = report
		}
	}

	return buildSummary(analysis, urlAttrs), nil
}

// submit posts the URL and returns the analysis id
func (c *DeepScanClient) submit(ctx context.Context, target string) (string, error) {
	form := url.Values{"url": {target}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v3/urls", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit returned status %d", resp.StatusCode)
	}

	var submitResp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	if submitResp.Data.ID == "" {
		return "", fmt.Errorf("submit response carried no analysis id")
	}

	return submitResp.Data.ID, nil
}

// analysisResponse mirrors the analysis payload shape we consume
type analysisResponse struct {
	Data struct {
		Attributes    reportAttributes `json:"attributes"`
		Relationships struct {
			URL struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"url"`
		} `json:"relationships"`
		Links struct {
			Self string `json:"self"`
		} `json:"links"`
	} `json:"data"`
}

// reportAttributes covers both analysis attributes and URL-report
// attributes; the two shapes share the fields we need
type reportAttributes struct {
	Status            string                  `json:"status,omitempty"`
	Stats             map[string]int          `json:"stats,omitempty"`
	LastAnalysisStats map[string]int          `json:"last_analysis_stats,omitempty"`
	Results           map[string]engineResult `json:"results,omitempty"`
	LastResults       map[string]engineResult `json:"last_analysis_results,omitempty"`
	Date              int64                   `json:"date,omitempty"`
	LastAnalysisDate  int64                   `json:"last_analysis_date,omitempty"`
}

type engineResult struct {
	Category string `json:"category"`
	Result   string `json:"result"`
	Method   string `json:"method"`
}

// pollAnalysis fetches the analysis until it reports completed, within
// a tight retry budget
func (c *DeepScanClient) pollAnalysis(ctx context.Context, analysisID string) (*analysisResponse, error) {
	var analysis *analysisResponse

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/analyses/"+analysisID, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create analysis request: %w", err)
		}
		req.Header.Set("x-apikey", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch analysis: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("analysis fetch returned status %d", resp.StatusCode)
		}

		var decoded analysisResponse
		err = json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse analysis response: %w", err)
		}
		analysis = &decoded

		if decoded.Data.Attributes.Status == "completed" {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	if analysis == nil {
		return nil, fmt.Errorf("analysis was never retrieved")
	}
	return analysis, nil
}

// fetchURLReport retrieves the canonical URL object for an analysis
func (c *DeepScanClient) fetchURLReport(ctx context.Context, urlID string) (*reportAttributes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/urls/"+urlID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create URL report request: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("URL report fetch returned status %d", resp.StatusCode)
	}

	var report struct {
		Data struct {
			Attributes reportAttributes `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to parse URL report: %w", err)
	}

	return &report.Data.Attributes, nil
}

// buildSummary normalizes the raw report into a DeepScanSummary,
// preferring stats and results from the URL report over the analysis
func buildSummary(analysis *analysisResponse, urlAttrs *reportAttributes) *DeepScanSummary {
	attrs := analysis.Data.Attributes

	stats := attrs.Stats
	if urlAttrs != nil && len(urlAttrs.LastAnalysisStats) > 0 {
		stats = urlAttrs.LastAnalysisStats
	} else if len(attrs.LastAnalysisStats) > 0 {
		stats = attrs.LastAnalysisStats
	}

	summary := &DeepScanSummary{
		Service:    "VirusTotal",
		Permalink:  analysis.Data.Links.Self,
		Harmless:   stats["harmless"],
		Malicious:  stats["malicious"],
		Suspicious: stats["suspicious"],
		Undetected: stats["undetected"],
		Timeout:    stats["timeout"],
		Verdict:    VerdictClean,
		Detections: []EngineDetection{},
		Engines:    []EngineDetection{},
	}

	if summary.Malicious > 0 {
		summary.Verdict = VerdictMalicious
	} else if summary.Suspicious > 0 {
		summary.Verdict = VerdictSuspicious
	}

	results := attrs.Results
	if urlAttrs != nil && len(urlAttrs.LastResults) > 0 {
		results = urlAttrs.LastResults
	} else if len(attrs.LastResults) > 0 {
		results = attrs.LastResults
	}

	for engine, value := range results {
		entry := EngineDetection{
			Engine:   engine,
			Category: normalizeCategory(value.Category),
			Result:   firstNonEmpty(value.Result, value.Method, value.Category),
		}
		summary.Engines = append(summary.Engines, entry)

		if value.Category == "malicious" || value.Category == "suspicious" {
			summary.Detections = append(summary.Detections, entry)
		}
	}

	scanTimestamp := attrs.Date
	if urlAttrs != nil && urlAttrs.LastAnalysisDate > 0 {
		scanTimestamp = urlAttrs.LastAnalysisDate
	} else if attrs.LastAnalysisDate > 0 {
		scanTimestamp = attrs.LastAnalysisDate
	}
	if scanTimestamp > 0 {
		summary.ScanDate = time.Unix(scanTimestamp, 0).UTC().Format(time.RFC3339)
	}

	return summary
}

// normalizeCategory maps raw engine categories onto the fixed set the
// UI layer displays
func normalizeCategory(raw string) string {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "MALICIOUS"):
		return "MALICIOUS"
	case strings.Contains(upper, "SUSPICIOUS"):
		return "SUSPICIOUS"
	case strings.Contains(upper, "HARMLESS"):
		return "SAFE"
	case strings.Contains(upper, "UNDETECTED"):
		return "UNDETECTED"
	default:
		return "UNKNOWN"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
