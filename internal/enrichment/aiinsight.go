package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/qrguardian/guardian/internal/logging"
)

// Insight is a model-generated second opinion on a URL. It is purely
// advisory and never feeds back into the heuristic score.
type Insight struct {
	Verdict    string `json:"verdict"`
	RiskScore  int    `json:"risk_score"`
	Reason     string `json:"reason"`
	ThreatType string `json:"threat_type"`
}

// InsightClient asks a generative-model API for a structured security
// assessment of a URL
type InsightClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewInsightClient creates an AI-insight client. An empty apiKey means
// the service is unavailable.
func NewInsightClient(apiKey string, logger *logging.Logger) *InsightClient {
	return &InsightClient{
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com",
		model:   "gemini-2.0-flash",
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger.WithComponent("aiinsight"),
	}
}

// Configured reports whether an API credential is available
func (c *InsightClient) Configured() bool {
	return c.apiKey != ""
}

const insightPrompt = `You are a security analyst. Assess the following URL for phishing, scam, or malware risk.
URL: %s

Respond with ONLY a JSON object, no markdown, in this exact shape:
{"verdict": "SAFE" | "SUSPICIOUS" | "DANGEROUS", "risk_score": <0-100>, "reason": "<one sentence>", "threat_type": "<phishing|scam|malware|none>"}`

// Assess sends the URL to the model and parses its structured verdict
func (c *InsightClient) Assess(ctx context.Context, target string) (*Insight, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("AI insight API key not configured")
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": fmt.Sprintf(insightPrompt, target)},
				},
			},
		},
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode insight request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create insight request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch insight: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("insight request returned status %d", resp.StatusCode)
	}

	var generateResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&generateResp); err != nil {
		return nil, fmt.Errorf("failed to parse insight response: %w", err)
	}
	if len(generateResp.Candidates) == 0 {
		return nil, fmt.Errorf("insight response carried no candidates")
	}

	var text strings.Builder
	for _, part := range generateResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return parseInsight(text.String())
}

// parseInsight extracts the JSON object from model output that may be
// wrapped in markdown fences or prose
func parseInsight(raw string) (*Insight, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in model output")
	}

	var decoded struct {
		Verdict    string `json:"verdict"`
		RiskScore  int    `json:"risk_score"`
		Reason     string `json:"reason"`
		ThreatType string `json:"threat_type"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse model verdict: %w", err)
	}

	insight := &Insight{
		Verdict:    strings.ToUpper(decoded.Verdict),
		RiskScore:  decoded.RiskScore,
		Reason:     decoded.Reason,
		ThreatType: decoded.ThreatType,
	}
	switch insight.Verdict {
	case "SAFE", "SUSPICIOUS", "DANGEROUS":
	default:
		insight.Verdict = "SUSPICIOUS"
	}
	if insight.RiskScore < 0 {
		insight.RiskScore = 0
	}
	if insight.RiskScore > 100 {
		insight.RiskScore = 100
	}

	return insight, nil
}
