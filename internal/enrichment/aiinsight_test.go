package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qrguardian/guardian/internal/logging"
)

func TestParseInsight(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantVerdict string
		wantScore   int
		wantErr     bool
	}{
		{
			name:        "bare JSON object",
			raw:         `{"verdict": "DANGEROUS", "risk_score": 90, "reason": "phishing page", "threat_type": "phishing"}`,
			wantVerdict: "DANGEROUS",
			wantScore:   90,
		},
		{
			name:        "markdown fenced JSON",
			raw:         "```json\n{\"verdict\": \"SAFE\", \"risk_score\": 5, \"reason\": \"known site\", \"threat_type\": \"none\"}\n```",
			wantVerdict: "SAFE",
			wantScore:   5,
		},
		{
			name:        "JSON wrapped in prose",
			raw:         `Here is my assessment: {"verdict": "suspicious", "risk_score": 60, "reason": "new domain", "threat_type": "scam"} Hope that helps!`,
			wantVerdict: "SUSPICIOUS",
			wantScore:   60,
		},
		{
			name:        "unknown verdict falls back to suspicious",
			raw:         `{"verdict": "MAYBE", "risk_score": 40, "reason": "unclear", "threat_type": "none"}`,
			wantVerdict: "SUSPICIOUS",
			wantScore:   40,
		},
		{
			name:        "out-of-range score is clamped",
			raw:         `{"verdict": "DANGEROUS", "risk_score": 250, "reason": "x", "threat_type": "malware"}`,
			wantVerdict: "DANGEROUS",
			wantScore:   100,
		},
		{
			name:    "no JSON object at all",
			raw:     "I cannot assess this URL.",
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			raw:     `{"verdict": "SAFE", "risk_score": }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insight, err := parseInsight(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if insight.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %q, want %q", insight.Verdict, tt.wantVerdict)
			}
			if insight.RiskScore != tt.wantScore {
				t.Errorf("risk_score = %d, want %d", insight.RiskScore, tt.wantScore)
			}
		})
	}
}

func TestAssess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`{
			"candidates": [{
				"content": {
					"parts": [
						{"text": "{\"verdict\": \"DANGEROUS\", "},
						{"text": "\"risk_score\": 85, \"reason\": \"credential harvesting\", \"threat_type\": \"phishing\"}"}
					]
				}
			}]
		}`))
	}))
	defer server.Close()

	client := NewInsightClient("test-key", logging.New())
	client.baseURL = server.URL

	insight, err := client.Assess(context.Background(), "https://phish.example.com")
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if insight.Verdict != "DANGEROUS" || insight.RiskScore != 85 {
		t.Errorf("insight = %+v", insight)
	}
	if insight.ThreatType != "phishing" {
		t.Errorf("threat_type = %q", insight.ThreatType)
	}
}

func TestAssessUnconfigured(t *testing.T) {
	client := NewInsightClient("", logging.New())
	if _, err := client.Assess(context.Background(), "https://example.com"); err == nil {
		t.Error("expected error from unconfigured client")
	}
}
