package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qrguardian/guardian/internal/logging"
)

func newDeepScanTestServer(t *testing.T, analysisBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v3/urls":
			if r.Header.Get("x-apikey") == "" {
				t.Error("missing api key header")
			}
			w.Write([]byte(`{"data": {"id": "analysis-1"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/analyses/analysis-1":
			w.Write([]byte(analysisBody))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestScanMaliciousVerdict(t *testing.T) {
	body := `{
		"data": {
			"attributes": {
				"status": "completed",
				"stats": {"harmless": 60, "malicious": 3, "suspicious": 1, "undetected": 10},
				"results": {
					"EngineA": {"category": "malicious", "result": "phishing"},
					"EngineB": {"category": "harmless", "result": "clean"}
				},
				"date": 1735689600
			},
			"links": {"self": "https://example.com/analyses/analysis-1"}
		}
	}`
	server := newDeepScanTestServer(t, body)
	defer server.Close()

	client := NewDeepScanClient("test-key", logging.New())
	client.baseURL = server.URL
	client.pollInterval = time.Millisecond

	summary, err := client.Scan(context.Background(), "https://evil.example.com")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if summary.Verdict != VerdictMalicious {
		t.Errorf("verdict = %q, want MALICIOUS", summary.Verdict)
	}
	if summary.Malicious != 3 || summary.Harmless != 60 {
		t.Errorf("stats = %+v", summary)
	}
	if len(summary.Detections) != 1 || summary.Detections[0].Engine != "EngineA" {
		t.Errorf("detections = %v", summary.Detections)
	}
	if len(summary.Engines) != 2 {
		t.Errorf("engines = %v", summary.Engines)
	}
	if summary.ScanDate == "" {
		t.Error("scan date missing")
	}
}

func TestScanCleanVerdict(t *testing.T) {
	body := `{
		"data": {
			"attributes": {
				"status": "completed",
				"stats": {"harmless": 70, "malicious": 0, "suspicious": 0, "undetected": 5}
			},
			"links": {"self": ""}
		}
	}`
	server := newDeepScanTestServer(t, body)
	defer server.Close()

	client := NewDeepScanClient("test-key", logging.New())
	client.baseURL = server.URL
	client.pollInterval = time.Millisecond

	summary, err := client.Scan(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if summary.Verdict != VerdictClean {
		t.Errorf("verdict = %q, want CLEAN", summary.Verdict)
	}
	if len(summary.Detections) != 0 {
		t.Errorf("detections = %v, want none", summary.Detections)
	}
}

func TestScanSuspiciousVerdict(t *testing.T) {
	summary := buildSummary(&analysisResponse{}, &reportAttributes{
		LastAnalysisStats: map[string]int{"suspicious": 2, "harmless": 50},
	})
	if summary.Verdict != VerdictSuspicious {
		t.Errorf("verdict = %q, want SUSPICIOUS", summary.Verdict)
	}
	if summary.Suspicious != 2 {
		t.Errorf("suspicious = %d, want 2", summary.Suspicious)
	}
}

func TestScanUnconfigured(t *testing.T) {
	client := NewDeepScanClient("", logging.New())
	if client.Configured() {
		t.Error("empty key reports configured")
	}
	if _, err := client.Scan(context.Background(), "https://example.com"); err == nil {
		t.Error("expected error from unconfigured client")
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"malicious", "MALICIOUS"},
		{"suspicious", "SUSPICIOUS"},
		{"harmless", "SAFE"},
		{"undetected", "UNDETECTED"},
		{"timeout", "UNKNOWN"},
		{"", "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := normalizeCategory(tt.raw); got != tt.want {
			t.Errorf("normalizeCategory(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
