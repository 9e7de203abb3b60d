package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qrguardian/guardian/internal/logging"
)

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("domain"); got != "example.com" {
			t.Errorf("domain param = %q, want example.com", got)
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("missing key param")
		}
		w.Write([]byte(`{
			"domain": "example.com",
			"create_date": "2020-01-15",
			"expire_date": "2030-01-15",
			"registrar": {"name": "Example Registrar Inc."},
			"registrant": {"country": "US"}
		}`))
	}))
	defer server.Close()

	client := NewDomainIntelClient("test-key", logging.New())
	client.baseURL = server.URL
	client.now = func() time.Time { return time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC) }

	// The domain is extracted from the full URL before the lookup
	intel, err := client.Lookup(context.Background(), "https://www.example.com/some/path")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if intel.Domain != "example.com" {
		t.Errorf("domain = %q", intel.Domain)
	}
	if intel.Registrar != "Example Registrar Inc." {
		t.Errorf("registrar = %q", intel.Registrar)
	}
	if intel.AgeDays != 5*365+2 { // five years incl. 2020 and 2024 leap days
		t.Errorf("age_days = %d", intel.AgeDays)
	}
	if intel.IsVeryNew {
		t.Error("five-year-old domain marked very new")
	}
}

func TestLookupFlagsVeryNewDomain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"domain": "fresh.example", "create_date": "2025-06-10"}`))
	}))
	defer server.Close()

	client := NewDomainIntelClient("test-key", logging.New())
	client.baseURL = server.URL
	client.now = func() time.Time { return time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC) }

	intel, err := client.Lookup(context.Background(), "https://fresh.example")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !intel.IsVeryNew {
		t.Errorf("three-day-old domain not marked very new: %+v", intel)
	}
	if intel.AgeDays != 3 {
		t.Errorf("age_days = %d, want 3", intel.AgeDays)
	}
}

func TestLookupMissingCreateDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"domain": "example.com"}`))
	}))
	defer server.Close()

	client := NewDomainIntelClient("test-key", logging.New())
	client.baseURL = server.URL

	intel, err := client.Lookup(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if intel.AgeDays != 0 || intel.IsVeryNew {
		t.Errorf("unexpected age fields: %+v", intel)
	}
}

func TestParseWhoisDate(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"2024-03-01", false},
		{"2024-03-01T10:30:00Z", false},
		{"2024-03-01 10:30:00", false},
		{"March 1st 2024", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := parseWhoisDate(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseWhoisDate(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
	}
}
