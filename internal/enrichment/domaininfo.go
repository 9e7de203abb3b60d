package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/qrguardian/guardian/internal/analyzer"
	"github.com/qrguardian/guardian/internal/logging"
)

// DomainIntel is the registration profile of a URL's domain
type DomainIntel struct {
	Domain     string `json:"domain"`
	Registrar  string `json:"registrar,omitempty"`
	CreateDate string `json:"create_date,omitempty"`
	ExpireDate string `json:"expire_date,omitempty"`
	Country    string `json:"country,omitempty"`
	AgeDays    int    `json:"age_days"`
	IsVeryNew  bool   `json:"is_very_new"`
}

// DomainIntelClient wraps an ip2whois-style WHOIS lookup API
type DomainIntelClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	now        func() time.Time
}

// NewDomainIntelClient creates a domain-intel client. An empty apiKey
// means the service is unavailable.
func NewDomainIntelClient(apiKey string, logger *logging.Logger) *DomainIntelClient {
	return &DomainIntelClient{
		apiKey:  apiKey,
		baseURL: "https://api.ip2whois.com/v2",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.WithComponent("domainintel"),
		now:    time.Now,
	}
}

// Configured reports whether an API credential is available
func (c *DomainIntelClient) Configured() bool {
	return c.apiKey != ""
}

// Lookup fetches WHOIS data for the domain of the given URL or payload
func (c *DomainIntelClient) Lookup(ctx context.Context, target string) (*DomainIntel, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("domain intel API key not configured")
	}

	domain := analyzer.ExtractDomain(target)
	if domain == "" {
		return nil, fmt.Errorf("could not extract a domain from %q", target)
	}

	query := url.Values{
		"key":    {c.apiKey},
		"domain": {domain},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create WHOIS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch WHOIS data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("WHOIS lookup returned status %d", resp.StatusCode)
	}

	var whois struct {
		Domain     string `json:"domain"`
		CreateDate string `json:"create_date"`
		ExpireDate string `json:"expire_date"`
		Registrar  struct {
			Name string `json:"name"`
		} `json:"registrar"`
		Registrant struct {
			Country string `json:"country"`
		} `json:"registrant"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&whois); err != nil {
		return nil, fmt.Errorf("failed to parse WHOIS response: %w", err)
	}

	intel := &DomainIntel{
		Domain:     domain,
		Registrar:  whois.Registrar.Name,
		CreateDate: whois.CreateDate,
		ExpireDate: whois.ExpireDate,
		Country:    whois.Registrant.Country,
	}

	if created, err := parseWhoisDate(whois.CreateDate); err == nil {
		intel.AgeDays = int(c.now().Sub(created).Hours() / 24)
		intel.IsVeryNew = intel.AgeDays >= 0 && intel.AgeDays <= 7
	}

	return intel, nil
}

// parseWhoisDate accepts the date layouts WHOIS providers commonly use
func parseWhoisDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
}
