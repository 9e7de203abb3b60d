package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps http.Client for the outbound requests the analyzer
// makes: short-URL resolution probes and collaborator API calls.
// Redirects are followed manually so hop counts can be reported.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxRedirects int
}

// Response holds the subset of the HTTP response the callers need
type Response struct {
	StatusCode int
	Proto      string // e.g., "HTTP/2.0"
	Header     http.Header
}

// New creates a new HTTP client with the configured transport
func New(timeout time.Duration, maxRedirects int, userAgent string) *Client {
	return &Client{
		userAgent:    userAgent,
		maxRedirects: maxRedirects,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(),
			// Don't follow redirects automatically - Resolve handles
			// the chain itself so it can count hops
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// newTransport creates a configured HTTP transport
// The transport is reused across requests for connection pooling
func newTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// Do performs a single HTTP request without following redirects
func (c *Client) Do(ctx context.Context, method, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return &Response{
		StatusCode: resp.StatusCode,
		Proto:      resp.Proto,
		Header:     resp.Header,
	}, nil
}

// Resolve follows the redirect chain of a (typically shortened) URL and
// returns the final destination plus the number of hops taken. It uses
// HEAD requests, falling back to GET when the server rejects HEAD.
func (c *Client) Resolve(ctx context.Context, rawURL string) (string, int, error) {
	currentURL := ensureScheme(rawURL)
	hops := 0

	for {
		resp, err := c.head(ctx, currentURL)
		if err != nil {
			return "", hops, err
		}

		// Not a redirect: the chain ends here
		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			return currentURL, hops, nil
		}

		location := resp.Header.Get("Location")
		if location == "" {
			return currentURL, hops, nil
		}

		hops++
		if hops > c.maxRedirects {
			return currentURL, hops, nil
		}

		// The location may be relative; resolve against the current URL
		locationURL, err := url.Parse(location)
		if err != nil {
			return currentURL, hops, nil
		}
		currentParsed, err := url.Parse(currentURL)
		if err != nil {
			return currentURL, hops, nil
		}
		currentURL = currentParsed.ResolveReference(locationURL).String()
	}
}

// head performs a HEAD request, retrying with GET on 405
func (c *Client) head(ctx context.Context, target string) (*Response, error) {
	resp, err := c.Do(ctx, http.MethodHead, target)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed {
		return c.Do(ctx, http.MethodGet, target)
	}
	return resp, nil
}

// ensureScheme prepends https:// to schemeless URLs so they can be
// fetched
func ensureScheme(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "https://" + rawURL
	}
	return rawURL
}
