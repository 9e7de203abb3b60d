package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolveFollowsChain(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			http.Redirect(w, r, server.URL+"/b", http.StatusMovedPermanently)
		case "/b":
			// Relative redirect
			http.Redirect(w, r, "/final", http.StatusFound)
		case "/final":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(5*time.Second, 5, "test-agent")

	finalURL, hops, err := client.Resolve(context.Background(), server.URL+"/a")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if finalURL != server.URL+"/final" {
		t.Errorf("final URL = %q, want %q", finalURL, server.URL+"/final")
	}
	if hops != 2 {
		t.Errorf("hops = %d, want 2", hops)
	}
}

func TestResolveNoRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(5*time.Second, 5, "test-agent")

	finalURL, hops, err := client.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if finalURL != server.URL || hops != 0 {
		t.Errorf("got %q after %d hops", finalURL, hops)
	}
}

func TestResolveStopsAtMaxRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Redirect loop
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	client := New(5*time.Second, 3, "test-agent")

	_, hops, err := client.Resolve(context.Background(), server.URL+"/loop")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if hops != 4 {
		t.Errorf("hops = %d, want maxRedirects+1", hops)
	}
}

func TestResolveHeadFallsBackToGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(5*time.Second, 5, "test-agent")

	finalURL, _, err := client.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if finalURL != server.URL {
		t.Errorf("final URL = %q", finalURL)
	}
}
