package analyzer

import "testing"

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "full https URL with www and path",
			payload: "https://www.example.com/path?q=1",
			want:    "example.com",
		},
		{
			name:    "bare domain",
			payload: "example.com",
			want:    "example.com",
		},
		{
			name:    "domain with path but no scheme",
			payload: "example.com/login",
			want:    "example.com",
		},
		{
			name:    "uppercase input is lowered",
			payload: "HTTPS://WWW.Example.COM/Path",
			want:    "example.com",
		},
		{
			name:    "surrounding whitespace is trimmed",
			payload: "  https://example.com  ",
			want:    "example.com",
		},
		{
			name:    "port is stripped",
			payload: "https://example.com:8080/admin",
			want:    "example.com",
		},
		{
			name:    "shortener with path",
			payload: "https://bit.ly/abc123",
			want:    "bit.ly",
		},
		{
			name:    "subdomains are kept",
			payload: "https://login.secure.example.com",
			want:    "login.secure.example.com",
		},
		{
			name:    "punycode host",
			payload: "https://xn--pypal-4ve.com/signin",
			want:    "xn--pypal-4ve.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDomain(tt.payload)
			if got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}

func TestExtractDomainIsDeterministic(t *testing.T) {
	payload := "https://www.example.com/path"
	first := ExtractDomain(payload)
	for i := 0; i < 10; i++ {
		if got := ExtractDomain(payload); got != first {
			t.Fatalf("ExtractDomain changed between calls: %q then %q", first, got)
		}
	}
}
