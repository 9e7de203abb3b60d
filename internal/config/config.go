package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port int // HTTP server port

	// Outbound HTTP configuration (short-URL resolution, API clients)
	RequestTimeout   time.Duration // Per-request timeout
	MaxRedirects     int           // Maximum number of redirects to follow
	DefaultUserAgent string        // Default User-Agent header

	// Analysis configuration
	CacheTTL     time.Duration // Freshness window for memoized results
	HistoryDB    string        // Path to the scan history database file
	HistoryLimit int           // Number of scan records to retain

	// External service credentials. Empty means the service is
	// permanently unavailable and a neutral fallback is used.
	SafeBrowsingAPIKey string // Reputation lookup
	DeepScanAPIKey     string // Multi-engine URL scan
	DomainIntelAPIKey  string // Domain registration / WHOIS lookup
	AIInsightAPIKey    string // Generative-AI semantic classifier

	// ReputationRPS caps outbound reputation lookups per second
	ReputationRPS float64

	// NATSURL enables the NATS threat-change notifier when non-empty
	NATSURL string
}

// Load reads configuration from environment variables
// and returns a Config struct with defaults applied.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 3000*time.Millisecond),
		MaxRedirects:     getEnvAsInt("MAX_REDIRECTS", 5),
		DefaultUserAgent: getEnv("DEFAULT_USER_AGENT", "guardian-scanner/1.0"),

		CacheTTL:     getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		HistoryDB:    getEnv("HISTORY_DB_PATH", "guardian-history.db"),
		HistoryLimit: getEnvAsInt("HISTORY_LIMIT", 50),

		SafeBrowsingAPIKey: getEnv("SAFE_BROWSING_API_KEY", ""),
		DeepScanAPIKey:     getEnv("DEEP_SCAN_API_KEY", ""),
		DomainIntelAPIKey:  getEnv("DOMAIN_INTEL_API_KEY", ""),
		AIInsightAPIKey:    getEnv("AI_INSIGHT_API_KEY", ""),

		ReputationRPS: getEnvAsFloat("REPUTATION_RPS", 5),

		NATSURL: getEnv("NATS_URL", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as an integer
// If the variable doesn't exist or can't be parsed, returns the default
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloat reads an environment variable as a float64
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads an environment variable as milliseconds and converts to time.Duration
// If the variable doesn't exist or can't be parsed, returns the default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	// Parse as milliseconds
	ms, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return time.Duration(ms) * time.Millisecond
}
