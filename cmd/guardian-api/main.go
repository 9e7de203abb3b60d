package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qrguardian/guardian/internal/analyzer"
	"github.com/qrguardian/guardian/internal/config"
	"github.com/qrguardian/guardian/internal/enrichment"
	"github.com/qrguardian/guardian/internal/history"
	"github.com/qrguardian/guardian/internal/httpapi"
	"github.com/qrguardian/guardian/internal/httpclient"
	"github.com/qrguardian/guardian/internal/logging"
	"github.com/qrguardian/guardian/internal/monitor"
	"github.com/qrguardian/guardian/internal/notify"
	"github.com/qrguardian/guardian/internal/reputation"
	"github.com/qrguardian/guardian/internal/service"
)

func main() {
	// Load configuration from environment variables
	cfg := config.Load()

	// Initialize logger
	logger := logging.New()

	// HTTP client used for short-URL expansion
	httpClient := httpclient.New(cfg.RequestTimeout, cfg.MaxRedirects, cfg.DefaultUserAgent)

	// Reputation gateway; runs in mock mode without a key
	gateway := reputation.New(cfg.SafeBrowsingAPIKey, cfg.ReputationRPS, logger)
	if !gateway.Configured() {
		logger.Info("Reputation API key absent, running with mock lookups")
	}

	// Analysis engine and result cache
	engine := analyzer.New(gateway, httpClient, logger)
	cache := analyzer.NewMemoryCache(cfg.CacheTTL)

	// Scan history store
	store, err := history.Open(cfg.HistoryDB, cfg.HistoryLimit)
	if err != nil {
		logger.Error("Failed to open history database", "path", cfg.HistoryDB, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Threat-change notifier: NATS when configured, logs otherwise
	var notifier notify.Notifier
	var natsNotifier *notify.NATSNotifier
	if cfg.NATSURL != "" {
		natsNotifier, err = notify.NewNATSNotifier(cfg.NATSURL, "guardian.threat.changes", logger)
		if err != nil {
			logger.Error("Failed to connect notifier, falling back to logs", "error", err)
			notifier = notify.NewLogNotifier(logger)
		} else {
			notifier = natsNotifier
		}
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	mon := monitor.New(store, notifier, logger)

	// Enrichment clients; each is skipped when its key is absent
	var deepScanner service.DeepScanner
	if cfg.DeepScanAPIKey != "" {
		deepScanner = enrichment.NewDeepScanClient(cfg.DeepScanAPIKey, logger)
	}
	var domainLookup service.DomainLookup
	if cfg.DomainIntelAPIKey != "" {
		domainLookup = enrichment.NewDomainIntelClient(cfg.DomainIntelAPIKey, logger)
	}
	var insight service.InsightProvider
	if cfg.AIInsightAPIKey != "" {
		insight = enrichment.NewInsightClient(cfg.AIInsightAPIKey, logger)
	}

	svc := service.New(engine, cache, store, mon, deepScanner, domainLookup, insight, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := httpapi.NewServer(addr, logger, svc)

	// Channel to listen for OS signals (Ctrl+C, kill, etc.)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine so it doesn't block
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil {
			logger.Error("Server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	logger.Info("Shutting down server...")

	// Create a context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if natsNotifier != nil {
		natsNotifier.Close()
	}

	logger.Info("Server stopped gracefully")
}
