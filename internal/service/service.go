// Package service provides the business logic layer for QR payload
// analysis. It sits between the HTTP transport layer and the analyzer,
// coordinating the cache, history, monitoring, and enrichment.
package service

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/qrguardian/guardian/internal/analyzer"
	"github.com/qrguardian/guardian/internal/enrichment"
	"github.com/qrguardian/guardian/internal/history"
	"github.com/qrguardian/guardian/internal/logging"
	"github.com/qrguardian/guardian/internal/monitor"
)

// HistoryStore is the persistence surface the service needs
type HistoryStore interface {
	Save(url, rating string, score int, issues []string) (*history.Record, error)
	Recent(limit int) ([]history.Record, error)
}

// DeepScanner submits a URL to a multi-engine scan service
type DeepScanner interface {
	Configured() bool
	Scan(ctx context.Context, target string) (*enrichment.DeepScanSummary, error)
}

// DomainLookup fetches WHOIS-level registration data
type DomainLookup interface {
	Configured() bool
	Lookup(ctx context.Context, target string) (*enrichment.DomainIntel, error)
}

// InsightProvider asks a model for an advisory verdict
type InsightProvider interface {
	Configured() bool
	Assess(ctx context.Context, target string) (*enrichment.Insight, error)
}

// Service wires the analysis pipeline together
type Service struct {
	engine       *analyzer.Engine
	cache        analyzer.Cache
	store        HistoryStore
	monitor      *monitor.Monitor
	deepScanner  DeepScanner
	domainLookup DomainLookup
	insight      InsightProvider
	logger       *logging.Logger

	scanCounter metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// New creates a Service. The history store, monitor, and enrichment
// clients may be nil when their backing configuration is absent.
func New(
	engine *analyzer.Engine,
	cache analyzer.Cache,
	store HistoryStore,
	mon *monitor.Monitor,
	deepScanner DeepScanner,
	domainLookup DomainLookup,
	insight InsightProvider,
	logger *logging.Logger,
) *Service {
	meter := otel.Meter("guardian/service")
	scanCounter, _ := meter.Int64Counter("guardian.scans",
		metric.WithDescription("Total payloads analyzed"))
	cacheHits, _ := meter.Int64Counter("guardian.cache.hits",
		metric.WithDescription("Analysis results served from cache"))
	cacheMisses, _ := meter.Int64Counter("guardian.cache.misses",
		metric.WithDescription("Analysis results computed fresh"))

	return &Service{
		engine:       engine,
		cache:        cache,
		store:        store,
		monitor:      mon,
		deepScanner:  deepScanner,
		domainLookup: domainLookup,
		insight:      insight,
		logger:       logger,
		scanCounter:  scanCounter,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
	}
}

// Analyze scores a payload, serving a cached result when one is still
// fresh. The boolean reports whether the result came from cache.
func (s *Service) Analyze(ctx context.Context, payload string) (*analyzer.Result, bool) {
	s.scanCounter.Add(ctx, 1)

	if cached, ok := s.cache.Get(payload); ok {
		s.cacheHits.Add(ctx, 1)
		s.logger.Info("Serving cached analysis", "payload_length", len(payload))
		return cached, true
	}
	s.cacheMisses.Add(ctx, 1)

	result := s.engine.Analyze(ctx, payload)
	s.cache.Put(payload, result)

	s.logger.Info("Analysis completed",
		"rating", string(result.Rating),
		"score", result.Score,
		"issues", len(result.Issues),
	)

	// Compare against history before this scan is recorded, so the
	// previous verdict for the domain is still the latest entry
	if s.monitor != nil {
		s.monitor.Compare(ctx, payload, result)
	}

	if s.store != nil {
		if _, err := s.store.Save(payload, string(result.Rating), result.Score, result.Issues); err != nil {
			s.logger.Error("Failed to record analysis", "error", err)
		}
	}

	return result, false
}

// Recent returns the latest stored analysis records, newest first
func (s *Service) Recent(limit int) ([]history.Record, error) {
	if s.store == nil {
		return []history.Record{}, nil
	}
	return s.store.Recent(limit)
}

// Enrichment bundles the optional external assessments of a URL.
// Absent or failed services leave their field nil.
type Enrichment struct {
	DeepScan    *enrichment.DeepScanSummary `json:"deep_scan,omitempty"`
	DomainIntel *enrichment.DomainIntel     `json:"domain_intel,omitempty"`
	Insight     *enrichment.Insight         `json:"ai_insight,omitempty"`
	Errors      []string                    `json:"errors,omitempty"`
}

// Enrich queries the configured enrichment services concurrently and
// returns whatever succeeded. Individual failures are reported inline
// rather than failing the whole request.
func (s *Service) Enrich(ctx context.Context, target string) *Enrichment {
	result := &Enrichment{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	addError := func(msg string) {
		mu.Lock()
		result.Errors = append(result.Errors, msg)
		mu.Unlock()
	}

	if s.deepScanner != nil && s.deepScanner.Configured() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := s.deepScanner.Scan(ctx, target)
			if err != nil {
				s.logger.Error("Deep scan failed", "error", err)
				addError("deep scan unavailable")
				return
			}
			mu.Lock()
			result.DeepScan = summary
			mu.Unlock()
		}()
	}

	if s.domainLookup != nil && s.domainLookup.Configured() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			intel, err := s.domainLookup.Lookup(ctx, target)
			if err != nil {
				s.logger.Error("Domain lookup failed", "error", err)
				addError("domain intel unavailable")
				return
			}
			mu.Lock()
			result.DomainIntel = intel
			mu.Unlock()
		}()
	}

	if s.insight != nil && s.insight.Configured() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			insight, err := s.insight.Assess(ctx, target)
			if err != nil {
				s.logger.Error("Insight request failed", "error", err)
				addError("AI insight unavailable")
				return
			}
			mu.Lock()
			result.Insight = insight
			mu.Unlock()
		}()
	}

	wg.Wait()
	return result
}
