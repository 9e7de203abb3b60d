// Package monitor compares fresh analysis verdicts against stored
// history and raises a notification when a domain's threat status
// changes materially.
package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/qrguardian/guardian/internal/analyzer"
	"github.com/qrguardian/guardian/internal/history"
	"github.com/qrguardian/guardian/internal/logging"
	"github.com/qrguardian/guardian/internal/notify"
)

// HistorySource provides recent analysis records, newest first
type HistorySource interface {
	Recent(limit int) ([]history.Record, error)
}

// Monitor detects rating transitions for a domain between scans
type Monitor struct {
	source   HistorySource
	notifier notify.Notifier
	logger   *logging.Logger
	now      func() time.Time
}

func New(source HistorySource, notifier notify.Notifier, logger *logging.Logger) *Monitor {
	return &Monitor{
		source:   source,
		notifier: notifier,
		logger:   logger.WithComponent("monitor"),
		now:      time.Now,
	}
}

// Compare looks up the most recent previous verdict for the payload's
// domain and notifies when the status degraded. Failures are logged
// and never propagated; monitoring must not affect analysis.
func (m *Monitor) Compare(ctx context.Context, payload string, result *analyzer.Result) {
	domain := analyzer.ExtractDomain(payload)
	if domain == "" {
		return
	}

	records, err := m.source.Recent(0)
	if err != nil {
		m.logger.Error("History lookup failed", "error", err)
		return
	}

	previous, found := m.lastVerdict(records, payload, domain)
	if !found {
		return
	}

	current := result.Rating
	if !shouldNotify(previous, current) {
		return
	}

	event := notify.ChangeEvent{
		Domain:         domain,
		PreviousRating: string(previous),
		NewRating:      string(current),
		At:             m.now().UTC(),
	}
	if err := m.notifier.Notify(event); err != nil {
		m.logger.Error("Change notification failed", "domain", domain, "error", err)
	}
}

// lastVerdict finds the newest stored record covering the same domain
func (m *Monitor) lastVerdict(records []history.Record, payload, domain string) (analyzer.Rating, bool) {
	for _, record := range records {
		recordDomain := analyzer.ExtractDomain(record.URL)
		if strings.Contains(record.URL, domain) || (recordDomain != "" && strings.Contains(payload, recordDomain)) {
			return analyzer.Rating(record.Rating), true
		}
	}
	return "", false
}

// shouldNotify reports whether the transition warrants a notification:
// leaving SAFE, or newly reaching DANGEROUS
func shouldNotify(previous, current analyzer.Rating) bool {
	if previous == analyzer.RatingSafe && current != analyzer.RatingSafe {
		return true
	}
	if current == analyzer.RatingDangerous && previous != analyzer.RatingDangerous {
		return true
	}
	return false
}
