package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/qrguardian/guardian/internal/logging"
)

// ThreatLookup is the normalized outcome of one reputation query.
// Verified is false when the lookup could not be completed; in that
// case Labels carries at most a single informational marker and the
// engine applies no score penalty.
type ThreatLookup struct {
	Labels   []string
	Verified bool
}

// ReputationGateway is the capability interface for the external
// known-threat lookup service. Implementations must never fail:
// transport or API errors are converted into an unverified lookup.
type ReputationGateway interface {
	// Configured reports whether a credential is available. When it
	// is not, CheckURL runs in a deterministic mock mode and the
	// engine adds an informational issue instead of threat labels.
	Configured() bool

	// CheckURL looks up the payload, treated as a URL, and returns
	// zero or more threat labels.
	CheckURL(ctx context.Context, target string) ThreatLookup
}

// Resolver expands a shortened URL to its final destination.
// Best effort: an error means only that no expansion note is added.
type Resolver interface {
	Resolve(ctx context.Context, target string) (finalURL string, hops int, err error)
}

// Engine sequences every detector over one payload, aggregates score
// and severity, resolves the final rating, and assembles the issue
// list. It holds no per-analysis state and is safe for concurrent use.
type Engine struct {
	brands   []BrandPattern
	gateway  ReputationGateway
	resolver Resolver
	logger   *logging.Logger
}

// New creates an Engine. gateway and resolver may be nil; the engine
// then skips the reputation lookup and the short-URL expansion.
func New(gateway ReputationGateway, resolver Resolver, logger *logging.Logger) *Engine {
	return &Engine{
		brands:   DefaultBrands(),
		gateway:  gateway,
		resolver: resolver,
		logger:   logger,
	}
}

// rules in evaluation order: scheme directives first, then domain
// analysis, then keyword scan. Structural heuristics and the
// reputation lookup are sequenced by Analyze itself.
var orderedRules = []ruleFunc{
	wifiRule,
	smsRule,
	telRule,
	homographRule,
	brandRule,
	entropyRule,
	sensitiveKeywordRule,
	injectionRule,
}

// Analyze runs the full heuristic pass over one payload and returns a
// complete result. It never fails: parse problems degrade to permissive
// defaults and collaborator failures become informational issues.
func (e *Engine) Analyze(ctx context.Context, payload string) *Result {
	rctx := ruleContext{
		payload: payload,
		lower:   strings.ToLower(payload),
		domain:  ExtractDomain(payload),
		brands:  e.brands,
	}

	score := 100
	floor := RatingSafe
	var issues []string

	apply := func(res ruleResult) {
		score += res.delta
		issues = append(issues, res.issues...)
		floor = maxRating(floor, res.floor)
	}

	for _, rule := range orderedRules {
		apply(rule(rctx))
	}

	// Shortener check with best-effort redirect resolution
	if hasShortener(rctx) {
		score -= 35
		issues = append(issues, issueShortener)

		if e.resolver != nil {
			finalURL, hops, err := e.resolver.Resolve(ctx, payload)
			if err != nil {
				e.logger.Info("short URL resolution failed", "payload", payload, "error", err)
			} else if finalURL != "" && finalURL != payload {
				note := fmt.Sprintf("Short URL expands to: %s", finalURL)
				if hops > 0 {
					note = fmt.Sprintf("%s (approx. %d redirect)", note, hops)
				}
				issues = append(issues, note)
			}
		}
	}

	apply(insecureTransportRule(rctx))
	apply(openRedirectRule(rctx))
	apply(scamKeywordRule(rctx))
	apply(ipLiteralRule(rctx))
	apply(suspiciousTLDRule(rctx))
	apply(subdomainRule(rctx))

	// External reputation lookup. Lookup failures are informational
	// only: connectivity problems are never scored as threats.
	var threats []string
	if e.gateway == nil || !e.gateway.Configured() {
		issues = append(issues, issueAPIUnconfigured)
		if e.gateway != nil {
			threats = e.gateway.CheckURL(ctx, payload).Labels
		}
	} else {
		lookup := e.gateway.CheckURL(ctx, payload)
		threats = lookup.Labels
		if lookup.Verified && len(threats) > 0 {
			score -= 50
			issues = append(issues, issueKnownThreats)
		}
	}

	// Single clamp after all deltas
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	rating := RatingDangerous
	switch {
	case score >= 80:
		rating = RatingSafe
	case score >= 50:
		rating = RatingCaution
	}
	// A floor can only escalate, never de-escalate
	rating = maxRating(rating, floor)

	return &Result{
		IsSafe:  rating == RatingSafe,
		Rating:  rating,
		Score:   score,
		Issues:  append(issues, threats...),
		Threats: threats,
	}
}
