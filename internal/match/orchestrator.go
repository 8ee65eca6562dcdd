// Package match sequences providers, credentials, and enrichment for one
// resolution attempt.
//
// The orchestrator walks providers in priority order and stops at the first
// confident match. Credentials are fetched lazily, refreshed at most once per
// provider per run, and refreshed values are cached for the rest of the run
// so the enrichment retry does not trigger a second refresh.
package match

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/enrich"
	"github.com/desertthunder/trackdown/internal/fuzzy"
	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/providers"
)

// DefaultEnrichmentThreshold gates acting on an AI guess. Inclusive: a guess
// at exactly the threshold is trusted.
const DefaultEnrichmentThreshold = 0.6

// TokenSource supplies and refreshes per-provider credentials.
type TokenSource interface {
	// Token returns the current credential for a provider.
	Token(provider string) (string, error)

	// Refresh obtains a new credential after the current one was rejected.
	// The new credential is expected to be persisted by the implementation.
	Refresh(ctx context.Context, provider string) (string, error)
}

// Options tunes the orchestrator thresholds. Zero values select the
// defaults.
type Options struct {
	AcceptThreshold     float64
	EnrichmentThreshold float64
}

// Orchestrator finds a track across destination catalogs.
type Orchestrator struct {
	registry *providers.Registry
	tokens   TokenSource
	enricher enrich.Enricher // optional
	logger   *log.Logger

	acceptThreshold     float64
	enrichmentThreshold float64
}

// New creates an orchestrator. The enricher may be nil, in which case the
// enrichment pass is skipped.
func New(registry *providers.Registry, tokens TokenSource, enricher enrich.Enricher, logger *log.Logger, opts Options) *Orchestrator {
	if opts.AcceptThreshold <= 0 {
		opts.AcceptThreshold = fuzzy.AcceptThreshold
	}
	if opts.EnrichmentThreshold <= 0 {
		opts.EnrichmentThreshold = DefaultEnrichmentThreshold
	}

	return &Orchestrator{
		registry:            registry,
		tokens:              tokens,
		enricher:            enricher,
		logger:              logger,
		acceptThreshold:     opts.AcceptThreshold,
		enrichmentThreshold: opts.EnrichmentThreshold,
	}
}

// runState carries per-run credential bookkeeping. A refreshed token is
// reused for every later search in the same run; a provider is refreshed at
// most once no matter how often it rejects the credential.
type runState struct {
	refreshedTokens map[string]string
	refreshAttempts map[string]bool
}

func newRunState() *runState {
	return &runState{
		refreshedTokens: make(map[string]string),
		refreshAttempts: make(map[string]bool),
	}
}

// Match resolves the query to a confident catalog match, or nil when no
// provider produced one. Provider failures are logged and skipped; an error
// is returned only when the query itself is unusable.
func (o *Orchestrator) Match(ctx context.Context, query models.ParsedQuery) (*models.SearchMatch, error) {
	if query.RawTitle == "" {
		return nil, fmt.Errorf("empty query title")
	}

	state := newRunState()

	if found := o.searchProviders(ctx, query, state); found != nil {
		return found, nil
	}

	if o.enricher == nil {
		return nil, nil
	}

	guess, err := o.enricher.Guess(ctx, query.RawTitle, query.RawDescription)
	if err != nil {
		o.logger.Warn("enrichment failed", "error", err)
		return nil, nil
	}
	if guess.Confidence < o.enrichmentThreshold {
		o.logger.Debug("enrichment guess below threshold", "confidence", guess.Confidence)
		return nil, nil
	}

	o.logger.Info("retrying with enriched identification",
		"artist", guess.Track.Artist, "song", guess.Track.Song, "confidence", guess.Confidence)

	enrichedQuery := models.ParsedQuery{
		RawTitle:       query.RawTitle,
		RawDescription: query.RawDescription,
		Artist:         guess.Track.Artist,
		Song:           guess.Track.Song,
	}

	found := o.searchProviders(ctx, enrichedQuery, state)
	if found != nil {
		found.Enriched = true
	}
	return found, nil
}

// searchProviders walks the registry in order and returns the first match at
// or above the acceptance threshold.
func (o *Orchestrator) searchProviders(ctx context.Context, query models.ParsedQuery, state *runState) *models.SearchMatch {
	for _, provider := range o.registry.All() {
		match := o.searchOne(ctx, provider, query, state)
		if match == nil {
			continue
		}
		if match.Confidence < o.acceptThreshold {
			o.logger.Debug("match below acceptance threshold",
				"provider", provider.Name(), "confidence", match.Confidence)
			continue
		}
		return match
	}
	return nil
}

// searchOne runs a single provider search, refreshing the credential once if
// it is rejected. Returns nil when the provider had no usable answer.
func (o *Orchestrator) searchOne(ctx context.Context, provider providers.Provider, query models.ParsedQuery, state *runState) *models.SearchMatch {
	name := provider.Name()

	token, err := o.tokenFor(name, state)
	if err != nil {
		o.logger.Warn("no credential for provider", "provider", name, "error", err)
		return nil
	}

	outcome, err := provider.SearchTrack(ctx, token, query)
	if err != nil {
		o.logger.Warn("provider search failed", "provider", name, "error", err)
		return nil
	}

	if outcome.NeedsReauth {
		refreshed, ok := o.refreshOnce(ctx, name, state)
		if !ok {
			return nil
		}

		outcome, err = provider.SearchTrack(ctx, refreshed, query)
		if err != nil {
			o.logger.Warn("provider search failed after refresh", "provider", name, "error", err)
			return nil
		}
		if outcome.NeedsReauth {
			o.logger.Warn("provider still rejects refreshed credential", "provider", name)
			return nil
		}
	}

	return outcome.Match
}

// tokenFor prefers a token refreshed earlier in this run over the stored one.
func (o *Orchestrator) tokenFor(provider string, state *runState) (string, error) {
	if token, ok := state.refreshedTokens[provider]; ok {
		return token, nil
	}
	return o.tokens.Token(provider)
}

// refreshOnce refreshes a provider credential, at most once per run.
func (o *Orchestrator) refreshOnce(ctx context.Context, provider string, state *runState) (string, bool) {
	if state.refreshAttempts[provider] {
		o.logger.Warn("credential already refreshed this run", "provider", provider)
		return "", false
	}
	state.refreshAttempts[provider] = true

	token, err := o.tokens.Refresh(ctx, provider)
	if err != nil {
		o.logger.Warn("credential refresh failed", "provider", provider, "error", err)
		return "", false
	}

	state.refreshedTokens[provider] = token
	return token, true
}
