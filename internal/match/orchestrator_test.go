package match

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/providers"
	"github.com/desertthunder/trackdown/internal/shared"
	mocks "github.com/desertthunder/trackdown/internal/testing"
)

func matchOutcome(provider string, confidence float64) models.SearchOutcome {
	return models.SearchOutcome{Match: &models.SearchMatch{
		Track:      models.TrackInfo{Artist: "Daft Punk", Song: "One More Time"},
		Confidence: confidence,
		URI:        provider + ":track:1",
		Provider:   provider,
	}}
}

func structuredQuery() models.ParsedQuery {
	return models.ParsedQuery{
		RawTitle: "Daft Punk - One More Time",
		Artist:   "Daft Punk",
		Song:     "One More Time",
	}
}

func TestOrchestratorMatch(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	ctx := context.Background()

	t.Run("first confident match wins", func(t *testing.T) {
		first := &mocks.MockProvider{ProviderName: "spotify", Outcomes: []models.SearchOutcome{matchOutcome("spotify", 0.9)}}
		second := &mocks.MockProvider{ProviderName: "deezer", Outcomes: []models.SearchOutcome{matchOutcome("deezer", 0.9)}}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{"spotify": "s-token", "deezer": "d-token"}}

		o := New(providers.NewRegistry(first, second), tokens, nil, logger, Options{})
		got, err := o.Match(ctx, structuredQuery())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.Provider != "spotify" {
			t.Fatalf("expected spotify match, got %+v", got)
		}
		if len(second.SearchCalls) != 0 {
			t.Error("second provider should not be searched after a confident match")
		}
	})

	t.Run("providers searched in order until match", func(t *testing.T) {
		first := &mocks.MockProvider{ProviderName: "spotify"}
		second := &mocks.MockProvider{ProviderName: "deezer", Outcomes: []models.SearchOutcome{matchOutcome("deezer", 0.7)}}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{"spotify": "s", "deezer": "d"}}

		o := New(providers.NewRegistry(first, second), tokens, nil, logger, Options{})
		got, err := o.Match(ctx, structuredQuery())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.Provider != "deezer" {
			t.Fatalf("expected deezer match, got %+v", got)
		}
		if len(first.SearchCalls) != 1 {
			t.Errorf("first provider searched %d times", len(first.SearchCalls))
		}
	})

	t.Run("refresh once and retry with new token", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ProviderName: "spotify",
			Outcomes: []models.SearchOutcome{
				{NeedsReauth: true},
				matchOutcome("spotify", 0.9),
			},
		}
		tokens := &mocks.MockTokenSource{
			Tokens:       map[string]string{"spotify": "stale"},
			RefreshToken: "fresh",
		}

		o := New(providers.NewRegistry(provider), tokens, nil, logger, Options{})
		got, err := o.Match(ctx, structuredQuery())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("expected a match after refresh")
		}

		if len(provider.SearchCalls) != 2 {
			t.Fatalf("expected 2 searches, got %d", len(provider.SearchCalls))
		}
		if provider.SearchCalls[0].Token != "stale" || provider.SearchCalls[1].Token != "fresh" {
			t.Errorf("tokens = %q then %q", provider.SearchCalls[0].Token, provider.SearchCalls[1].Token)
		}
		if len(tokens.RefreshCalls) != 1 {
			t.Errorf("expected exactly one refresh, got %d", len(tokens.RefreshCalls))
		}
	})

	t.Run("provider skipped when refreshed token still rejected", func(t *testing.T) {
		bad := &mocks.MockProvider{
			ProviderName: "spotify",
			Outcomes:     []models.SearchOutcome{{NeedsReauth: true}},
		}
		good := &mocks.MockProvider{ProviderName: "deezer", Outcomes: []models.SearchOutcome{matchOutcome("deezer", 0.9)}}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{}, RefreshToken: "fresh"}

		o := New(providers.NewRegistry(bad, good), tokens, nil, logger, Options{})
		got, err := o.Match(ctx, structuredQuery())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.Provider != "deezer" {
			t.Fatalf("expected fallthrough to deezer, got %+v", got)
		}
		if len(tokens.RefreshCalls) != 1 {
			t.Errorf("expected one refresh attempt, got %d", len(tokens.RefreshCalls))
		}
		if len(bad.SearchCalls) != 2 {
			t.Errorf("expected search + one retry, got %d", len(bad.SearchCalls))
		}
	})

	t.Run("refresh failure skips provider without aborting run", func(t *testing.T) {
		bad := &mocks.MockProvider{
			ProviderName: "spotify",
			Outcomes:     []models.SearchOutcome{{NeedsReauth: true}},
		}
		good := &mocks.MockProvider{ProviderName: "deezer", Outcomes: []models.SearchOutcome{matchOutcome("deezer", 0.9)}}
		tokens := &mocks.MockTokenSource{
			Tokens:     map[string]string{"spotify": "stale"},
			RefreshErr: errors.New("refresh denied"),
		}

		o := New(providers.NewRegistry(bad, good), tokens, nil, logger, Options{})
		got, err := o.Match(ctx, structuredQuery())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.Provider != "deezer" {
			t.Fatalf("expected deezer match, got %+v", got)
		}
	})

	t.Run("search errors are skipped not fatal", func(t *testing.T) {
		broken := &mocks.MockProvider{ProviderName: "spotify", SearchErr: errors.New("boom")}
		good := &mocks.MockProvider{ProviderName: "deezer", Outcomes: []models.SearchOutcome{matchOutcome("deezer", 0.8)}}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{}}

		o := New(providers.NewRegistry(broken, good), tokens, nil, logger, Options{})
		got, err := o.Match(ctx, structuredQuery())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.Provider != "deezer" {
			t.Fatalf("expected deezer match, got %+v", got)
		}
	})

	t.Run("no match and no enricher returns nil", func(t *testing.T) {
		provider := &mocks.MockProvider{ProviderName: "spotify"}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{}}

		o := New(providers.NewRegistry(provider), tokens, nil, logger, Options{})
		got, err := o.Match(ctx, structuredQuery())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("empty raw title is an error", func(t *testing.T) {
		o := New(providers.NewRegistry(), &mocks.MockTokenSource{}, nil, logger, Options{})
		if _, err := o.Match(ctx, models.ParsedQuery{}); err == nil {
			t.Fatal("expected error for empty query")
		}
	})
}

func TestOrchestratorEnrichment(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	ctx := context.Background()

	guess := &models.EnrichedGuess{
		Track:      models.TrackInfo{Artist: "Daft Punk", Song: "One More Time"},
		Confidence: 0.8,
	}

	t.Run("retries providers with enriched identification", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ProviderName: "spotify",
			Outcomes: []models.SearchOutcome{
				{},
				matchOutcome("spotify", 0.9),
			},
		}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{"spotify": "tok"}}
		enricher := &mocks.MockEnricher{Guessed: guess}

		o := New(providers.NewRegistry(provider), tokens, enricher, logger, Options{})
		got, err := o.Match(ctx, models.ParsedQuery{RawTitle: "one more time full song hq"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("expected a match from the enrichment retry")
		}
		if enricher.Calls != 1 {
			t.Errorf("enricher called %d times", enricher.Calls)
		}

		retry := provider.SearchCalls[1].Query
		if retry.Artist != "Daft Punk" || retry.Song != "One More Time" {
			t.Errorf("retry query = %+v", retry)
		}
		if retry.RawTitle != "one more time full song hq" {
			t.Errorf("retry should keep the raw title, got %q", retry.RawTitle)
		}
	})

	t.Run("guess at the threshold is trusted", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ProviderName: "spotify",
			Outcomes: []models.SearchOutcome{
				{},
				matchOutcome("spotify", 0.9),
			},
		}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{"spotify": "tok"}}
		enricher := &mocks.MockEnricher{Guessed: &models.EnrichedGuess{
			Track:      models.TrackInfo{Artist: "Daft Punk", Song: "One More Time"},
			Confidence: 0.6,
		}}

		o := New(providers.NewRegistry(provider), tokens, enricher, logger, Options{})
		got, err := o.Match(ctx, models.ParsedQuery{RawTitle: "mystery clip"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("guess at exactly the threshold should be used")
		}
	})

	t.Run("guess below the threshold is discarded", func(t *testing.T) {
		provider := &mocks.MockProvider{ProviderName: "spotify"}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{"spotify": "tok"}}
		enricher := &mocks.MockEnricher{Guessed: &models.EnrichedGuess{
			Track:      models.TrackInfo{Artist: "Daft Punk", Song: "One More Time"},
			Confidence: 0.55,
		}}

		o := New(providers.NewRegistry(provider), tokens, enricher, logger, Options{})
		got, err := o.Match(ctx, models.ParsedQuery{RawTitle: "mystery clip"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("low-confidence guess must not produce a match, got %+v", got)
		}
		if len(provider.SearchCalls) != 1 {
			t.Errorf("providers should not be retried, searched %d times", len(provider.SearchCalls))
		}
	})

	t.Run("enrichment failure degrades to no match", func(t *testing.T) {
		provider := &mocks.MockProvider{ProviderName: "spotify"}
		tokens := &mocks.MockTokenSource{Tokens: map[string]string{"spotify": "tok"}}
		enricher := &mocks.MockEnricher{Err: shared.ErrEnrichFailed}

		o := New(providers.NewRegistry(provider), tokens, enricher, logger, Options{})
		got, err := o.Match(ctx, models.ParsedQuery{RawTitle: "mystery clip"})
		if err != nil {
			t.Fatalf("enrichment failure must not be fatal: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil match, got %+v", got)
		}
	})

	t.Run("refreshed token reused in enrichment retry without second refresh", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ProviderName: "spotify",
			Outcomes: []models.SearchOutcome{
				{NeedsReauth: true},
				{},
				matchOutcome("spotify", 0.9),
			},
		}
		tokens := &mocks.MockTokenSource{
			Tokens:       map[string]string{"spotify": "stale"},
			RefreshToken: "fresh",
		}
		enricher := &mocks.MockEnricher{Guessed: guess}

		o := New(providers.NewRegistry(provider), tokens, enricher, logger, Options{})
		got, err := o.Match(ctx, models.ParsedQuery{RawTitle: "one more time full song hq"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatal("expected a match")
		}
		if len(tokens.RefreshCalls) != 1 {
			t.Errorf("expected one refresh for the whole run, got %d", len(tokens.RefreshCalls))
		}
		if last := provider.SearchCalls[len(provider.SearchCalls)-1]; last.Token != "fresh" {
			t.Errorf("enrichment retry used token %q, want the refreshed one", last.Token)
		}
	})
}
