package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/shared"
)

func structuredQuery(t *testing.T, r *http.Request) bool {
	t.Helper()
	return strings.Contains(r.URL.Query().Get("q"), "artist:")
}

func spotifyItems(tracks ...spotifyTrack) map[string]any {
	return map[string]any{"tracks": map[string]any{"items": tracks}}
}

func spotifyCandidate(artist, song, uri string) spotifyTrack {
	track := spotifyTrack{Name: song, URI: uri}
	track.Artists = []struct {
		Name string `json:"name"`
	}{{Name: artist}}
	return track
}

func TestRegistry(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	spotify := NewSpotifyProvider("", nil, logger)
	deezer := NewDeezerProvider("", nil, logger)
	registry := NewRegistry(spotify, deezer)

	t.Run("All preserves order", func(t *testing.T) {
		all := registry.All()
		if len(all) != 2 || all[0].Name() != "spotify" || all[1].Name() != "deezer" {
			t.Errorf("unexpected order: %v", all)
		}
	})

	t.Run("ForURL", func(t *testing.T) {
		if p := registry.ForURL("https://open.spotify.com/track/abc"); p == nil || p.Name() != "spotify" {
			t.Error("spotify URL not recognized")
		}
		if p := registry.ForURL("spotify:track:abc"); p == nil || p.Name() != "spotify" {
			t.Error("spotify URI not recognized")
		}
		if p := registry.ForURL("https://www.deezer.com/track/123"); p == nil || p.Name() != "deezer" {
			t.Error("deezer URL not recognized")
		}
		if p := registry.ForURL("https://example.com/thing"); p != nil {
			t.Errorf("unexpected provider %s for unknown URL", p.Name())
		}
	})

	t.Run("Get", func(t *testing.T) {
		if p := registry.Get("deezer"); p == nil || p.Name() != "deezer" {
			t.Error("Get(deezer) failed")
		}
		if p := registry.Get("tidal"); p != nil {
			t.Error("Get should return nil for unknown provider")
		}
	})
}

func TestSpotifySearchTrack(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	ctx := context.Background()

	t.Run("structured hit trusted at fixed confidence", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !structuredQuery(t, r) {
				t.Errorf("expected structured query, got %q", r.URL.Query().Get("q"))
			}
			json.NewEncoder(w).Encode(spotifyItems(
				spotifyCandidate("Daft Punk", "One More Time", "spotify:track:1"),
			))
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{Artist: "Daft Punk", Song: "One More Time", RawTitle: "Daft Punk - One More Time"}

		outcome, err := provider.SearchTrack(ctx, "token", query)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Match == nil {
			t.Fatal("expected a match")
		}
		if outcome.Match.Confidence != StructuredConfidence {
			t.Errorf("confidence = %v, want %v", outcome.Match.Confidence, StructuredConfidence)
		}
		if outcome.Match.URI != "spotify:track:1" || outcome.Match.Provider != "spotify" {
			t.Errorf("unexpected match %+v", outcome.Match)
		}
	})

	t.Run("falls back to free text when structured is empty", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			if structuredQuery(t, r) {
				json.NewEncoder(w).Encode(spotifyItems())
				return
			}
			json.NewEncoder(w).Encode(spotifyItems(
				spotifyCandidate("Daft Punk", "One More Time", "spotify:track:1"),
			))
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{Artist: "Daft Punk", Song: "One More Time", RawTitle: "Daft Punk - One More Time"}

		outcome, err := provider.SearchTrack(ctx, "token", query)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Match == nil {
			t.Fatal("expected a fallback match")
		}
		if outcome.Match.Confidence != 1.0 {
			t.Errorf("fuzzy confidence = %v, want 1.0", outcome.Match.Confidence)
		}
		if got := requests.Load(); got != 2 {
			t.Errorf("expected structured + one fallback request, got %d", got)
		}
	})

	t.Run("unparsed query searches raw title only", func(t *testing.T) {
		var queries []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			queries = append(queries, r.URL.Query().Get("q"))
			json.NewEncoder(w).Encode(spotifyItems(
				spotifyCandidate("Burial", "Archangel", "spotify:track:9"),
			))
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{RawTitle: "Burial Archangel rare vinyl rip"}

		outcome, err := provider.SearchTrack(ctx, "token", query)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(queries) != 1 || queries[0] != "Burial Archangel rare vinyl rip" {
			t.Errorf("unexpected queries %v", queries)
		}
		if outcome.Match == nil {
			t.Fatal("expected a match via containment")
		}
	})

	t.Run("low scoring candidates rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(spotifyItems(
				spotifyCandidate("Completely Different", "Unrelated Tune", "spotify:track:2"),
			))
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{RawTitle: "Daft Punk One More Time"}

		outcome, err := provider.SearchTrack(ctx, "token", query)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Match != nil {
			t.Errorf("expected no match, got %+v", outcome.Match)
		}
		if outcome.NeedsReauth {
			t.Error("no-match must not signal reauth")
		}
	})

	t.Run("expired token aborts immediately", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{Artist: "Daft Punk", Song: "One More Time", RawTitle: "Daft Punk - One More Time"}

		outcome, err := provider.SearchTrack(ctx, "expired", query)
		if err != nil {
			t.Fatalf("auth failure should not be an error: %v", err)
		}
		if !outcome.NeedsReauth {
			t.Fatal("expected NeedsReauth")
		}
		if outcome.Match != nil {
			t.Error("no match expected alongside reauth")
		}
		if got := requests.Load(); got != 1 {
			t.Errorf("fallback strategies should not run after auth failure, got %d requests", got)
		}
	})

	t.Run("structured server error falls back to free text", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			if structuredQuery(t, r) {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(spotifyItems(
				spotifyCandidate("Daft Punk", "One More Time", "spotify:track:1"),
			))
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{Artist: "Daft Punk", Song: "One More Time", RawTitle: "Daft Punk - One More Time"}

		outcome, err := provider.SearchTrack(ctx, "token", query)
		if err != nil {
			t.Fatalf("a transient structured failure should not be an error: %v", err)
		}
		if outcome.Match == nil {
			t.Fatal("expected the free-text fallback to produce a match")
		}
		if outcome.Match.Confidence != 1.0 {
			t.Errorf("fuzzy confidence = %v, want 1.0", outcome.Match.Confidence)
		}
		if got := requests.Load(); got != 2 {
			t.Errorf("expected the failed structured request plus one fallback, got %d", got)
		}
	})

	t.Run("every strategy failing yields no match", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{Artist: "Daft Punk", Song: "One More Time", RawTitle: "Daft Punk - One More Time"}

		outcome, err := provider.SearchTrack(ctx, "token", query)
		if err != nil {
			t.Fatalf("exhausted strategies should degrade to no match: %v", err)
		}
		if outcome.Match != nil || outcome.NeedsReauth {
			t.Errorf("unexpected outcome %+v", outcome)
		}
		if got := requests.Load(); got != 3 {
			t.Errorf("expected structured plus both fallbacks to be attempted, got %d", got)
		}
	})
}

func TestSpotifyAddTrack(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	ctx := context.Background()

	t.Run("saves by track ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("method = %s, want PUT", r.Method)
			}
			if got := r.URL.Query().Get("ids"); got != "abc123" {
				t.Errorf("ids = %q, want abc123", got)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		result := provider.AddTrack(ctx, "token", "spotify:track:abc123")
		if !result.Success || result.NeedsReauth {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("expired token flags reauth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		provider := NewSpotifyProvider(server.URL, server.Client(), logger)
		result := provider.AddTrack(ctx, "expired", "spotify:track:abc123")
		if result.Success || !result.NeedsReauth {
			t.Errorf("unexpected result %+v", result)
		}
		if result.Error == "" {
			t.Error("expected error detail")
		}
	})
}

func TestDeezerProvider(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	ctx := context.Background()

	t.Run("search maps data to candidates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			track := deezerTrack{ID: 42, Title: "One More Time", Link: "https://www.deezer.com/track/42"}
			track.Artist.Name = "Daft Punk"
			json.NewEncoder(w).Encode(deezerSearchResponse{Data: []deezerTrack{track}})
		}))
		defer server.Close()

		provider := NewDeezerProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{Artist: "Daft Punk", Song: "One More Time", RawTitle: "Daft Punk - One More Time"}

		outcome, err := provider.SearchTrack(ctx, "token", query)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Match == nil {
			t.Fatal("expected a match")
		}
		if outcome.Match.Provider != "deezer" || outcome.Match.URI != "https://www.deezer.com/track/42" {
			t.Errorf("unexpected match %+v", outcome.Match)
		}
	})

	t.Run("oauth error in body flags reauth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(deezerSearchResponse{
				Error: &deezerError{Type: deezerOAuthErrType, Message: "invalid token", Code: 300},
			})
		}))
		defer server.Close()

		provider := NewDeezerProvider(server.URL, server.Client(), logger)
		query := models.ParsedQuery{RawTitle: "anything at all"}

		outcome, err := provider.SearchTrack(ctx, "bad", query)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !outcome.NeedsReauth {
			t.Error("expected NeedsReauth from OAuthException body")
		}
	})

	t.Run("add favorites by ID from link", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if got := r.URL.Query().Get("track_id"); got != "42" {
				t.Errorf("track_id = %q, want 42", got)
			}
			w.Write([]byte("true"))
		}))
		defer server.Close()

		provider := NewDeezerProvider(server.URL, server.Client(), logger)
		result := provider.AddTrack(ctx, "token", "https://www.deezer.com/track/42")
		if !result.Success {
			t.Errorf("unexpected result %+v", result)
		}
	})
}
