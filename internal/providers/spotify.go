// Spotify implementation of [Provider]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/shared"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// spotifyTrack is the subset of the track object the matcher needs.
type spotifyTrack struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyProvider implements [Provider] against the Spotify Web API.
type SpotifyProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyProvider creates a Spotify provider. An empty baseURL uses the
// public API; a nil client uses [http.DefaultClient].
func NewSpotifyProvider(baseURL string, client *http.Client, logger *log.Logger) *SpotifyProvider {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SpotifyProvider{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		logger:     logger,
	}
}

func (s *SpotifyProvider) Name() string {
	return "spotify"
}

// MatchURL recognizes open.spotify.com links and spotify: URIs.
func (s *SpotifyProvider) MatchURL(raw string) bool {
	return strings.Contains(raw, "open.spotify.com") || strings.HasPrefix(raw, "spotify:")
}

// SearchTrack runs the layered search strategy against the Spotify catalog.
func (s *SpotifyProvider) SearchTrack(ctx context.Context, token string, query models.ParsedQuery) (models.SearchOutcome, error) {
	return searchWithStrategies(ctx, s, token, query, s.logger)
}

// AddTrack saves the track to the user's library. The track ID is the last
// segment of a "spotify:track:..." URI.
func (s *SpotifyProvider) AddTrack(ctx context.Context, token, uri string) models.AddResult {
	id := uri
	if i := strings.LastIndex(uri, ":"); i >= 0 {
		id = uri[i+1:]
	}

	endpoint := "/me/tracks?ids=" + url.QueryEscape(id)
	err := s.doRequest(ctx, http.MethodPut, endpoint, token, nil)
	switch {
	case err == nil:
		return models.AddResult{Success: true}
	case isAuthErr(err):
		return models.AddResult{NeedsReauth: true, Error: err.Error()}
	default:
		return models.AddResult{Error: err.Error()}
	}
}

func (s *SpotifyProvider) name() string { return s.Name() }

func (s *SpotifyProvider) structuredSearch(ctx context.Context, token, artist, song string) ([]candidate, error) {
	q := fmt.Sprintf("artist:%q track:%q", artist, song)
	return s.search(ctx, token, q)
}

func (s *SpotifyProvider) freeTextSearch(ctx context.Context, token, text string) ([]candidate, error) {
	return s.search(ctx, token, text)
}

func (s *SpotifyProvider) search(ctx context.Context, token, q string) ([]candidate, error) {
	endpoint := "/search?type=track&limit=10&q=" + url.QueryEscape(q)

	var response spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, token, &response); err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		c := candidate{
			track: models.TrackInfo{Song: item.Name},
			uri:   item.URI,
		}
		if len(item.Artists) > 0 {
			c.track.Artist = item.Artists[0].Name
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// doRequest performs an authenticated request against the Spotify API,
// mapping 401 to [shared.ErrTokenExpired].
func (s *SpotifyProvider) doRequest(ctx context.Context, method, endpoint, token string, result any) error {
	if token == "" {
		return fmt.Errorf("%w: no spotify access token", shared.ErrMissingCredentials)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify rejected token", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
