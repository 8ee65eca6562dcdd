// Deezer implementation of [Provider]
//
// Response types based on https://developers.deezer.com/api
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/shared"
	"golang.org/x/time/rate"
)

const deezerBaseURL = "https://api.deezer.com"

// Deezer signals OAuth problems inside a 200 response body.
const deezerOAuthErrType = "OAuthException"

type deezerTrack struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Link   string `json:"link"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}

type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type deezerSearchResponse struct {
	Data  []deezerTrack `json:"data"`
	Error *deezerError  `json:"error"`
}

// DeezerProvider implements [Provider] against the Deezer API.
type DeezerProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewDeezerProvider creates a Deezer provider. An empty baseURL uses the
// public API; a nil client uses [http.DefaultClient].
func NewDeezerProvider(baseURL string, client *http.Client, logger *log.Logger) *DeezerProvider {
	if baseURL == "" {
		baseURL = deezerBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &DeezerProvider{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		logger:     logger,
	}
}

func (d *DeezerProvider) Name() string {
	return "deezer"
}

// MatchURL recognizes deezer.com track links.
func (d *DeezerProvider) MatchURL(raw string) bool {
	return strings.Contains(raw, "deezer.com")
}

// SearchTrack runs the layered search strategy against the Deezer catalog.
func (d *DeezerProvider) SearchTrack(ctx context.Context, token string, query models.ParsedQuery) (models.SearchOutcome, error) {
	return searchWithStrategies(ctx, d, token, query, d.logger)
}

// AddTrack adds the track to the user's favorites. The track ID is the last
// path segment of a deezer.com track link.
func (d *DeezerProvider) AddTrack(ctx context.Context, token, uri string) models.AddResult {
	id := uri
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		id = uri[i+1:]
	}

	endpoint := fmt.Sprintf("/user/me/tracks?track_id=%s&access_token=%s",
		url.QueryEscape(id), url.QueryEscape(token))

	err := d.doRequest(ctx, http.MethodPost, endpoint, nil)
	switch {
	case err == nil:
		return models.AddResult{Success: true}
	case isAuthErr(err):
		return models.AddResult{NeedsReauth: true, Error: err.Error()}
	default:
		return models.AddResult{Error: err.Error()}
	}
}

func (d *DeezerProvider) name() string { return d.Name() }

func (d *DeezerProvider) structuredSearch(ctx context.Context, token, artist, song string) ([]candidate, error) {
	q := fmt.Sprintf("artist:%q track:%q", artist, song)
	return d.search(ctx, token, q)
}

func (d *DeezerProvider) freeTextSearch(ctx context.Context, token, text string) ([]candidate, error) {
	return d.search(ctx, token, text)
}

func (d *DeezerProvider) search(ctx context.Context, token, q string) ([]candidate, error) {
	endpoint := fmt.Sprintf("/search?q=%s&limit=10&access_token=%s",
		url.QueryEscape(q), url.QueryEscape(token))

	var response deezerSearchResponse
	if err := d.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(response.Data))
	for _, item := range response.Data {
		candidates = append(candidates, candidate{
			track: models.TrackInfo{Artist: item.Artist.Name, Song: item.Title},
			uri:   item.Link,
		})
	}

	return candidates, nil
}

// doRequest performs a request against the Deezer API. OAuth failures arrive
// both as HTTP 401 and as error payloads inside 200 responses; both map to
// [shared.ErrTokenExpired]. Some write endpoints answer with a bare boolean,
// so the error probe tolerates non-object bodies.
func (d *DeezerProvider) doRequest(ctx context.Context, method, endpoint string, result *deezerSearchResponse) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: deezer rejected token", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: deezer status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var probe struct {
		Error *deezerError `json:"error"`
	}
	if json.Unmarshal(body, &probe) == nil && probe.Error != nil {
		if probe.Error.Type == deezerOAuthErrType {
			return fmt.Errorf("%w: %s", shared.ErrTokenExpired, probe.Error.Message)
		}
		return fmt.Errorf("%w: deezer error %d: %s", shared.ErrAPIRequest, probe.Error.Code, probe.Error.Message)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
