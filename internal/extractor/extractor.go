// Package extractor fetches title metadata for source video URLs.
//
// Extraction goes through each site's public oEmbed endpoint, which needs no
// API key and returns the display title and uploader name. YouTube, Vimeo,
// and SoundCloud are supported.
package extractor

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
)

// Extractor resolves a source URL into raw title metadata.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*models.RawMetadata, error)
}

// oembedEndpoint pairs a host fragment with the site's oEmbed URL.
type oembedEndpoint struct {
	hostPart string
	endpoint string
}

var defaultEndpoints = []oembedEndpoint{
	{hostPart: "youtube.com", endpoint: "https://www.youtube.com/oembed"},
	{hostPart: "youtu.be", endpoint: "https://www.youtube.com/oembed"},
	{hostPart: "vimeo.com", endpoint: "https://vimeo.com/api/oembed.json"},
	{hostPart: "soundcloud.com", endpoint: "https://soundcloud.com/oembed"},
}

// oembedResponse is the subset of the oEmbed payload the pipeline uses. The
// uploader name doubles as auxiliary text for fuzzy confirmation.
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// OEmbedExtractor implements [Extractor] over public oEmbed endpoints.
type OEmbedExtractor struct {
	httpClient *http.Client
	logger     *log.Logger
	endpoints  []oembedEndpoint
}

// NewOEmbedExtractor creates an extractor with the default endpoint table.
// A nil client uses [http.DefaultClient].
func NewOEmbedExtractor(client *http.Client, logger *log.Logger) *OEmbedExtractor {
	if client == nil {
		client = http.DefaultClient
	}

	return &OEmbedExtractor{
		httpClient: client,
		logger:     logger,
		endpoints:  defaultEndpoints,
	}
}

// Extract fetches the oEmbed metadata for a source URL. Unsupported hosts and
// unreachable videos surface [shared.ErrExtractFailed].
func (e *OEmbedExtractor) Extract(ctx context.Context, rawURL string) (*models.RawMetadata, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("%w: not a URL: %q", shared.ErrInvalidInput, rawURL)
	}

	endpoint := e.endpointFor(parsed.Host)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: no oEmbed endpoint for host %q", shared.ErrExtractFailed, parsed.Host)
	}

	reqURL := fmt.Sprintf("%s?format=json&url=%s", endpoint, url.QueryEscape(rawURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExtractFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: oEmbed status %d for %s", shared.ErrExtractFailed, resp.StatusCode, parsed.Host)
	}

	var payload oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding oEmbed response: %v", shared.ErrExtractFailed, err)
	}

	if payload.Title == "" {
		return nil, fmt.Errorf("%w: empty title from %s", shared.ErrExtractFailed, parsed.Host)
	}

	e.logger.Debug("extracted metadata", "host", parsed.Host, "title", payload.Title)

	return &models.RawMetadata{
		Title:       payload.Title,
		Description: payload.AuthorName,
	}, nil
}

func (e *OEmbedExtractor) endpointFor(host string) string {
	host = strings.ToLower(host)
	for _, ep := range e.endpoints {
		if strings.Contains(host, ep.hostPart) {
			return ep.endpoint
		}
	}
	return ""
}
