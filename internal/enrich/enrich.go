// Package enrich asks an OpenAI-compatible completion API to identify a
// track when the rule-based pipeline could not.
//
// The model is prompted to answer with a single JSON object carrying artist,
// song, and its own confidence estimate. Anything else is treated as a
// failed enrichment rather than guessed at.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/models"
	"github.com/desertthunder/trackdown/internal/shared"
)

const systemPrompt = `You identify songs from messy video titles. ` +
	`Given a title and optional description, answer with exactly one JSON object: ` +
	`{"artist": string, "song": string, "confidence": number between 0 and 1}. ` +
	`Use empty strings and confidence 0 when you cannot tell.`

// Enricher derives a track identification from raw metadata.
type Enricher interface {
	Guess(ctx context.Context, rawTitle, description string) (*models.EnrichedGuess, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type guessPayload struct {
	Artist     string  `json:"artist"`
	Song       string  `json:"song"`
	Confidence float64 `json:"confidence"`
}

// Client implements [Enricher] against any /v1/chat/completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates an enrichment client. A nil http client uses
// [http.DefaultClient].
func NewClient(baseURL, apiKey, model string, client *http.Client, logger *log.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: client,
		logger:     logger,
	}
}

// Guess asks the model for an identification. Malformed or out-of-range
// responses surface [shared.ErrEnrichFailed]; the caller decides whether the
// returned confidence is enough to act on.
func (c *Client) Guess(ctx context.Context, rawTitle, description string) (*models.EnrichedGuess, error) {
	user := "Title: " + rawTitle
	if description != "" {
		user += "\nDescription: " + description
	}

	reqBody, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEnrichFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: completion status %d", shared.ErrEnrichFailed, resp.StatusCode)
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("%w: decoding completion: %v", shared.ErrEnrichFailed, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", shared.ErrEnrichFailed)
	}

	payload, err := parseGuess(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	if payload.Artist == "" || payload.Song == "" {
		return nil, fmt.Errorf("%w: model could not identify the track", shared.ErrEnrichFailed)
	}

	c.logger.Debug("enrichment guess", "artist", payload.Artist, "song", payload.Song, "confidence", payload.Confidence)

	return &models.EnrichedGuess{
		Track:      models.TrackInfo{Artist: payload.Artist, Song: payload.Song},
		Confidence: clamp(payload.Confidence),
	}, nil
}

// parseGuess extracts the JSON object from the model's reply, tolerating
// markdown code fences and surrounding prose.
func parseGuess(content string) (*guessPayload, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", shared.ErrEnrichFailed)
	}

	var payload guessPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed reply: %v", shared.ErrEnrichFailed, err)
	}

	return &payload, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
