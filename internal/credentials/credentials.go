// Package credentials stores provider tokens and refreshes them on demand.
//
// Tokens live in the TOML config file. The [Store] hands them to the match
// pipeline and, when a provider rejects one, performs the OAuth refresh and
// writes the new token back to disk so the next run starts with a valid
// credential.
package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackdown/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Spotify scopes: search needs no scope, saving tracks does.
var spotifyScopes = []string{"user-library-read", "user-library-modify"}

// SpotifyOAuthConfig builds the OAuth2 config for the authorization flow.
func SpotifyOAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// Store implements the token source for the match pipeline.
type Store struct {
	mu       sync.Mutex
	config   *shared.Config
	path     string // config file location; empty disables persistence
	tokenURL string
	logger   *log.Logger
}

// NewStore creates a store over a loaded config. An empty path keeps token
// updates in memory only.
func NewStore(config *shared.Config, path string, logger *log.Logger) *Store {
	return &Store{
		config:   config,
		path:     path,
		tokenURL: spotifyTokenURL,
		logger:   logger,
	}
}

// Token returns the stored access token for a provider.
func (s *Store) Token(provider string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch provider {
	case "spotify":
		if s.config.Credentials.Spotify.AccessToken == "" {
			return "", fmt.Errorf("%w: spotify access token not set, run auth first", shared.ErrMissingCredentials)
		}
		return s.config.Credentials.Spotify.AccessToken, nil
	case "deezer":
		if s.config.Credentials.Deezer.AccessToken == "" {
			return "", fmt.Errorf("%w: deezer access token not set", shared.ErrMissingCredentials)
		}
		return s.config.Credentials.Deezer.AccessToken, nil
	default:
		return "", fmt.Errorf("%w: unknown provider %q", shared.ErrMissingCredentials, provider)
	}
}

// Refresh exchanges the stored refresh token for a new access token and
// persists it. Deezer tokens are long-lived and cannot be refreshed, so a
// rejected Deezer credential always needs a fresh authorization.
func (s *Store) Refresh(ctx context.Context, provider string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch provider {
	case "spotify":
		return s.refreshSpotify(ctx)
	case "deezer":
		return "", fmt.Errorf("%w: deezer tokens cannot be refreshed", shared.ErrNoRefreshToken)
	default:
		return "", fmt.Errorf("%w: unknown provider %q", shared.ErrMissingCredentials, provider)
	}
}

func (s *Store) refreshSpotify(ctx context.Context) (string, error) {
	cfg := s.config.Credentials.Spotify
	if cfg.RefreshToken == "" {
		return "", fmt.Errorf("%w: spotify", shared.ErrNoRefreshToken)
	}

	oauthCfg := SpotifyOAuthConfig(cfg)
	oauthCfg.Endpoint.TokenURL = s.tokenURL

	source := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	s.config.Credentials.Spotify.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.config.Credentials.Spotify.RefreshToken = token.RefreshToken
	}

	if err := s.persist(); err != nil {
		s.logger.Warn("refreshed token not persisted", "error", err)
	}

	s.logger.Info("refreshed spotify access token")
	return token.AccessToken, nil
}

// SetSpotifyToken stores a token obtained from a completed OAuth flow.
func (s *Store) SetSpotifyToken(token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Credentials.Spotify.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.config.Credentials.Spotify.RefreshToken = token.RefreshToken
	}
	return s.persist()
}

// SetDeezerToken stores a manually supplied Deezer token.
func (s *Store) SetDeezerToken(accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Credentials.Deezer.AccessToken = accessToken
	return s.persist()
}

func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	return shared.SaveConfig(s.path, s.config)
}
