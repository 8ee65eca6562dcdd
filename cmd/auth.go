package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/trackdown/internal/credentials"
	"github.com/desertthunder/trackdown/internal/server"
	"github.com/desertthunder/trackdown/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthSpotify runs the browser OAuth flow and stores the resulting tokens.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	spotify := r.config.Credentials.Spotify
	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be configured", shared.ErrMissingCredentials)
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	flow := server.NewFlow(credentials.SpotifyOAuthConfig(spotify), addr, r.logger)

	r.writePlain("Opening browser for Spotify authorization...\n")

	token, err := flow.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	store := credentials.NewStore(r.config, r.configPath, r.logger)
	if err := store.SetSpotifyToken(token); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}

	return r.writePlain("✓ Spotify authentication successful\n")
}

// AuthDeezer stores a manually obtained Deezer access token.
//
// Deezer tokens are long-lived and the OAuth flow requires an approved app,
// so the token is pasted rather than fetched.
func (r *Runner) AuthDeezer(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	token := cmd.String("token")
	store := credentials.NewStore(r.config, r.configPath, r.logger)
	if err := store.SetDeezerToken(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return r.writePlain("✓ Deezer token stored\n")
}

// AuthStatus reports which catalogs have a stored credential.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	store := credentials.NewStore(r.config, r.configPath, r.logger)
	for _, provider := range []string{"spotify", "deezer"} {
		if _, err := store.Token(provider); err != nil {
			r.writePlain("✗ %s: no credential stored\n", provider)
		} else {
			r.writePlain("✓ %s: credential stored\n", provider)
		}
	}

	return nil
}
