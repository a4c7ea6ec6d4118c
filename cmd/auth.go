package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/ytsync/internal/server"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// Auth performs the Spotify authorization code flow and prints the refresh token.
//
// The token is never written to disk; the operator copies it into .env or config.toml.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if err := creds.Validate(); err != nil {
		return err
	}

	spotify, err := services.NewSpotifyCatalog(creds.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify catalog: %w", err)
	}

	token, err := r.authorize(ctx, r.config, spotify)
	if err != nil {
		return err
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("%w: Spotify did not return a refresh token", shared.ErrAuthFailed)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("Add this line to your .env file:\n\n")
	r.writePlain("SPOTIFY_REFRESH_TOKEN=%s\n", token.RefreshToken)
	return nil
}

// authorize serves the OAuth callback locally, opens the browser on the consent page and waits for the token.
func (r *Runner) authorize(ctx context.Context, config *shared.Config, srv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := server.NewOAuthHandler(srv.Exchange, state, callbackPath(srv.GetOAuthConfig().RedirectURL))
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	callback := server.NewCallbackServer(config.Server.Host, config.Server.Port, router, r.logger)
	if err := callback.Start(); err != nil {
		return nil, err
	}
	defer func() {
		if err := callback.Shutdown(); err != nil {
			r.logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := srv.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", authTimeout)
	return server.WaitForToken(ctx, handler, authTimeout)
}

// callbackPath is the path component of the redirect URI, "/callback" when it has none.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/callback"
	}
	return u.Path
}
