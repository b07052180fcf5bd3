package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/vibelist/internal/server"
	"github.com/desertthunder/vibelist/internal/services"
	"github.com/desertthunder/vibelist/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization code flow for Spotify and stores the token.
//
// Starts a local HTTP server, opens the browser for user authorization, and exchanges the code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}
	if err := r.store(); err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, r.spotify)
	if err != nil {
		return err
	}

	if err := r.tokens.Save(spotifyTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	r.spotify.SetTokenRefreshCallback(r.persistToken)
	r.spotify.SetToken(ctx, token)
	r.catalog = r.spotify

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token stored in %s\n\n", r.config.Database.Path)
	r.writePlain("You can now use: vibelist validate\n")
	return nil
}

// AuthStatus prints the Spotify account the stored token belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}
	if _, err := r.catalogClient(ctx); err != nil {
		return err
	}

	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		return r.explainAuth(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	r.writePlain("✓ Authenticated as %s\n", name)
	if user.Product != "" {
		r.writePlain("  Plan: %s\n", user.Product)
	}
	if token := r.spotify.Token(); token != nil && !token.Expiry.IsZero() {
		r.writePlain("  Token expires: %s\n", token.Expiry.Format(time.RFC3339))
	}
	return nil
}

// AuthLogout deletes the stored Spotify token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.store(); err != nil {
		return err
	}
	if err := r.tokens.Delete(spotifyTokenKey); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return r.writePlain("✓ Spotify token removed\n")
}

// doOAuth runs the authorization code flow against a loopback callback server.
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	config := oauthSrv.GetOAuth2Config()
	handler := server.NewOAuthHandler(config, state)
	addr := callbackAddr(config.RedirectURL, r.config.Server)
	authURL := oauthSrv.GetAuthURL(state)

	r.logger.Info("starting OAuth callback server", "service", oauthSrv.Name(), "addr", addr)
	r.writePlain("→ Opening browser for %s authorization...\n", oauthSrv.Name())
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", authTimeout)

	token, err := server.WaitForCallback(ctx, addr, handler, authTimeout, r.logger)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return token, nil
}

// callbackAddr returns the host:port named by the redirect URI, falling back to the [server] config section.
func callbackAddr(redirectURI string, fallback shared.ServerConfig) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return fallback.Addr()
	}
	if u.Port() == "" {
		return fmt.Sprintf("%s:%d", u.Hostname(), fallback.Port)
	}
	return u.Host
}
