package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibelist/internal/services"
	"github.com/desertthunder/vibelist/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv()
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	var spotifyService *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		},
			services.WithRateLimit(config.Catalog.RequestsPerSecond),
			services.WithTimeout(config.Catalog.Timeout()),
			services.WithLogger(shared.WithLogger(logger, "service", "spotify")),
		)
		if err != nil {
			logger.Warn("failed to create Spotify service", "error", err)
		} else {
			spotifyService = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: defaultConfigPath,
		Spotify:    spotifyService,
		Source:     recommendationSource(config, logger),
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "vibelist",
		Usage:    "Build playlists from recommendations and match them against Spotify",
		Version:  "0.1.0",
		Commands: runner.register(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, shared.ParseLogLevel("debug"))
			}
			return ctx, nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented", "error", err)
			return
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}

// recommendationSource picks the file source when a mock is configured, the chat source when an API key is set,
// and nil otherwise.
//
// A mock value of "true" or "1" selects the built-in sample set.
func recommendationSource(config *shared.Config, logger *log.Logger) services.RecommendationSource {
	rc := config.Credentials.Recommender
	switch mock := strings.TrimSpace(rc.MockFile); {
	case strings.EqualFold(mock, "true") || mock == "1":
		return services.NewFileSource("")
	case mock != "":
		return services.NewFileSource(mock)
	case rc.APIKey != "":
		src, err := services.NewChatSource(rc.APIKey, rc.BaseURL, rc.Model, nil, shared.WithLogger(logger, "service", "recommender"))
		if err != nil {
			logger.Warn("failed to create recommendation source", "error", err)
			return nil
		}
		return src
	default:
		return nil
	}
}
