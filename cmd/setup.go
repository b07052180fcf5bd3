package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/vibelist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template when missing, then initializes the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		if config, err := shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, keeping current settings", "error", err)
		} else {
			config.ApplyEnv()
			r.config = config
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Created %s\n", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if err := r.store(); err != nil {
		return err
	}

	if r.db != nil {
		version, err := shared.CurrentVersion(r.db)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		r.writePlain("✓ Database ready at %s (schema version %d)\n", r.config.Database.Path, version)
	}
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret in %s\n", configPath)
	r.writePlain("2. Run 'vibelist auth' to connect your Spotify account\n")
	r.writePlain("3. Run 'vibelist recommend --bpm 128 --mood happy' to start a playlist\n")
	return nil
}
