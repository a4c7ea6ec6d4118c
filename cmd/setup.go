package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the example config (unless one exists and --force is unset), then creates the
// database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	_, statErr := os.Stat(configPath)
	switch {
	case statErr == nil && !cmd.Bool("force"):
		r.logger.Info("config file exists, keeping it", "path", configPath)
	default:
		if statErr == nil {
			if err := os.Remove(configPath); err != nil {
				return fmt.Errorf("failed to replace config file: %w", err)
			}
		}
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.logger.Info("config file created", "path", configPath)
		r.writePlain("✓ Wrote %s\n", configPath)

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := config.ApplyEnv(); err != nil {
			return err
		}
		r.config = config
	}

	dbConfig := r.config.Database
	r.logger.Info("initializing database", "path", dbConfig.Path)

	db, err := r.openDB(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	r.writePlain("✓ Database ready at %s\n", dbConfig.Path)

	if err := r.config.Credentials.Spotify.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set SPOTIPY_CLIENT_ID, SPOTIPY_CLIENT_SECRET and SPOTIPY_REDIRECT_URI in .env\n")
		r.writePlain("2. Run 'ytsync auth' and add the printed SPOTIFY_REFRESH_TOKEN to .env\n")
	}
	return nil
}
