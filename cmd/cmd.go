// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// syncCommand reconciles a YouTube playlist into a Spotify playlist
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Add the songs of a YouTube playlist to a Spotify playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "YouTube playlist URL or ID, or a local .txt/.json/.yaml title list",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Spotify playlist ID, URI or URL",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Search and classify without modifying the playlist",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for the result ledgers (overrides sync.output_dir)",
			},
			&cli.StringFlag{
				Name:  "yt-api-key",
				Usage: "YouTube Data API key (overrides YOUTUBE_API_KEY)",
			},
			&cli.StringFlag{
				Name:  "scorer",
				Usage: "Fuzzy match strategy: library or naive",
			},
			&cli.BoolFlag{
				Name:  "no-second-pass",
				Usage: "Skip the artist-constrained retry for unmatched titles",
			},
		},
		Action: r.Sync,
	}
}

// authCommand runs the Spotify authorization flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authorize with Spotify in the browser and print a refresh token",
		Action: r.Auth,
	}
}

// setupCommand writes the config file and prepares the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the database",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: r.Setup,
	}
}

// cacheCommand inspects and clears the match cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the (artist, track) match cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show the number of cached matches",
				Action: r.CacheStats,
			},
			{
				Name:  "get",
				Usage: "Look up the cached catalog id for an artist and track",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist",
						Usage:    "Artist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "track",
						Usage:    "Track title",
						Required: true,
					},
				},
				Action: r.CacheGet,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached match",
				Action: r.CacheClear,
			},
		},
	}
}

// runsCommand lists recorded sync runs
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Sync run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
		},
	}
}

// reportCommand renders the results of the last run
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Render all_results.json from the last run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown or csv",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory holding the ledgers (overrides sync.output_dir)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report on the last dry run instead",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Write the report to a file instead of stdout",
			},
		},
		Action: r.Report,
	}
}
