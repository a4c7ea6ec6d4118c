package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	logOutput   io.Writer
	output      io.Writer
	catalog     services.Catalog
	source      services.TitleProvider
	openDB      func(shared.DatabaseConfig) (*sql.DB, error)
	openBrowser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog and Source replace the Spotify catalog and the YouTube title providers when set.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	LogOutput  io.Writer
	Output     io.Writer
	Catalog    services.Catalog
	Source     services.TitleProvider
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(opts.LogOutput)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		logOutput:   opts.LogOutput,
		output:      opts.Output,
		catalog:     opts.Catalog,
		source:      opts.Source,
		openDB:      shared.OpenDatabase,
		openBrowser: shared.OpenBrowser,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "ytsync",
		Usage:   "Add the songs of a YouTube playlist to a Spotify playlist",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Before:   r.loadConfig,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, authCommand, setupCommand, cacheCommand, runsCommand, reportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the config file, applies .env and environment overrides and rebuilds the logger.
//
// A missing default config.toml falls back to the embedded defaults; an explicit --config must exist,
// except for setup, which creates it.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	required := cmd.IsSet("config") && cmd.Args().First() != "setup"

	config, err := shared.ResolveConfig(path, required)
	if err != nil {
		return ctx, err
	}
	if err := config.ApplyEnv(); err != nil {
		return ctx, err
	}

	r.config = config
	r.configPath = path
	r.logger = shared.NewLoggerFromConfig(r.logOutput, config.Log)
	r.logger.Debug("configuration loaded", "path", path)
	return ctx, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
