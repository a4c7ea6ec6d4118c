package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	RefreshToken string `toml:"refresh_token"`
}

// Map returns the credentials in the shape expected by services.NewSpotifyCatalog.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"refresh_token": s.RefreshToken,
	}
}

// Validate reports which of the required Spotify credentials are missing.
func (s SpotifyConfig) Validate() error {
	var missing []string
	if s.ClientID == "" {
		missing = append(missing, "SPOTIPY_CLIENT_ID")
	}
	if s.ClientSecret == "" {
		missing = append(missing, "SPOTIPY_CLIENT_SECRET")
	}
	if s.RedirectURI == "" {
		missing = append(missing, "SPOTIPY_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v (set them in config.toml, the environment or a .env file)", ErrMissingCredentials, missing)
	}
	return nil
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey string `toml:"api_key"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig holds the reconciliation tunables. Delays are expressed in seconds.
type SyncConfig struct {
	BatchSize         int      `toml:"batch_size"`
	BatchDelay        float64  `toml:"batch_delay"`
	MaxRetries        int      `toml:"max_retries"`
	BackoffFactor     float64  `toml:"backoff_factor"`
	MinRetryAfter     float64  `toml:"min_retry_after"`
	SearchConcurrency int      `toml:"search_concurrency"`
	SearchRate        float64  `toml:"search_rate"`
	SearchBaseDelay   float64  `toml:"search_base_delay"`
	SearchMaxDelay    float64  `toml:"search_max_delay"`
	SecondPass        bool     `toml:"second_pass"`
	Scorer            string   `toml:"scorer"`
	Extractor         string   `toml:"extractor"`
	OutputDir         string   `toml:"output_dir"`
	LogsDir           string   `toml:"logs_dir"`
	StopWords         []string `toml:"stop_words"`
}

// Seconds converts a configured number of seconds into a [time.Duration].
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// LogConfig controls the log level and the optional rotating log file.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// LoadConfig reads a TOML file on top of the embedded defaults, so keys missing from the file keep their default value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if _, err := toml.Decode(string(data), config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ResolveConfig loads the config at path. A missing file yields the defaults unless required is set.
// Unreadable or invalid files are always an error.
func ResolveConfig(path string, required bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingConfig, path, err)
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks the sync tunables.
func (c *Config) Validate() error {
	s := c.Sync
	switch {
	case s.BatchSize <= 0:
		return fmt.Errorf("%w: sync.batch_size must be positive, got %d", ErrInvalidConfig, s.BatchSize)
	case s.BatchSize > 100:
		return fmt.Errorf("%w: sync.batch_size cannot exceed 100, got %d", ErrInvalidConfig, s.BatchSize)
	case s.BatchDelay < 0 || s.MinRetryAfter < 0 || s.SearchBaseDelay < 0 || s.SearchMaxDelay < 0:
		return fmt.Errorf("%w: sync delays cannot be negative", ErrInvalidConfig)
	case s.MaxRetries < 0:
		return fmt.Errorf("%w: sync.max_retries cannot be negative", ErrInvalidConfig)
	case s.BackoffFactor < 1:
		return fmt.Errorf("%w: sync.backoff_factor must be >= 1, got %v", ErrInvalidConfig, s.BackoffFactor)
	case s.SearchConcurrency <= 0:
		return fmt.Errorf("%w: sync.search_concurrency must be positive", ErrInvalidConfig)
	}

	switch s.Scorer {
	case "library", "naive":
	default:
		return fmt.Errorf("%w: unknown sync.scorer %q", ErrInvalidConfig, s.Scorer)
	}

	switch s.Extractor {
	case "ytdlp", "native":
	default:
		return fmt.Errorf("%w: unknown sync.extractor %q", ErrInvalidConfig, s.Extractor)
	}

	return nil
}

// ApplyEnv loads a .env file when present and lets the environment override credentials.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, f, err)
		}
	}

	for env, dst := range map[string]*string{
		"SPOTIPY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"SPOTIPY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"SPOTIPY_REDIRECT_URI":  &c.Credentials.Spotify.RedirectURI,
		"SPOTIFY_REFRESH_TOKEN": &c.Credentials.Spotify.RefreshToken,
		"YOUTUBE_API_KEY":       &c.Credentials.YouTube.APIKey,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
