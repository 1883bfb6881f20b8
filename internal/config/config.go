// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the settings shared by the API server and the CLI.
type Config struct {
	Spotify SpotifyConfig `envPrefix:"SPOTIFY_"`
	Storage StorageConfig
	Preview PreviewConfig `envPrefix:"PREVIEW_"`

	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8080"`
	DataDir     string   `env:"DATA_DIR" envDefault:"data"`
	RockArtists []string `env:"ROCK_ARTISTS" envSeparator:";"`
}

// SpotifyConfig configures the catalog client.
type SpotifyConfig struct {
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	RefreshToken string        `env:"REFRESH_TOKEN"`
	BaseURL      string        `env:"API_BASE_URL" envDefault:"https://api.spotify.com/v1"`
	TokenURL     string        `env:"TOKEN_URL"`
	Market       string        `env:"MARKET"`
	Timeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	MaxRetries   int           `env:"MAX_RETRIES" envDefault:"3"`
	BackoffMS    int           `env:"RETRY_BACKOFF_MS" envDefault:"500"`
}

// RetryBackoff is the base backoff between retried catalog requests.
func (c SpotifyConfig) RetryBackoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}

// StorageConfig selects and configures the snapshot store.
type StorageConfig struct {
	Driver      string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"spotilyze.db"`
	DatabaseURL string `env:"DATABASE_URL"`
}

// PreviewConfig sizes the preview analysis worker pool.
type PreviewConfig struct {
	Workers   int `env:"WORKERS" envDefault:"2"`
	QueueSize int `env:"QUEUE_SIZE" envDefault:"100"`
}

// Load reads .env files (missing files are ignored) and then parses the
// environment. Variables already set take precedence over .env values.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Spotify.MaxRetries < 0 {
		return fmt.Errorf("config: SPOTIFY_MAX_RETRIES must not be negative")
	}
	return nil
}

// RawCSVPath is where exported playlist tables are written by default.
func (c *Config) RawCSVPath() string {
	return filepath.Join(c.DataDir, "raw", "spotify.csv")
}
