// Package bootstrap wires configuration, adapters and services together for
// the API server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ewilliams-labs/spotilyze/internal/adapters/postgres"
	"github.com/ewilliams-labs/spotilyze/internal/adapters/spotify"
	"github.com/ewilliams-labs/spotilyze/internal/adapters/sqlite"
	"github.com/ewilliams-labs/spotilyze/internal/config"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
	"github.com/ewilliams-labs/spotilyze/internal/core/services"
	"github.com/ewilliams-labs/spotilyze/internal/worker"
)

// App holds the wired service and the resources that must be released.
type App struct {
	Config  *config.Config
	Service *services.Orchestrator
	Pool    *worker.Pool

	closeStore func() error
}

// New builds the catalog client, opens the snapshot store and starts the
// preview worker pool. ctx must outlive the App; it backs token refreshes.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	httpClient, err := spotify.NewHTTPClient(ctx, spotify.AuthConfig{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
		TokenURL:     cfg.Spotify.TokenURL,
		Timeout:      cfg.Spotify.Timeout,
	}, spotify.RetryConfig{
		MaxRetries:  cfg.Spotify.MaxRetries,
		BaseBackoff: cfg.Spotify.RetryBackoff(),
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	catalog := spotify.NewClient(httpClient, cfg.Spotify.BaseURL, spotify.WithMarket(cfg.Spotify.Market))
	searcher := spotify.NewSearcher(httpClient, cfg.Spotify.BaseURL, cfg.Spotify.Market)

	repo, closeStore, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(repo, cfg.Preview.QueueSize)
	pool.Start(cfg.Preview.Workers)

	return &App{
		Config:     cfg,
		Service:    services.NewOrchestrator(catalog, searcher, repo, pool),
		Pool:       pool,
		closeStore: closeStore,
	}, nil
}

// Close drains the worker pool and closes the snapshot store.
func (a *App) Close() error {
	a.Pool.Stop()
	return a.closeStore()
}

// OpenStore opens the snapshot repository selected by STORAGE_DRIVER.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (ports.SnapshotRepository, func() error, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		a, err := sqlite.NewAdapter(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: open sqlite: %w", err)
		}
		log.Printf("DEBUG bootstrap: sqlite store at %s", cfg.SQLitePath)
		return a, a.Close, nil
	case config.DriverPostgres:
		a, err := postgres.NewAdapter(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: open postgres: %w", err)
		}
		return a, a.Close, nil
	default:
		return nil, nil, errors.New("bootstrap: unknown storage driver " + cfg.Driver)
	}
}
