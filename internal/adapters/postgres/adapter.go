// Package postgres provides a PostgreSQL-backed implementation of the snapshot repository port.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
)

// DB is the subset of *pgxpool.Pool the adapter uses. It can be mocked for testing.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Adapter implements the snapshot repository for PostgreSQL.
type Adapter struct {
	db   DB
	pool *pgxpool.Pool
}

// compile-time interface assertion
var _ ports.SnapshotRepository = (*Adapter)(nil)

// NewAdapter connects to databaseURL and migrates the schema.
func NewAdapter(ctx context.Context, databaseURL string) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping: %w", err)
	}

	a := &Adapter{db: pool, pool: pool}
	if err := a.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migration failed: %w", err)
	}
	return a, nil
}

// NewWithDB wraps an existing connection without migrating.
func NewWithDB(db DB) *Adapter {
	return &Adapter{db: db}
}

// Close releases the pool when the adapter owns one.
func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// Migrate creates the schema if it does not exist.
func (a *Adapter) Migrate(ctx context.Context) error {
	_, err := a.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			playlist_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			has_features BOOLEAN NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_playlist ON snapshots (playlist_id, created_at DESC);
		CREATE TABLE IF NOT EXISTS snapshot_tracks (
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id TEXT,
			track TEXT,
			artist TEXT,
			album TEXT,
			album_id TEXT,
			album_total_tracks INTEGER,
			release_date TEXT,
			release_date_precision TEXT,
			popularity INTEGER,
			duration_ms INTEGER,
			track_number INTEGER,
			disc_number INTEGER,
			preview_url TEXT,
			danceability DOUBLE PRECISION,
			energy DOUBLE PRECISION,
			valence DOUBLE PRECISION,
			tempo DOUBLE PRECISION,
			acousticness DOUBLE PRECISION,
			instrumentalness DOUBLE PRECISION,
			liveness DOUBLE PRECISION,
			speechiness DOUBLE PRECISION,
			preview_energy DOUBLE PRECISION,
			PRIMARY KEY (snapshot_id, position)
		);
	`)
	return err
}

const trackColumns = `track_id, track, artist, album, album_id, album_total_tracks,
	release_date, release_date_precision, popularity, duration_ms, track_number, disc_number, preview_url,
	danceability, energy, valence, tempo, acousticness, instrumentalness, liveness, speechiness`

// Save writes the snapshot and its rows in one transaction.
func (a *Adapter) Save(ctx context.Context, s domain.Snapshot) (err error) {
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		"INSERT INTO snapshots (id, playlist_id, created_at, has_features) VALUES ($1, $2, $3, $4)",
		s.ID, s.PlaylistID, s.CreatedAt.UTC(), s.Table.Schema.HasFeatures,
	); err != nil {
		return fmt.Errorf("postgres: failed to save snapshot %s: %w", s.ID, err)
	}

	for i, r := range s.Table.Rows {
		var releaseDate, precision *string
		if r.ReleaseDate != nil {
			rd, p := r.ReleaseDate.String(), string(r.ReleaseDate.Precision)
			releaseDate, precision = &rd, &p
		}
		f := r.Features
		if _, err = tx.Exec(ctx, `
			INSERT INTO snapshot_tracks (snapshot_id, position, `+trackColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
			s.ID, i,
			r.TrackID, r.Track, r.Artist, r.Album, r.AlbumID, r.AlbumTotalTracks,
			releaseDate, precision, r.Popularity, r.DurationMs, r.TrackNumber, r.DiscNumber, r.PreviewURL,
			f.Danceability, f.Energy, f.Valence, f.Tempo, f.Acousticness, f.Instrumentalness, f.Liveness, f.Speechiness,
		); err != nil {
			return fmt.Errorf("postgres: failed to save row %d: %w", i, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: transaction commit failed: %w", err)
	}
	return nil
}

// Get loads a snapshot by id.
func (a *Adapter) Get(ctx context.Context, id string) (domain.Snapshot, error) {
	row := a.db.QueryRow(ctx,
		"SELECT id, playlist_id, created_at, has_features FROM snapshots WHERE id = $1", id)
	return a.load(ctx, row)
}

// Latest loads the most recent snapshot of a playlist.
func (a *Adapter) Latest(ctx context.Context, playlistID string) (domain.Snapshot, error) {
	row := a.db.QueryRow(ctx, `
		SELECT id, playlist_id, created_at, has_features FROM snapshots
		WHERE playlist_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, playlistID)
	return a.load(ctx, row)
}

// RecordPreviewEnergy stores the loudness estimate for a track of a snapshot.
func (a *Adapter) RecordPreviewEnergy(ctx context.Context, snapshotID, trackID string, energy float64) error {
	tag, err := a.db.Exec(ctx,
		"UPDATE snapshot_tracks SET preview_energy = $1 WHERE snapshot_id = $2 AND track_id = $3",
		energy, snapshotID, trackID)
	if err != nil {
		return fmt.Errorf("postgres: failed to record preview energy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (a *Adapter) load(ctx context.Context, header pgx.Row) (domain.Snapshot, error) {
	var s domain.Snapshot
	var hasFeatures bool
	if err := header.Scan(&s.ID, &s.PlaylistID, &s.CreatedAt, &hasFeatures); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("postgres: failed to load snapshot: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()

	rows, err := a.db.Query(ctx, `
		SELECT `+trackColumns+`, preview_energy
		FROM snapshot_tracks
		WHERE snapshot_id = $1
		ORDER BY position ASC`, s.ID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: failed to load snapshot rows: %w", err)
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		var (
			r                      domain.Row
			releaseDate, precision *string
			energy                 *float64
		)
		f := &r.Features
		if err := rows.Scan(
			&r.TrackID, &r.Track, &r.Artist, &r.Album, &r.AlbumID, &r.AlbumTotalTracks,
			&releaseDate, &precision, &r.Popularity, &r.DurationMs, &r.TrackNumber, &r.DiscNumber, &r.PreviewURL,
			&f.Danceability, &f.Energy, &f.Valence, &f.Tempo, &f.Acousticness, &f.Instrumentalness, &f.Liveness, &f.Speechiness,
			&energy,
		); err != nil {
			return domain.Snapshot{}, fmt.Errorf("postgres: failed to scan snapshot row: %w", err)
		}
		if releaseDate != nil {
			p := ""
			if precision != nil {
				p = *precision
			}
			if rd, err := domain.ParseReleaseDate(*releaseDate, p); err == nil {
				r.ReleaseDate = &rd
			}
		}
		if energy != nil && r.TrackID != nil {
			if s.PreviewEnergy == nil {
				s.PreviewEnergy = map[string]float64{}
			}
			s.PreviewEnergy[*r.TrackID] = *energy
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("postgres: failed to iterate snapshot rows: %w", err)
	}

	s.Table = domain.NewTable(out, hasFeatures)
	return s, nil
}
