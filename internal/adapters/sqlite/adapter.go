// Package sqlite provides a SQLite-backed implementation of the snapshot repository port.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the snapshot repository for SQLite
type Adapter struct {
	db *sql.DB
}

// compile-time interface assertion
var _ ports.SnapshotRepository = (*Adapter)(nil)

// openDB is swapped in tests.
var openDB = sql.Open

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := openDB("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open db: %w", err)
	}
	// Every connection to :memory: is its own database.
	if strings.Contains(storagePath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: failed to ping db: %w", err)
	}

	adapter := &Adapter{db: db}

	if err := adapter.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

const trackColumns = `track_id, track, artist, album, album_id, album_total_tracks,
	release_date, release_date_precision, popularity, duration_ms, track_number, disc_number, preview_url,
	danceability, energy, valence, tempo, acousticness, instrumentalness, liveness, speechiness`

// Save writes the snapshot and its rows in one transaction.
func (a *Adapter) Save(ctx context.Context, s domain.Snapshot) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (id, playlist_id, created_at, has_features) VALUES (?, ?, ?, ?)",
		s.ID, s.PlaylistID, s.CreatedAt.UTC(), s.Table.Schema.HasFeatures,
	); err != nil {
		return fmt.Errorf("sqlite: failed to save snapshot %s: %w", s.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_tracks (snapshot_id, position, `+trackColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range s.Table.Rows {
		var releaseDate, precision *string
		if r.ReleaseDate != nil {
			rd, p := r.ReleaseDate.String(), string(r.ReleaseDate.Precision)
			releaseDate, precision = &rd, &p
		}
		f := r.Features
		if _, err := stmt.ExecContext(ctx,
			s.ID, i,
			r.TrackID, r.Track, r.Artist, r.Album, r.AlbumID, r.AlbumTotalTracks,
			releaseDate, precision, r.Popularity, r.DurationMs, r.TrackNumber, r.DiscNumber, r.PreviewURL,
			f.Danceability, f.Energy, f.Valence, f.Tempo, f.Acousticness, f.Instrumentalness, f.Liveness, f.Speechiness,
		); err != nil {
			return fmt.Errorf("sqlite: failed to save row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: transaction commit failed: %w", err)
	}
	return nil
}

// Get loads a snapshot by id.
func (a *Adapter) Get(ctx context.Context, id string) (domain.Snapshot, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT id, playlist_id, created_at, has_features FROM snapshots WHERE id = ?", id)
	return a.load(ctx, row)
}

// Latest loads the most recent snapshot of a playlist.
func (a *Adapter) Latest(ctx context.Context, playlistID string) (domain.Snapshot, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, playlist_id, created_at, has_features FROM snapshots
		WHERE playlist_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, playlistID)
	return a.load(ctx, row)
}

// RecordPreviewEnergy stores the loudness estimate for a track of a snapshot.
func (a *Adapter) RecordPreviewEnergy(ctx context.Context, snapshotID, trackID string, energy float64) error {
	res, err := a.db.ExecContext(ctx,
		"UPDATE snapshot_tracks SET preview_energy = ? WHERE snapshot_id = ? AND track_id = ?",
		energy, snapshotID, trackID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to record preview energy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to record preview energy: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (a *Adapter) load(ctx context.Context, header *sql.Row) (domain.Snapshot, error) {
	var s domain.Snapshot
	var hasFeatures bool
	var createdAt time.Time
	if err := header.Scan(&s.ID, &s.PlaylistID, &createdAt, &hasFeatures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("sqlite: failed to load snapshot: %w", err)
	}
	s.CreatedAt = createdAt.UTC()

	rows, err := a.db.QueryContext(ctx, `
		SELECT `+trackColumns+`, preview_energy
		FROM snapshot_tracks
		WHERE snapshot_id = ?
		ORDER BY position ASC
	`, s.ID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("sqlite: failed to load snapshot rows: %w", err)
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		r, energy, err := scanRow(rows)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("sqlite: failed to scan snapshot row: %w", err)
		}
		if energy.Valid && r.TrackID != nil {
			if s.PreviewEnergy == nil {
				s.PreviewEnergy = map[string]float64{}
			}
			s.PreviewEnergy[*r.TrackID] = energy.Float64
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("sqlite: failed to iterate snapshot rows: %w", err)
	}

	s.Table = domain.NewTable(out, hasFeatures)
	return s, nil
}

func scanRow(rows *sql.Rows) (domain.Row, sql.NullFloat64, error) {
	var (
		trackID, track, artist, album, albumID sql.NullString
		releaseDate, precision, previewURL     sql.NullString
		totalTracks, popularity, duration      sql.NullInt64
		trackNumber, discNumber                sql.NullInt64
		feats                                  [8]sql.NullFloat64
		energy                                 sql.NullFloat64
	)
	if err := rows.Scan(
		&trackID, &track, &artist, &album, &albumID, &totalTracks,
		&releaseDate, &precision, &popularity, &duration, &trackNumber, &discNumber, &previewURL,
		&feats[0], &feats[1], &feats[2], &feats[3], &feats[4], &feats[5], &feats[6], &feats[7],
		&energy,
	); err != nil {
		return domain.Row{}, energy, err
	}

	r := domain.Row{
		TrackID:          nullString(trackID),
		Track:            nullString(track),
		Artist:           nullString(artist),
		Album:            nullString(album),
		AlbumID:          nullString(albumID),
		AlbumTotalTracks: nullInt(totalTracks),
		Popularity:       nullInt(popularity),
		DurationMs:       nullInt(duration),
		TrackNumber:      nullInt(trackNumber),
		DiscNumber:       nullInt(discNumber),
		PreviewURL:       nullString(previewURL),
		Features: domain.FeatureValues{
			Danceability:     nullFloat(feats[0]),
			Energy:           nullFloat(feats[1]),
			Valence:          nullFloat(feats[2]),
			Tempo:            nullFloat(feats[3]),
			Acousticness:     nullFloat(feats[4]),
			Instrumentalness: nullFloat(feats[5]),
			Liveness:         nullFloat(feats[6]),
			Speechiness:      nullFloat(feats[7]),
		},
	}
	if releaseDate.Valid {
		if rd, err := domain.ParseReleaseDate(releaseDate.String, precision.String); err == nil {
			r.ReleaseDate = &rd
		}
	}
	return r, energy, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		playlist_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		has_features BOOLEAN NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_playlist ON snapshots (playlist_id, created_at);

	CREATE TABLE IF NOT EXISTS snapshot_tracks (
		snapshot_id TEXT NOT NULL,
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
		danceability REAL,
		energy REAL,
		valence REAL,
		tempo REAL,
		acousticness REAL,
		instrumentalness REAL,
		liveness REAL,
		speechiness REAL,
		PRIMARY KEY (snapshot_id, position),
		FOREIGN KEY(snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	// Columns added after the first schema version.
	if _, err := a.db.Exec("ALTER TABLE snapshot_tracks ADD COLUMN preview_energy REAL"); err != nil {
		if !isDuplicateColumnError(err) {
			return err
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
