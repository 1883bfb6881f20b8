package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/samber/lo"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
)

// MaxFeatureBatch is the most ids the catalog accepts per audio-feature call.
const MaxFeatureBatch = 100

// Ingestor turns a playlist into a flat table of track metadata joined with
// audio features. It keeps no state between calls.
type Ingestor struct {
	catalog ports.CatalogClient
}

// NewIngestor constructs an Ingestor.
func NewIngestor(catalog ports.CatalogClient) *Ingestor {
	return &Ingestor{catalog: catalog}
}

// batchResult is the outcome of one audio-feature lookup.
type batchResult struct {
	records []*domain.FeatureRecord
	err     error
}

// Fetch pulls every track of the playlist, looks up audio features in
// batches and returns the merged table. A playlist that does not resolve
// yields an empty table. Failed feature batches are logged and skipped.
func (s *Ingestor) Fetch(ctx context.Context, playlistID string) (domain.Table, error) {
	playlistID = strings.TrimSpace(playlistID)
	if playlistID == "" {
		return domain.Table{}, domain.ErrInvalidPlaylistID
	}

	first, err := s.catalog.PlaylistItems(ctx, playlistID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Printf("WARN service: playlist %s not found", playlistID)
		return domain.EmptyTable(), nil
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("service: failed to fetch playlist %s: %w", playlistID, err)
	}

	tracks, err := s.collectTracks(ctx, first)
	if err != nil {
		return domain.Table{}, err
	}
	if len(tracks) == 0 {
		return domain.EmptyTable(), nil
	}

	rows := make([]domain.Row, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, projectMetadata(t))
	}

	records, err := s.lookupFeatures(ctx, featureIDs(tracks))
	if err != nil {
		return domain.Table{}, err
	}
	return mergeFeatures(rows, records), nil
}

// collectTracks walks the pages after first and drops items without a
// track. Any page failure, not-found included, is returned to the caller.
func (s *Ingestor) collectTracks(ctx context.Context, page domain.ItemPage) ([]domain.TrackRef, error) {
	var (
		tracks []domain.TrackRef
		err    error
	)
	for {
		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, *item.Track)
		}
		if !page.HasNext() {
			return tracks, nil
		}
		page, err = s.catalog.NextPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("service: failed to fetch playlist page: %w", err)
		}
	}
}

// projectMetadata maps a track onto a row. Missing fields stay null.
func projectMetadata(t domain.TrackRef) domain.Row {
	row := domain.Row{
		TrackID:          t.ID,
		Track:            t.Name,
		Album:            t.AlbumName,
		AlbumID:          t.AlbumID,
		AlbumTotalTracks: t.AlbumTotalTracks,
		ReleaseDate:      t.ReleaseDate,
		Popularity:       t.Popularity,
		DurationMs:       t.DurationMs,
		TrackNumber:      t.TrackNumber,
		DiscNumber:       t.DiscNumber,
		PreviewURL:       t.PreviewURL,
	}
	if t.Artists != nil {
		artist := strings.Join(t.Artists, ", ")
		row.Artist = &artist
	}
	return row
}

// featureIDs returns the distinct non-blank track ids in playlist order.
func featureIDs(tracks []domain.TrackRef) []string {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == nil || strings.TrimSpace(*t.ID) == "" {
			continue
		}
		ids = append(ids, *t.ID)
	}
	return lo.Uniq(ids)
}

// lookupFeatures requests features batch by batch. Only a cancelled context
// stops the loop.
func (s *Ingestor) lookupFeatures(ctx context.Context, ids []string) ([]domain.FeatureRecord, error) {
	var out []domain.FeatureRecord
	for i, batch := range lo.Chunk(ids, MaxFeatureBatch) {
		res := s.featureBatch(ctx, batch)
		if res.err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("service: feature lookup cancelled: %w", ctx.Err())
			}
			log.Printf("WARN service: audio features batch %d (%d ids) failed, skipping: %v", i, len(batch), res.err)
			continue
		}
		for _, rec := range res.records {
			if rec == nil || rec.ID == "" {
				continue
			}
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *Ingestor) featureBatch(ctx context.Context, ids []string) batchResult {
	records, err := s.catalog.AudioFeatures(ctx, ids)
	return batchResult{records: records, err: err}
}

// mergeFeatures left-joins feature records onto rows by track id. Without
// any record the feature columns are left out of the schema.
func mergeFeatures(rows []domain.Row, records []domain.FeatureRecord) domain.Table {
	if len(records) == 0 {
		return domain.NewTable(rows, false)
	}

	byID := make(map[string]domain.FeatureValues, len(records))
	for _, rec := range records {
		if _, seen := byID[rec.ID]; seen {
			continue
		}
		byID[rec.ID] = rec.FeatureValues
	}

	for i := range rows {
		if rows[i].TrackID == nil {
			continue
		}
		if fv, ok := byID[*rows[i].TrackID]; ok {
			rows[i].Features = fv
		}
	}
	return domain.NewTable(rows, true)
}
