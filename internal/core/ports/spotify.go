package ports

import (
	"context"
	"fmt"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// StatusError reports a non-success response from the catalog service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// CatalogClient is the subset of the remote catalog the ingestor needs.
// PlaylistItems returns domain.ErrNotFound when the playlist does not resolve.
type CatalogClient interface {
	PlaylistItems(ctx context.Context, playlistID string) (domain.ItemPage, error)
	NextPage(ctx context.Context, page domain.ItemPage) (domain.ItemPage, error)
	// AudioFeatures accepts at most 100 ids. The result is aligned with ids;
	// nil entries mean the catalog had no features for that id.
	AudioFeatures(ctx context.Context, ids []string) ([]*domain.FeatureRecord, error)
}

// TrackQuery is a free-text track search, optionally narrowed by artist.
type TrackQuery struct {
	Track  string
	Artist string
}

// SearchProvider runs catalog searches.
type SearchProvider interface {
	SearchArtists(ctx context.Context, name string, limit int) ([]domain.ArtistRef, error)
	ArtistTopTracks(ctx context.Context, artistID string) ([]domain.TrackRef, error)
	SearchTracks(ctx context.Context, q TrackQuery, limit int) ([]domain.TrackRef, error)
}
