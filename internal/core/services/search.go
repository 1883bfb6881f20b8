package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
)

const (
	artistSearchLimit = 5
	trackSearchLimit  = 20
)

// Searcher answers artist and track lookups against the catalog.
type Searcher struct {
	provider ports.SearchProvider
}

// NewSearcher constructs a Searcher.
func NewSearcher(provider ports.SearchProvider) *Searcher {
	return &Searcher{provider: provider}
}

// Search picks the search mode from which of artist and track are given.
// With only an artist it returns that artist's top tracks. With a track it
// runs a track search and keeps the hits matching every given fragment.
func (s *Searcher) Search(ctx context.Context, artist, track string) (domain.SearchResult, error) {
	artist = strings.TrimSpace(artist)
	track = strings.TrimSpace(track)

	switch {
	case artist == "" && track == "":
		return domain.SearchResult{}, domain.ErrEmptyQuery
	case track == "":
		return s.byArtist(ctx, artist)
	case artist == "":
		return s.byTrack(ctx, track)
	default:
		return s.byArtistAndTrack(ctx, artist, track)
	}
}

func (s *Searcher) byArtist(ctx context.Context, artist string) (domain.SearchResult, error) {
	res := domain.SearchResult{Mode: domain.SearchByArtist, Hits: []domain.SearchHit{}}

	artists, err := s.provider.SearchArtists(ctx, artist, artistSearchLimit)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("service: artist search failed: %w", err)
	}
	if len(artists) == 0 {
		return res, nil
	}

	first := artists[0]
	res.Artist = &first
	tracks, err := s.provider.ArtistTopTracks(ctx, first.ID)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("service: top tracks for %s failed: %w", first.ID, err)
	}
	res.Hits = toHits(tracks, nil)
	return res, nil
}

func (s *Searcher) byTrack(ctx context.Context, track string) (domain.SearchResult, error) {
	tracks, err := s.provider.SearchTracks(ctx, ports.TrackQuery{Track: track}, trackSearchLimit)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("service: track search failed: %w", err)
	}
	return domain.SearchResult{
		Mode: domain.SearchByTrack,
		Hits: toHits(tracks, func(h domain.SearchHit) bool {
			return containsFragment(h.Track, track)
		}),
	}, nil
}

func (s *Searcher) byArtistAndTrack(ctx context.Context, artist, track string) (domain.SearchResult, error) {
	res := domain.SearchResult{Mode: domain.SearchByBoth}

	tracks, err := s.provider.SearchTracks(ctx, ports.TrackQuery{Track: track, Artist: artist}, trackSearchLimit)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("service: track search failed: %w", err)
	}
	if len(tracks) == 0 {
		log.Printf("DEBUG service: no hits for track %q by %q, retrying by track name", track, artist)
		res.Fallback = true
		tracks, err = s.provider.SearchTracks(ctx, ports.TrackQuery{Track: track}, trackSearchLimit)
		if err != nil {
			return domain.SearchResult{}, fmt.Errorf("service: fallback track search failed: %w", err)
		}
	}

	res.Hits = toHits(tracks, func(h domain.SearchHit) bool {
		return containsFragment(h.Track, track) && containsFragment(h.Artist, artist)
	})
	return res, nil
}

// toHits flattens tracks into hits, keeping those accepted by keep.
func toHits(tracks []domain.TrackRef, keep func(domain.SearchHit) bool) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(tracks))
	for _, t := range tracks {
		h := domain.SearchHit{
			TrackID:    deref(t.ID),
			Track:      deref(t.Name),
			Artist:     strings.Join(t.Artists, ", "),
			Album:      deref(t.AlbumName),
			Popularity: t.Popularity,
		}
		if keep != nil && !keep(h) {
			continue
		}
		hits = append(hits, h)
	}
	return hits
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
