package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
)

const defaultMarket = "US"

// Searcher runs catalog searches through the zmb3 client, sharing the
// authenticated http.Client of the ingestion path.
type Searcher struct {
	api    *spotifyapi.Client
	market string
}

// compile-time interface assertion
var _ ports.SearchProvider = (*Searcher)(nil)

// NewSearcher constructs a Searcher. market scopes top tracks and search
// results and defaults to US.
func NewSearcher(httpClient *http.Client, baseURL, market string) *Searcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if market == "" {
		market = defaultMarket
	}
	api := spotifyapi.New(httpClient, spotifyapi.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	return &Searcher{api: api, market: market}
}

// SearchArtists returns up to limit artists matching name. The name is sent
// as an artist field filter.
func (s *Searcher) SearchArtists(ctx context.Context, name string, limit int) ([]domain.ArtistRef, error) {
	q := fieldFilter("artist", name)
	res, err := s.api.Search(ctx, q, spotifyapi.SearchTypeArtist, spotifyapi.Limit(limit), spotifyapi.Market(s.market))
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: search artists: %w", err)
	}
	if res.Artists == nil {
		return []domain.ArtistRef{}, nil
	}
	out := make([]domain.ArtistRef, 0, len(res.Artists.Artists))
	for _, a := range res.Artists.Artists {
		out = append(out, domain.ArtistRef{ID: string(a.ID), Name: a.Name})
	}
	return out, nil
}

// ArtistTopTracks returns the artist's most popular tracks in the market.
func (s *Searcher) ArtistTopTracks(ctx context.Context, artistID string) ([]domain.TrackRef, error) {
	tracks, err := s.api.GetArtistsTopTracks(ctx, spotifyapi.ID(artistID), s.market)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: top tracks for %s: %w", artistID, err)
	}
	out := make([]domain.TrackRef, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, mapFullTrack(t))
	}
	return out, nil
}

// SearchTracks runs a track search filtered on the track field, and on the
// artist field when one is given.
func (s *Searcher) SearchTracks(ctx context.Context, q ports.TrackQuery, limit int) ([]domain.TrackRef, error) {
	res, err := s.api.Search(ctx, trackQuery(q), spotifyapi.SearchTypeTrack, spotifyapi.Limit(limit), spotifyapi.Market(s.market))
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: search tracks: %w", err)
	}
	if res.Tracks == nil {
		return []domain.TrackRef{}, nil
	}
	out := make([]domain.TrackRef, 0, len(res.Tracks.Tracks))
	for _, t := range res.Tracks.Tracks {
		out = append(out, mapFullTrack(t))
	}
	return out, nil
}

func trackQuery(q ports.TrackQuery) string {
	query := fieldFilter("track", q.Track)
	if strings.TrimSpace(q.Artist) == "" {
		return query
	}
	return query + " " + fieldFilter("artist", q.Artist)
}

// fieldFilter renders field:"value". Quotes inside value would end the
// phrase early, so they are dropped.
func fieldFilter(field, value string) string {
	value = strings.ReplaceAll(strings.TrimSpace(value), `"`, "")
	return field + `:"` + value + `"`
}

func mapFullTrack(t spotifyapi.FullTrack) domain.TrackRef {
	id := string(t.ID)
	name := t.Name
	popularity := int(t.Popularity)
	duration := int(t.Duration)
	trackNumber := int(t.TrackNumber)
	discNumber := int(t.DiscNumber)

	ref := domain.TrackRef{
		ID:          &id,
		Name:        &name,
		Artists:     make([]string, 0, len(t.Artists)),
		Popularity:  &popularity,
		DurationMs:  &duration,
		TrackNumber: &trackNumber,
		DiscNumber:  &discNumber,
	}
	for _, a := range t.Artists {
		ref.Artists = append(ref.Artists, a.Name)
	}
	if t.PreviewURL != "" {
		preview := t.PreviewURL
		ref.PreviewURL = &preview
	}
	if t.Album.Name != "" {
		album := t.Album.Name
		albumID := string(t.Album.ID)
		ref.AlbumName = &album
		ref.AlbumID = &albumID
	}
	if rd, err := domain.ParseReleaseDate(t.Album.ReleaseDate, t.Album.ReleaseDatePrecision); err == nil {
		ref.ReleaseDate = &rd
	}
	return ref
}
