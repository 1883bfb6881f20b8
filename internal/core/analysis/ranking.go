package analysis

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// ArtistTotal aggregates the rows credited to one artist string.
type ArtistTotal struct {
	Artist     string `json:"artist"`
	Popularity int    `json:"popularity"`
	Tracks     int    `json:"tracks"`
}

// TopArtists sums popularity per artist string and returns the n highest.
// Rows without an artist are ignored and null popularity counts as zero.
// n <= 0 returns every artist.
func TopArtists(t domain.Table, n int) []ArtistTotal {
	if !t.Schema.Has(domain.ColumnArtist) {
		return []ArtistTotal{}
	}

	withArtist := lo.Filter(t.Rows, func(r domain.Row, _ int) bool { return r.Artist != nil })
	groups := lo.GroupBy(withArtist, func(r domain.Row) string { return *r.Artist })

	out := make([]ArtistTotal, 0, len(groups))
	for artist, rows := range groups {
		out = append(out, ArtistTotal{
			Artist: artist,
			Popularity: lo.SumBy(rows, func(r domain.Row) int {
				if r.Popularity == nil {
					return 0
				}
				return *r.Popularity
			}),
			Tracks: len(rows),
		})
	}
	slices.SortFunc(out, func(a, b ArtistTotal) int {
		if c := cmp.Compare(b.Popularity, a.Popularity); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Tracks, a.Tracks); c != 0 {
			return c
		}
		return cmp.Compare(a.Artist, b.Artist)
	})
	return head(out, n)
}

// TrackRank is one entry of the popularity ranking.
type TrackRank struct {
	TrackID    *string `json:"track_id"`
	Track      *string `json:"track"`
	Artist     *string `json:"artist"`
	Popularity *int    `json:"popularity"`
}

// TopTracks ranks rows by popularity, highest first, with nulls last. Equal
// popularity keeps playlist order. n <= 0 returns every row.
func TopTracks(t domain.Table, n int) []TrackRank {
	ranks := lo.Map(t.Rows, func(r domain.Row, _ int) TrackRank {
		return TrackRank{TrackID: r.TrackID, Track: r.Track, Artist: r.Artist, Popularity: r.Popularity}
	})
	slices.SortStableFunc(ranks, func(a, b TrackRank) int {
		switch {
		case a.Popularity == nil && b.Popularity == nil:
			return 0
		case a.Popularity == nil:
			return 1
		case b.Popularity == nil:
			return -1
		}
		return cmp.Compare(*b.Popularity, *a.Popularity)
	})
	return head(ranks, n)
}

func head[T any](s []T, n int) []T {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}
