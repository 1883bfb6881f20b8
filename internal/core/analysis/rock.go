package analysis

import (
	"strings"

	"github.com/samber/lo"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// DefaultRockArtists is the reference list used to split a playlist into
// rock and everything else.
var DefaultRockArtists = []string{
	"Red Hot Chili Peppers",
	"Metallica",
	"Linkin Park",
	"Radiohead",
	"AC/DC",
	"Gorillaz",
}

const (
	GroupRock    = "rock"
	GroupNonRock = "non_rock"
)

// GroupStats describes one side of a split.
type GroupStats struct {
	Group  string  `json:"group"`
	Tracks int     `json:"tracks"`
	Stats  []Stats `json:"stats"`
}

// SplitRock partitions t into rows credited to at least one of artists and
// the rest. Names compare case-insensitively. An empty artists list uses
// DefaultRockArtists.
func SplitRock(t domain.Table, artists []string) (rock, other domain.Table) {
	set := rockSet(artists)
	isRock := func(r domain.Row) bool {
		if r.Artist == nil {
			return false
		}
		return lo.SomeBy(strings.Split(*r.Artist, ", "), func(name string) bool {
			_, ok := set[strings.ToLower(strings.TrimSpace(name))]
			return ok
		})
	}
	return t.Filter(isRock), t.Filter(func(r domain.Row) bool { return !isRock(r) })
}

// CompareRock describes cols for both sides of SplitRock.
func CompareRock(t domain.Table, artists []string, cols []domain.Column) []GroupStats {
	rock, other := SplitRock(t, artists)
	return []GroupStats{
		{Group: GroupRock, Tracks: rock.Len(), Stats: Describe(rock, cols)},
		{Group: GroupNonRock, Tracks: other.Len(), Stats: Describe(other, cols)},
	}
}

func rockSet(artists []string) map[string]struct{} {
	if len(artists) == 0 {
		artists = DefaultRockArtists
	}
	return lo.SliceToMap(artists, func(a string) (string, struct{}) {
		return strings.ToLower(strings.TrimSpace(a)), struct{}{}
	})
}
