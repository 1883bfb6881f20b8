package analysis

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// ErrNotNumeric is returned when a histogram is asked for a column that is
// absent or holds no numbers.
var ErrNotNumeric = errors.New("analysis: column is not a present numeric column")

// Histogram is an equal-width distribution. Edges has len(Counts)+1 entries;
// the last bin includes its upper edge.
type Histogram struct {
	Column domain.Column `json:"column"`
	Edges  []float64     `json:"edges"`
	Counts []int         `json:"counts"`
}

// NewHistogram bins the non-null values of col. A column whose values are
// all equal gets a unit-wide range centered on that value.
func NewHistogram(t domain.Table, col domain.Column, bins int) (Histogram, error) {
	if bins < 1 {
		return Histogram{}, fmt.Errorf("analysis: bins must be positive, got %d", bins)
	}
	if !col.IsNumeric() || !t.Schema.Has(col) {
		return Histogram{}, fmt.Errorf("%w: %s", ErrNotNumeric, col)
	}

	h := Histogram{Column: col, Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	vals := values(t, col)
	if len(vals) == 0 {
		return h, nil
	}

	lower, upper := lo.Min(vals), lo.Max(vals)
	if lower == upper {
		lower, upper = lower-0.5, upper+0.5
	}
	width := (upper - lower) / float64(bins)
	for i := range h.Edges {
		h.Edges[i] = lower + width*float64(i)
	}
	h.Edges[bins] = upper

	for _, v := range vals {
		i := int((v - lower) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Counts[i]++
	}
	return h, nil
}

// Options tunes Summarize. Zero values select the defaults.
type Options struct {
	TopN          int
	RockArtists   []string
	Columns       []domain.Column
	HistogramBins int
}

const (
	defaultTopN = 10
	defaultBins = 10
)

// Report bundles every summary for one table.
type Report struct {
	Tracks      int           `json:"tracks"`
	HasFeatures bool          `json:"has_features"`
	Nulls       []NullCount   `json:"nulls"`
	Stats       []Stats       `json:"stats"`
	TopArtists  []ArtistTotal `json:"top_artists"`
	TopTracks   []TrackRank   `json:"top_tracks"`
	Rock        []GroupStats  `json:"rock_vs_non_rock"`
	Histograms  []Histogram   `json:"histograms"`
}

// Summarize runs every helper over t. Histograms are built for popularity
// and, when present, each audio feature.
func Summarize(t domain.Table, opts Options) Report {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = defaultBins
	}

	r := Report{
		Tracks:      t.Len(),
		HasFeatures: t.Schema.HasFeatures,
		Nulls:       NullCounts(t),
		Stats:       Describe(t, opts.Columns),
		TopArtists:  TopArtists(t, opts.TopN),
		TopTracks:   TopTracks(t, opts.TopN),
		Rock:        CompareRock(t, opts.RockArtists, opts.Columns),
		Histograms:  []Histogram{},
	}

	cols := []domain.Column{domain.ColumnPopularity}
	if t.Schema.HasFeatures {
		cols = append(cols, domain.FeatureColumns()...)
	}
	for _, c := range cols {
		h, err := NewHistogram(t, c, opts.HistogramBins)
		if err != nil {
			continue
		}
		r.Histograms = append(r.Histograms, h)
	}
	return r
}
