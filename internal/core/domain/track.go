package domain

import (
	"fmt"
	"strings"
	"time"
)

// TrackRef is the catalog's view of a single track. Every field is optional:
// a nil pointer (or a nil Artists slice) means the catalog did not send it.
type TrackRef struct {
	ID               *string
	Name             *string
	Artists          []string
	AlbumName        *string
	AlbumID          *string
	AlbumTotalTracks *int
	ReleaseDate      *ReleaseDate
	Popularity       *int // 0-100
	DurationMs       *int
	TrackNumber      *int
	DiscNumber       *int
	PreviewURL       *string
}

// FeatureValues holds the audio descriptors of a track. All values except
// Tempo (BPM) are normalized to 0..1.
type FeatureValues struct {
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Valence          *float64 `json:"valence"`
	Tempo            *float64 `json:"tempo"`
	Acousticness     *float64 `json:"acousticness"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Liveness         *float64 `json:"liveness"`
	Speechiness      *float64 `json:"speechiness"`
}

// IsZero reports whether no descriptor is set.
func (f FeatureValues) IsZero() bool {
	return f == FeatureValues{}
}

// FeatureRecord is one audio-feature lookup result, keyed by track ID.
type FeatureRecord struct {
	ID string
	FeatureValues
}

// DatePrecision is the granularity the catalog reports a release date with.
type DatePrecision string

const (
	PrecisionYear  DatePrecision = "year"
	PrecisionMonth DatePrecision = "month"
	PrecisionDay   DatePrecision = "day"
)

var precisionLayouts = map[DatePrecision]string{
	PrecisionYear:  "2006",
	PrecisionMonth: "2006-01",
	PrecisionDay:   "2006-01-02",
}

// ReleaseDate is a partial-precision calendar date. Month and Day are zero
// when the precision does not cover them.
type ReleaseDate struct {
	Year      int
	Month     int
	Day       int
	Precision DatePrecision
}

// ParseReleaseDate parses "2001", "2001-05" or "2001-05-12". When precision is
// empty it is inferred from the shape of raw.
func ParseReleaseDate(raw string, precision string) (ReleaseDate, error) {
	raw = strings.TrimSpace(raw)
	p := DatePrecision(strings.ToLower(strings.TrimSpace(precision)))
	if p == "" {
		switch strings.Count(raw, "-") {
		case 0:
			p = PrecisionYear
		case 1:
			p = PrecisionMonth
		default:
			p = PrecisionDay
		}
	}

	layout, ok := precisionLayouts[p]
	if !ok {
		return ReleaseDate{}, fmt.Errorf("domain: unknown release date precision %q", precision)
	}
	ts, err := time.Parse(layout, raw)
	if err != nil {
		return ReleaseDate{}, fmt.Errorf("domain: invalid release date %q: %w", raw, err)
	}

	d := ReleaseDate{Year: ts.Year(), Precision: p}
	if p == PrecisionMonth || p == PrecisionDay {
		d.Month = int(ts.Month())
	}
	if p == PrecisionDay {
		d.Day = ts.Day()
	}
	return d, nil
}

// String renders the date at its own precision.
func (d ReleaseDate) String() string {
	switch d.Precision {
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	case PrecisionDay:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	default:
		return fmt.Sprintf("%04d", d.Year)
	}
}
