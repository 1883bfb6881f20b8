package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Column names a field of the playlist result table.
type Column string

const (
	ColumnTrackID          Column = "track_id"
	ColumnTrack            Column = "track"
	ColumnArtist           Column = "artist"
	ColumnAlbum            Column = "album"
	ColumnAlbumID          Column = "album_id"
	ColumnAlbumTotalTracks Column = "album_total_tracks"
	ColumnReleaseDate      Column = "release_date"
	ColumnPopularity       Column = "popularity"
	ColumnDurationMs       Column = "duration_ms"
	ColumnTrackNumber      Column = "track_number"
	ColumnDiscNumber       Column = "disc_number"
	ColumnPreviewURL       Column = "preview_url"

	ColumnDanceability     Column = "danceability"
	ColumnEnergy           Column = "energy"
	ColumnValence          Column = "valence"
	ColumnTempo            Column = "tempo"
	ColumnAcousticness     Column = "acousticness"
	ColumnInstrumentalness Column = "instrumentalness"
	ColumnLiveness         Column = "liveness"
	ColumnSpeechiness      Column = "speechiness"
)

// ColumnKind is the value type stored in a column.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInt
	KindFloat
	KindDate
)

var metadataColumns = []Column{
	ColumnTrackID,
	ColumnTrack,
	ColumnArtist,
	ColumnAlbum,
	ColumnAlbumID,
	ColumnAlbumTotalTracks,
	ColumnReleaseDate,
	ColumnPopularity,
	ColumnDurationMs,
	ColumnTrackNumber,
	ColumnDiscNumber,
	ColumnPreviewURL,
}

var featureColumns = []Column{
	ColumnDanceability,
	ColumnEnergy,
	ColumnValence,
	ColumnTempo,
	ColumnAcousticness,
	ColumnInstrumentalness,
	ColumnLiveness,
	ColumnSpeechiness,
}

// MetadataColumns returns the published track-descriptor columns in order.
func MetadataColumns() []Column { return slices.Clone(metadataColumns) }

// FeatureColumns returns the published audio-feature columns in order.
func FeatureColumns() []Column { return slices.Clone(featureColumns) }

// PublishedColumns returns the full published column set in order.
func PublishedColumns() []Column {
	return append(MetadataColumns(), featureColumns...)
}

// Kind returns the value type of c.
func (c Column) Kind() ColumnKind {
	switch c {
	case ColumnAlbumTotalTracks, ColumnPopularity, ColumnDurationMs, ColumnTrackNumber, ColumnDiscNumber:
		return KindInt
	case ColumnReleaseDate:
		return KindDate
	}
	if c.IsFeature() {
		return KindFloat
	}
	return KindString
}

// IsFeature reports whether c is one of the audio-feature columns.
func (c Column) IsFeature() bool {
	return slices.Contains(featureColumns, c)
}

// IsNumeric reports whether values of c can be aggregated.
func (c Column) IsNumeric() bool {
	k := c.Kind()
	return k == KindInt || k == KindFloat
}

// Schema is the set of published columns actually present in a table.
type Schema struct {
	Columns     []Column
	HasFeatures bool
}

// ProjectSchema intersects available with the published column set, keeping
// the published order. Unknown columns are dropped.
func ProjectSchema(available []Column) Schema {
	s := Schema{Columns: []Column{}}
	for _, c := range PublishedColumns() {
		if !slices.Contains(available, c) {
			continue
		}
		s.Columns = append(s.Columns, c)
		if c.IsFeature() {
			s.HasFeatures = true
		}
	}
	return s
}

// Has reports whether c is present.
func (s Schema) Has(c Column) bool {
	return slices.Contains(s.Columns, c)
}

// Row is one track of the result table. Nil fields are nulls.
type Row struct {
	TrackID          *string
	Track            *string
	Artist           *string
	Album            *string
	AlbumID          *string
	AlbumTotalTracks *int
	ReleaseDate      *ReleaseDate
	Popularity       *int
	DurationMs       *int
	TrackNumber      *int
	DiscNumber       *int
	PreviewURL       *string
	Features         FeatureValues
}

// Value returns the value of c, or nil when it is null.
func (r Row) Value(c Column) any {
	switch c {
	case ColumnTrackID:
		return deref(r.TrackID)
	case ColumnTrack:
		return deref(r.Track)
	case ColumnArtist:
		return deref(r.Artist)
	case ColumnAlbum:
		return deref(r.Album)
	case ColumnAlbumID:
		return deref(r.AlbumID)
	case ColumnAlbumTotalTracks:
		return deref(r.AlbumTotalTracks)
	case ColumnReleaseDate:
		if r.ReleaseDate == nil {
			return nil
		}
		return r.ReleaseDate.String()
	case ColumnPopularity:
		return deref(r.Popularity)
	case ColumnDurationMs:
		return deref(r.DurationMs)
	case ColumnTrackNumber:
		return deref(r.TrackNumber)
	case ColumnDiscNumber:
		return deref(r.DiscNumber)
	case ColumnPreviewURL:
		return deref(r.PreviewURL)
	}
	if p := r.featureField(c); p != nil {
		return deref(*p)
	}
	return nil
}

// Number returns the numeric value of c. ok is false for nulls and
// non-numeric columns.
func (r Row) Number(c Column) (float64, bool) {
	switch v := r.Value(c).(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Set assigns v to column c. A nil v stores a null.
func (r *Row) Set(c Column, v any) error {
	if v == nil {
		return r.setNull(c)
	}
	switch c.Kind() {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("domain: column %s wants string, got %T", c, v)
		}
		r.setString(c, &s)
	case KindInt:
		n, ok := v.(int)
		if !ok {
			return fmt.Errorf("domain: column %s wants int, got %T", c, v)
		}
		r.setInt(c, &n)
	case KindDate:
		d, ok := v.(ReleaseDate)
		if !ok {
			return fmt.Errorf("domain: column %s wants ReleaseDate, got %T", c, v)
		}
		r.ReleaseDate = &d
	case KindFloat:
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("domain: column %s wants float64, got %T", c, v)
		}
		*r.featureField(c) = &f
	}
	return nil
}

func (r *Row) setNull(c Column) error {
	switch c.Kind() {
	case KindString:
		r.setString(c, nil)
	case KindInt:
		r.setInt(c, nil)
	case KindDate:
		r.ReleaseDate = nil
	case KindFloat:
		*r.featureField(c) = nil
	}
	return nil
}

func (r *Row) setString(c Column, s *string) {
	switch c {
	case ColumnTrackID:
		r.TrackID = s
	case ColumnTrack:
		r.Track = s
	case ColumnArtist:
		r.Artist = s
	case ColumnAlbum:
		r.Album = s
	case ColumnAlbumID:
		r.AlbumID = s
	case ColumnPreviewURL:
		r.PreviewURL = s
	}
}

func (r *Row) setInt(c Column, n *int) {
	switch c {
	case ColumnAlbumTotalTracks:
		r.AlbumTotalTracks = n
	case ColumnPopularity:
		r.Popularity = n
	case ColumnDurationMs:
		r.DurationMs = n
	case ColumnTrackNumber:
		r.TrackNumber = n
	case ColumnDiscNumber:
		r.DiscNumber = n
	}
}

func (r *Row) featureField(c Column) **float64 {
	switch c {
	case ColumnDanceability:
		return &r.Features.Danceability
	case ColumnEnergy:
		return &r.Features.Energy
	case ColumnValence:
		return &r.Features.Valence
	case ColumnTempo:
		return &r.Features.Tempo
	case ColumnAcousticness:
		return &r.Features.Acousticness
	case ColumnInstrumentalness:
		return &r.Features.Instrumentalness
	case ColumnLiveness:
		return &r.Features.Liveness
	case ColumnSpeechiness:
		return &r.Features.Speechiness
	}
	return nil
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Table is the playlist result table handed to the presentation layer.
// Callers must accept both the full column set and the reduced one where
// Schema.HasFeatures is false.
type Table struct {
	Schema Schema
	Rows   []Row
}

// EmptyTable returns a table with no columns and no rows.
func EmptyTable() Table {
	return Table{Schema: Schema{Columns: []Column{}}, Rows: []Row{}}
}

// NewTable builds a table over rows. Feature columns are only part of the
// schema when hasFeatures is set.
func NewTable(rows []Row, hasFeatures bool) Table {
	available := MetadataColumns()
	if hasFeatures {
		available = append(available, featureColumns...)
	}
	if rows == nil {
		rows = []Row{}
	}
	return Table{Schema: ProjectSchema(available), Rows: rows}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// IsEmpty reports whether the table has no rows.
func (t Table) IsEmpty() bool { return len(t.Rows) == 0 }

// Filter returns the rows matching keep under the same schema.
func (t Table) Filter(keep func(Row) bool) Table {
	out := Table{Schema: t.Schema, Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Records returns the rows as column-name maps restricted to the schema.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(map[string]any, len(t.Schema.Columns))
		for _, c := range t.Schema.Columns {
			rec[string(c)] = r.Value(c)
		}
		out = append(out, rec)
	}
	return out
}

type tableJSON struct {
	Columns     []Column         `json:"columns"`
	HasFeatures bool             `json:"has_features"`
	Rows        []map[string]any `json:"rows"`
}

func (t Table) MarshalJSON() ([]byte, error) {
	cols := t.Schema.Columns
	if cols == nil {
		cols = []Column{}
	}
	return json.Marshal(tableJSON{
		Columns:     cols,
		HasFeatures: t.Schema.HasFeatures,
		Rows:        t.Records(),
	})
}
