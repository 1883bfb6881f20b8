// Package console renders tables, reports and search results for terminals.
package console

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ewilliams-labs/spotilyze/internal/core/analysis"
	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

const nullCell = "-"

// DisplayColumns picks the columns worth printing for t.
func DisplayColumns(t domain.Table) []domain.Column {
	want := []domain.Column{domain.ColumnTrack, domain.ColumnArtist, domain.ColumnAlbum, domain.ColumnPopularity}
	if t.Schema.HasFeatures {
		want = append(want, domain.ColumnDanceability, domain.ColumnEnergy, domain.ColumnValence, domain.ColumnTempo)
	}
	cols := make([]domain.Column, 0, len(want))
	for _, c := range want {
		if t.Schema.Has(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// RenderTable prints up to limit rows of t restricted to cols. A nil cols
// uses DisplayColumns and limit <= 0 prints every row.
func RenderTable(w io.Writer, t domain.Table, cols []domain.Column, limit int) {
	if cols == nil {
		cols = DisplayColumns(t)
	}
	tw := newWriter(w)

	header := table.Row{"#"}
	for _, c := range cols {
		header = append(header, string(c))
	}
	tw.AppendHeader(header)

	for i, r := range t.Rows {
		if limit > 0 && i >= limit {
			break
		}
		row := table.Row{i + 1}
		for _, c := range cols {
			row = append(row, cell(r.Value(c)))
		}
		tw.AppendRow(row)
	}
	footer := fmt.Sprintf("%d tracks", t.Len())
	if !t.Schema.HasFeatures && t.Len() > 0 {
		footer += ", audio features unavailable"
	}
	tw.AppendFooter(table.Row{"", footer})
	tw.Render()
}

// RenderReport prints every section of r.
func RenderReport(w io.Writer, r analysis.Report) {
	fmt.Fprintf(w, "Tracks: %d  Audio features: %v\n\n", r.Tracks, r.HasFeatures)

	if len(r.Stats) > 0 {
		tw := newWriter(w)
		tw.SetTitle("Distribution")
		tw.AppendHeader(table.Row{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
		for _, s := range r.Stats {
			tw.AppendRow(table.Row{s.Column, s.Count, num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Median), num(s.Q75), num(s.Max)})
		}
		tw.Render()
	}

	tw := newWriter(w)
	tw.SetTitle("Top artists")
	tw.AppendHeader(table.Row{"artist", "popularity", "tracks"})
	for _, a := range r.TopArtists {
		tw.AppendRow(table.Row{a.Artist, a.Popularity, a.Tracks})
	}
	tw.Render()

	tw = newWriter(w)
	tw.SetTitle("Top tracks")
	tw.AppendHeader(table.Row{"track", "artist", "popularity"})
	for _, t := range r.TopTracks {
		tw.AppendRow(table.Row{cell(deref(t.Track)), cell(deref(t.Artist)), cell(deref(t.Popularity))})
	}
	tw.Render()

	for _, g := range r.Rock {
		tw = newWriter(w)
		tw.SetTitle(fmt.Sprintf("%s (%d tracks)", g.Group, g.Tracks))
		tw.AppendHeader(table.Row{"column", "count", "mean", "median"})
		for _, s := range g.Stats {
			tw.AppendRow(table.Row{s.Column, s.Count, num(s.Mean), num(s.Median)})
		}
		tw.Render()
	}

	tw = newWriter(w)
	tw.SetTitle("Nulls")
	tw.AppendHeader(table.Row{"column", "nulls"})
	for _, n := range r.Nulls {
		if n.Nulls > 0 {
			tw.AppendRow(table.Row{n.Column, n.Nulls})
		}
	}
	tw.Render()
}

// RenderSearch prints the hits of a search.
func RenderSearch(w io.Writer, res domain.SearchResult) {
	tw := newWriter(w)
	title := "Search results"
	if res.Artist != nil {
		title = "Top tracks: " + res.Artist.Name
	}
	if res.Fallback {
		title += " (matched by track name only)"
	}
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"#", "track", "artist", "album", "popularity", "id"})
	for i, h := range res.Hits {
		tw.AppendRow(table.Row{i + 1, h.Track, h.Artist, h.Album, cell(deref(h.Popularity)), h.TrackID})
	}
	tw.Render()
}

func newWriter(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	return tw
}

func cell(v any) any {
	switch x := v.(type) {
	case nil:
		return nullCell
	case float64:
		return num(x)
	default:
		return x
	}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
