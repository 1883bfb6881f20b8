// Package csvfile reads and writes playlist tables as CSV.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// headerAliases maps alternative header spellings, compared lowercased, to
// published columns. Canonical names need no entry.
var headerAliases = map[string]domain.Column{
	"id":          domain.ColumnTrackID,
	"spotify_id":  domain.ColumnTrackID,
	"track_name":  domain.ColumnTrack,
	"name":        domain.ColumnTrack,
	"artist_name": domain.ColumnArtist,
	"artists":     domain.ColumnArtist,
	"album_name":  domain.ColumnAlbum,
	"duration":    domain.ColumnDurationMs,
	"release":     domain.ColumnReleaseDate,
}

// WriteTable writes t with a header of its present columns. Nulls are
// written as empty cells.
func WriteTable(w io.Writer, t domain.Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(t.Schema.Columns))
	for i, c := range t.Schema.Columns {
		header[i] = string(c)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csvfile: write header: %w", err)
	}

	record := make([]string, len(t.Schema.Columns))
	for n, r := range t.Rows {
		for i, c := range t.Schema.Columns {
			record[i] = formatCell(r.Value(c))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csvfile: write row %d: %w", n, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvfile: flush: %w", err)
	}
	return nil
}

// ReadTable parses a CSV with a header row. Headers are matched
// case-insensitively against the published columns and their aliases;
// other columns are ignored. Empty or unparseable cells become nulls.
func ReadTable(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.EmptyTable(), nil
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("csvfile: read header: %w", err)
	}

	cols := make([]domain.Column, len(header))
	var available []domain.Column
	for i, h := range header {
		c, ok := resolveHeader(h)
		if !ok {
			continue
		}
		cols[i] = c
		available = append(available, c)
	}

	var rows []domain.Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("csvfile: line %d: %w", line, err)
		}

		var row domain.Row
		for i, cell := range record {
			if i >= len(cols) || cols[i] == "" {
				continue
			}
			v, err := parseCell(cols[i], cell)
			if err != nil {
				log.Printf("WARN csvfile: line %d column %s: %v", line, cols[i], err)
				continue
			}
			if err := row.Set(cols[i], v); err != nil {
				return domain.Table{}, fmt.Errorf("csvfile: line %d: %w", line, err)
			}
		}
		rows = append(rows, row)
	}

	schema := domain.ProjectSchema(available)
	if rows == nil {
		rows = []domain.Row{}
	}
	return domain.Table{Schema: schema, Rows: rows}, nil
}

// WriteFile writes t to path, creating parent directories.
func WriteFile(path string, t domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csvfile: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvfile: create %s: %w", path, err)
	}
	if err := WriteTable(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a table from path.
func ReadFile(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("csvfile: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTable(f)
}

func resolveHeader(h string) (domain.Column, bool) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	if c, ok := headerAliases[key]; ok {
		return c, true
	}
	c := domain.Column(key)
	for _, known := range domain.PublishedColumns() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

func parseCell(c domain.Column, cell string) (any, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	switch c.Kind() {
	case domain.KindInt:
		n, err := strconv.Atoi(strings.ReplaceAll(cell, ",", ""))
		if err != nil {
			// Exported floats such as "238800.0" still hold whole numbers.
			f, ferr := strconv.ParseFloat(cell, 64)
			if ferr != nil {
				return nil, err
			}
			return int(f), nil
		}
		return n, nil
	case domain.KindFloat:
		return strconv.ParseFloat(cell, 64)
	case domain.KindDate:
		return domain.ParseReleaseDate(cell, "")
	default:
		return cell, nil
	}
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
