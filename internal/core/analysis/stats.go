// Package analysis computes exploratory summaries over playlist tables.
// Every function accepts both the full table and the metadata-only one;
// columns missing from the schema are skipped rather than reported as errors.
package analysis

import (
	"math"
	"slices"
	"sort"

	"github.com/samber/lo"

	"github.com/ewilliams-labs/spotilyze/internal/core/domain"
)

// DefaultColumns are described when the caller does not pick columns.
var DefaultColumns = append(
	[]domain.Column{domain.ColumnPopularity, domain.ColumnDurationMs},
	domain.FeatureColumns()...,
)

// NullCount is the number of null cells in one column.
type NullCount struct {
	Column domain.Column `json:"column"`
	Nulls  int           `json:"nulls"`
}

// NullCounts returns nulls per present column, most nulls first. Ties keep
// column order.
func NullCounts(t domain.Table) []NullCount {
	out := make([]NullCount, 0, len(t.Schema.Columns))
	for _, c := range t.Schema.Columns {
		n := lo.CountBy(t.Rows, func(r domain.Row) bool { return r.Value(c) == nil })
		out = append(out, NullCount{Column: c, Nulls: n})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Nulls > out[j].Nulls })
	return out
}

// Stats summarizes the non-null values of a numeric column. Std is the
// sample standard deviation and is zero below two values. Quantiles use
// linear interpolation between closest ranks.
type Stats struct {
	Column domain.Column `json:"column"`
	Count  int           `json:"count"`
	Mean   float64       `json:"mean"`
	Std    float64       `json:"std"`
	Min    float64       `json:"min"`
	Q25    float64       `json:"p25"`
	Median float64       `json:"p50"`
	Q75    float64       `json:"p75"`
	Max    float64       `json:"max"`
}

// Describe returns Stats for each requested column present in t. A nil cols
// selects DefaultColumns.
func Describe(t domain.Table, cols []domain.Column) []Stats {
	if cols == nil {
		cols = DefaultColumns
	}
	out := make([]Stats, 0, len(cols))
	for _, c := range cols {
		if !c.IsNumeric() || !t.Schema.Has(c) {
			continue
		}
		out = append(out, describeColumn(c, values(t, c)))
	}
	return out
}

func describeColumn(c domain.Column, vals []float64) Stats {
	s := Stats{Column: c, Count: len(vals)}
	if len(vals) == 0 {
		return s
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)

	s.Mean = lo.Sum(vals) / float64(len(vals))
	if len(vals) > 1 {
		var sq float64
		for _, v := range vals {
			sq += (v - s.Mean) * (v - s.Mean)
		}
		s.Std = math.Sqrt(sq / float64(len(vals)-1))
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

// values collects the non-null numbers of c in row order.
func values(t domain.Table, c domain.Column) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		if v, ok := r.Number(c); ok {
			out = append(out, v)
		}
	}
	return out
}
