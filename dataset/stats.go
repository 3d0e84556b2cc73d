package dataset

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats is the five-number summary plus mean and standard deviation for
// one column.
type ColumnStats struct {
	Column string
	Min    float64
	Q1     float64
	Median float64
	Mean   float64
	Q3     float64
	Max    float64
	StdDev float64
}

func (s ColumnStats) String() string {
	return fmt.Sprintf("%-22s min=%8.3f q1=%8.3f med=%8.3f mean=%8.3f q3=%8.3f max=%8.3f sd=%7.3f",
		s.Column, s.Min, s.Q1, s.Median, s.Mean, s.Q3, s.Max, s.StdDev)
}

// Summary computes per-column statistics for every predictor and the quality
// score, in column order.
func (t *Table) Summary() []ColumnStats {
	r, c := t.X.Dims()
	out := make([]ColumnStats, 0, c+1)
	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, t.X)
		out = append(out, columnStats(t.Features[j], col))
	}

	quality := make([]float64, r)
	for i, q := range t.Quality {
		quality[i] = float64(q)
	}
	out = append(out, columnStats(QualityColumn, quality))
	return out
}

func columnStats(name string, values []float64) ColumnStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return ColumnStats{
		Column: name,
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Mean:   stat.Mean(values, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
		StdDev: stat.StdDev(values, nil),
	}
}
