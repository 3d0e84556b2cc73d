package dataset

import (
	"fmt"
	"math"

	"github.com/oenolab/winequality/pkg/errors"
)

// CheckMissing scans every predictor cell and fails on the first NaN or Inf.
// The pipeline treats any missing value as unrecoverable.
func (t *Table) CheckMissing() error {
	r, c := t.X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := t.X.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewValueError("CheckMissing",
					fmt.Sprintf("missing or non-finite value in column %q at row %d", t.Features[j], i))
			}
		}
	}
	return nil
}

// NZVConfig holds the near-zero-variance cutoffs. The defaults follow the
// caret convention: flag a predictor when its two most common values occur at
// a ratio above 19 (roughly 95/5) and under 10 percent of its values are
// distinct.
type NZVConfig struct {
	FreqCutoff   float64
	UniqueCutoff float64
}

// DefaultNZVConfig returns the caret-style cutoffs.
func DefaultNZVConfig() NZVConfig {
	return NZVConfig{FreqCutoff: 19, UniqueCutoff: 10}
}

// NZVReport diagnoses one predictor column. A constant column sets ZeroVar
// and is always flagged.
type NZVReport struct {
	Column        string
	FreqRatio     float64
	PercentUnique float64
	ZeroVar       bool
	Flagged       bool
}

// NearZeroVariance diagnoses every predictor for degenerate distributions.
// Flagged columns carry almost no information and would destabilize
// resampling-based estimates.
func (t *Table) NearZeroVariance(cfg NZVConfig) []NZVReport {
	r, c := t.X.Dims()
	reports := make([]NZVReport, 0, c)
	for j := 0; j < c; j++ {
		counts := make(map[float64]int)
		for i := 0; i < r; i++ {
			counts[t.X.At(i, j)]++
		}

		first, second := 0, 0
		for _, n := range counts {
			switch {
			case n > first:
				first, second = n, first
			case n > second:
				second = n
			}
		}

		rep := NZVReport{
			Column:        t.Features[j],
			PercentUnique: 100 * float64(len(counts)) / float64(r),
		}
		if len(counts) <= 1 {
			rep.ZeroVar = true
			rep.Flagged = true
		} else {
			rep.FreqRatio = float64(first) / float64(second)
			rep.Flagged = rep.FreqRatio > cfg.FreqCutoff && rep.PercentUnique < cfg.UniqueCutoff
		}
		reports = append(reports, rep)
	}
	return reports
}

// FlaggedColumns filters a NearZeroVariance result down to the offenders.
func FlaggedColumns(reports []NZVReport) []string {
	var flagged []string
	for _, rep := range reports {
		if rep.Flagged {
			flagged = append(flagged, rep.Column)
		}
	}
	return flagged
}
