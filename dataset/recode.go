package dataset

import (
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// DefaultGoodMin is the quality score at which a wine counts as good. The
// source data scores 0-10 with observed values 3-9; splitting at 6 puts
// quality 5 (the most common score) in the bad class and keeps the two
// classes near balance.
const DefaultGoodMin = 6

// DefaultLabelNames names classes 0 and 1 for reports and confusion tables.
var DefaultLabelNames = [2]string{"bad", "good"}

// A minority share below this fraction triggers a ClassImbalanceWarning.
const imbalanceWarnFraction = 0.2

// RecodeRule fixes the binary cut on the quality scale. Every score at or
// above GoodMin becomes good (1), everything below becomes bad (0).
type RecodeRule struct {
	GoodMin int
}

// DefaultRule returns the standard cut at quality 6.
func DefaultRule() RecodeRule {
	return RecodeRule{GoodMin: DefaultGoodMin}
}

// Recode converts quality scores into binary labels under the given rule and
// drops the quality column. The row order and count are preserved. A skewed
// label distribution is reported as a warning, not an error.
func (t *Table) Recode(rule RecodeRule) (*Dataset, error) {
	if rule.GoodMin < 1 || rule.GoodMin > 10 {
		return nil, errors.NewValidationError("good_min",
			"must be within the 1-10 quality scale", rule.GoodMin)
	}

	labels := make([]int, len(t.Quality))
	for i, q := range t.Quality {
		if q >= rule.GoodMin {
			labels[i] = 1
		}
	}

	ds := &Dataset{
		X:          t.X,
		Labels:     labels,
		LabelNames: DefaultLabelNames,
		Features:   t.Features,
	}

	negative, positive := ds.LabelCounts()
	log.GetLoggerWithName("dataset.recode").Info("Quality recoded to binary labels",
		"good_min", rule.GoodMin,
		log.NegativeCountKey, negative,
		log.PositiveCountKey, positive)

	minority := positive
	if negative < positive {
		minority = negative
	}
	if frac := float64(minority) / float64(len(labels)); frac < imbalanceWarnFraction {
		errors.Warn(errors.NewClassImbalanceWarning(positive, negative))
	}

	return ds, nil
}
