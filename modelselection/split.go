// Package modelselection provides the resampling machinery for the
// walkthrough: the three-way train/validation/test partition, k-fold
// splitters, cross-validation, randomized hyperparameter search and the
// learning curve sweep.
//
// All randomness is seeded explicitly, so partitions, folds and searches
// reproduce exactly run to run.
package modelselection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// Partition holds the row indices of the three-way split. The three slices
// are pairwise disjoint and together cover every row exactly once.
type Partition struct {
	Train []int
	Val   []int
	Test  []int
}

// Sizes returns the number of rows in each partition.
func (p Partition) Sizes() (train, val, test int) {
	return len(p.Train), len(p.Val), len(p.Test)
}

// SplitOption configures TrainValTestSplit.
type SplitOption func(*splitConfig)

type splitConfig struct {
	seed     int64
	stratify bool
}

// WithSeed sets the shuffle seed. The default is 42.
func WithSeed(seed int64) SplitOption {
	return func(cfg *splitConfig) { cfg.seed = seed }
}

// WithStratify preserves the label proportions of y in each partition.
func WithStratify() SplitOption {
	return func(cfg *splitConfig) { cfg.stratify = true }
}

// TrainValTestSplit assigns every row index to exactly one of the three
// partitions using a single seeded shuffle. The fractions must all be
// positive and sum to 1; each resulting partition must be non-empty.
//
// The partition is computed once and reused by every later stage, so the
// test rows a model eventually sees are fixed before any training happens.
func TrainValTestSplit(y []int, train, val, test float64, opts ...SplitOption) (Partition, error) {
	cfg := splitConfig{seed: 42}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := len(y)
	if n == 0 {
		return Partition{}, errors.NewValueError("TrainValTestSplit", "y is empty")
	}
	if train <= 0 || val <= 0 || test <= 0 {
		return Partition{}, errors.NewValueError("TrainValTestSplit",
			"all fractions must be positive")
	}
	if sum := train + val + test; math.Abs(sum-1) > 1e-9 {
		return Partition{}, errors.NewValueError("TrainValTestSplit",
			fmt.Sprintf("fractions must sum to 1, got %.4f", sum))
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.seed), uint64(cfg.seed)))

	var parts [][]int
	if cfg.stratify {
		parts = stratifiedSlices(y, []float64{train, val}, rng)
	} else {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTrain := int(math.Round(train * float64(n)))
		nVal := int(math.Round(val * float64(n)))
		if nTrain+nVal > n {
			nVal = n - nTrain
		}
		parts = [][]int{
			indices[:nTrain],
			indices[nTrain : nTrain+nVal],
			indices[nTrain+nVal:],
		}
	}

	p := Partition{Train: parts[0], Val: parts[1], Test: parts[2]}
	for _, part := range []struct {
		name string
		rows []int
	}{{"train", p.Train}, {"validation", p.Val}, {"test", p.Test}} {
		if len(part.rows) == 0 {
			return Partition{}, errors.NewValueError("TrainValTestSplit",
				"the "+part.name+" partition is empty; not enough samples for the requested fractions")
		}
	}

	logger := log.GetLoggerWithName("modelselection.split")
	logger.Info("Dataset partitioned",
		log.OperationKey, log.OperationSplit,
		log.TrainSizeKey, len(p.Train),
		log.ValSizeKey, len(p.Val),
		log.TestSizeKey, len(p.Test),
		log.SeedKey, cfg.seed,
	)
	return p, nil
}

// stratifiedSlices splits the indices of y into len(fractions)+1 groups,
// allocating round(fraction*classSize) rows of every class to each of the
// leading groups and the remainder of every class to the last group. Each
// group is shuffled afterwards so no class ordering survives.
func stratifiedSlices(y []int, fractions []float64, rng *rand.Rand) [][]int {
	classIndices := make(map[int][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}
	labels := make([]int, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	parts := make([][]int, len(fractions)+1)
	for _, label := range labels {
		indices := classIndices[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		cursor := 0
		for g, fraction := range fractions {
			take := int(math.Round(fraction * float64(len(indices))))
			if cursor+take > len(indices) {
				take = len(indices) - cursor
			}
			parts[g] = append(parts[g], indices[cursor:cursor+take]...)
			cursor += take
		}
		parts[len(fractions)] = append(parts[len(fractions)], indices[cursor:]...)
	}

	for _, part := range parts {
		rng.Shuffle(len(part), func(i, j int) {
			part[i], part[j] = part[j], part[i]
		})
	}
	return parts
}
