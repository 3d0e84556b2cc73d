package modelselection

import (
	"math/rand/v2"
	"sort"
)

// Fold is one train/test assignment of row indices.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter generates cross-validation folds from integer class labels.
type Splitter interface {
	// Split returns the folds for a label vector of len(y) rows.
	Split(y []int) []Fold

	// NSplits returns the number of folds Split will produce.
	NSplits() int
}

// KFold splits rows into k consecutive folds, optionally after a seeded
// shuffle. Each fold serves as the test set exactly once.
type KFold struct {
	Splits     int
	Shuffle    bool
	RandomSeed int64
}

// NewKFold creates a k-fold splitter. Fewer than two splits falls back to
// the conventional five.
func NewKFold(splits int, shuffle bool, seed int64) *KFold {
	if splits < 2 {
		splits = 5
	}
	return &KFold{Splits: splits, Shuffle: shuffle, RandomSeed: seed}
}

// NSplits returns the number of folds.
func (kf *KFold) NSplits() int { return kf.Splits }

// Split generates train/test indices for each fold. When the row count does
// not divide evenly, the first folds receive one extra test row.
func (kf *KFold) Split(y []int) []Fold {
	n := len(y)

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.Splits)
	foldSize := n / kf.Splits
	remainder := n % kf.Splits

	cursor := 0
	for i := 0; i < kf.Splits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[cursor:cursor+testSize])
		cursor += testSize

		folds[i] = Fold{
			TrainIndices: complementOf(testIndices, n),
			TestIndices:  testIndices,
		}
	}
	return folds
}

// StratifiedKFold splits rows into k folds while preserving the label
// proportions of y in every fold.
type StratifiedKFold struct {
	Splits     int
	Shuffle    bool
	RandomSeed int64
}

// NewStratifiedKFold creates a stratified k-fold splitter. Fewer than two
// splits falls back to five.
func NewStratifiedKFold(splits int, shuffle bool, seed int64) *StratifiedKFold {
	if splits < 2 {
		splits = 5
	}
	return &StratifiedKFold{Splits: splits, Shuffle: shuffle, RandomSeed: seed}
}

// NSplits returns the number of folds.
func (skf *StratifiedKFold) NSplits() int { return skf.Splits }

// Split distributes each class across the folds separately, so every fold's
// test set carries close to the overall class proportions.
func (skf *StratifiedKFold) Split(y []int) []Fold {
	n := len(y)

	classIndices := make(map[int][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}
	labels := make([]int, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.Splits)
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.Splits
		remainder := nClass % skf.Splits

		cursor := 0
		for i := 0; i < skf.Splits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			folds[i].TestIndices = append(folds[i].TestIndices, indices[cursor:cursor+testSize]...)
			cursor += testSize
		}
	}

	for i := range folds {
		folds[i].TrainIndices = complementOf(folds[i].TestIndices, n)
	}
	return folds
}

// RepeatedStratifiedKFold runs stratified k-fold several times with distinct
// shuffle seeds, the resampling scheme of the tuning stage (10 folds, 3
// repeats in the walkthrough).
type RepeatedStratifiedKFold struct {
	Splits     int
	Repeats    int
	RandomSeed int64
}

// NewRepeatedStratifiedKFold creates a repeated stratified splitter. Fewer
// than two splits falls back to ten and fewer than one repeat to three.
func NewRepeatedStratifiedKFold(splits, repeats int, seed int64) *RepeatedStratifiedKFold {
	if splits < 2 {
		splits = 10
	}
	if repeats < 1 {
		repeats = 3
	}
	return &RepeatedStratifiedKFold{Splits: splits, Repeats: repeats, RandomSeed: seed}
}

// NSplits returns the total number of folds over all repeats.
func (rskf *RepeatedStratifiedKFold) NSplits() int { return rskf.Splits * rskf.Repeats }

// Split concatenates the folds of Repeats independent stratified rounds,
// each shuffled with its own seed.
func (rskf *RepeatedStratifiedKFold) Split(y []int) []Fold {
	folds := make([]Fold, 0, rskf.NSplits())
	for r := 0; r < rskf.Repeats; r++ {
		round := &StratifiedKFold{
			Splits:     rskf.Splits,
			Shuffle:    true,
			RandomSeed: rskf.RandomSeed + int64(r),
		}
		folds = append(folds, round.Split(y)...)
	}
	return folds
}

// complementOf returns all indices in [0, n) not present in taken, in
// ascending order.
func complementOf(taken []int, n int) []int {
	inTaken := make(map[int]bool, len(taken))
	for _, idx := range taken {
		inTaken[idx] = true
	}
	rest := make([]int, 0, n-len(taken))
	for i := 0; i < n; i++ {
		if !inTaken[i] {
			rest = append(rest, i)
		}
	}
	return rest
}
