package modelselection

import (
	"testing"
)

// assertFoldsCover checks that every index in [0, n) appears in exactly one
// test set and that each fold's train set is the exact complement.
func assertFoldsCover(t *testing.T, folds []Fold, n int) {
	t.Helper()
	testCounts := make(map[int]int, n)
	for i, fold := range folds {
		if len(fold.TrainIndices)+len(fold.TestIndices) != n {
			t.Errorf("fold %d holds %d indices, want %d",
				i, len(fold.TrainIndices)+len(fold.TestIndices), n)
		}
		inTest := make(map[int]bool, len(fold.TestIndices))
		for _, idx := range fold.TestIndices {
			testCounts[idx]++
			inTest[idx] = true
		}
		for _, idx := range fold.TrainIndices {
			if inTest[idx] {
				t.Errorf("fold %d: index %d in both train and test", i, idx)
			}
		}
	}
	if len(testCounts) != n {
		t.Fatalf("test sets cover %d distinct indices, want %d", len(testCounts), n)
	}
	for idx, count := range testCounts {
		if count != 1 {
			t.Errorf("index %d tested %d times, want once", idx, count)
		}
	}
}

func equalFolds(a, b []Fold) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i].TestIndices) != len(b[i].TestIndices) {
			return false
		}
		for j := range a[i].TestIndices {
			if a[i].TestIndices[j] != b[i].TestIndices[j] {
				return false
			}
		}
	}
	return true
}

func TestKFoldSplit(t *testing.T) {
	y := make([]int, 10)
	kf := NewKFold(5, false, 0)

	folds := kf.Split(y)
	if len(folds) != kf.NSplits() {
		t.Fatalf("len(folds) = %d, want %d", len(folds), kf.NSplits())
	}
	assertFoldsCover(t, folds, 10)

	// Without shuffling the folds are consecutive blocks.
	want := [][]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}, {8, 9}}
	for i, fold := range folds {
		if len(fold.TestIndices) != 2 {
			t.Errorf("fold %d test size = %d, want 2", i, len(fold.TestIndices))
			continue
		}
		if fold.TestIndices[0] != want[i][0] || fold.TestIndices[1] != want[i][1] {
			t.Errorf("fold %d test = %v, want %v", i, fold.TestIndices, want[i])
		}
	}
}

func TestKFoldRemainder(t *testing.T) {
	y := make([]int, 11)
	folds := NewKFold(5, false, 0).Split(y)

	wantSizes := []int{3, 2, 2, 2, 2}
	for i, fold := range folds {
		if len(fold.TestIndices) != wantSizes[i] {
			t.Errorf("fold %d test size = %d, want %d", i, len(fold.TestIndices), wantSizes[i])
		}
	}
	assertFoldsCover(t, folds, 11)
}

func TestKFoldShuffleReproducible(t *testing.T) {
	y := make([]int, 30)
	first := NewKFold(5, true, 3).Split(y)
	second := NewKFold(5, true, 3).Split(y)

	if !equalFolds(first, second) {
		t.Error("same seed produced different folds")
	}
	assertFoldsCover(t, first, 30)

	plain := NewKFold(5, false, 3).Split(y)
	if equalFolds(first, plain) {
		t.Error("shuffled folds match unshuffled folds")
	}
}

func TestStratifiedKFoldProportions(t *testing.T) {
	// 5 positives and 15 negatives over 5 folds: every test set gets
	// exactly 1 positive and 3 negatives.
	y := make([]int, 20)
	for i := 0; i < 5; i++ {
		y[i] = 1
	}

	skf := NewStratifiedKFold(5, false, 0)
	folds := skf.Split(y)
	if len(folds) != 5 {
		t.Fatalf("len(folds) = %d, want 5", len(folds))
	}
	assertFoldsCover(t, folds, 20)

	for i, fold := range folds {
		pos := countPositives(y, fold.TestIndices)
		if pos != 1 {
			t.Errorf("fold %d test positives = %d, want 1", i, pos)
		}
		if len(fold.TestIndices) != 4 {
			t.Errorf("fold %d test size = %d, want 4", i, len(fold.TestIndices))
		}
		if trainPos := countPositives(y, fold.TrainIndices); trainPos != 4 {
			t.Errorf("fold %d train positives = %d, want 4", i, trainPos)
		}
	}
}

func TestStratifiedKFoldUnevenClasses(t *testing.T) {
	// 7 positives over 3 folds: the first fold takes the extra one.
	y := make([]int, 22)
	for i := 0; i < 7; i++ {
		y[i] = 1
	}

	folds := NewStratifiedKFold(3, true, 9).Split(y)
	assertFoldsCover(t, folds, 22)

	wantPos := []int{3, 2, 2}
	for i, fold := range folds {
		if pos := countPositives(y, fold.TestIndices); pos != wantPos[i] {
			t.Errorf("fold %d test positives = %d, want %d", i, pos, wantPos[i])
		}
	}
}

func TestRepeatedStratifiedKFold(t *testing.T) {
	y := make([]int, 24)
	for i := 0; i < 12; i++ {
		y[i] = 1
	}

	rskf := NewRepeatedStratifiedKFold(3, 2, 5)
	if rskf.NSplits() != 6 {
		t.Fatalf("NSplits() = %d, want 6", rskf.NSplits())
	}

	folds := rskf.Split(y)
	if len(folds) != 6 {
		t.Fatalf("len(folds) = %d, want 6", len(folds))
	}

	// Each repeat is a complete stratified round on its own.
	assertFoldsCover(t, folds[:3], 24)
	assertFoldsCover(t, folds[3:], 24)

	for i, fold := range folds {
		if pos := countPositives(y, fold.TestIndices); pos != 4 {
			t.Errorf("fold %d test positives = %d, want 4", i, pos)
		}
	}

	again := rskf.Split(y)
	if !equalFolds(folds, again) {
		t.Error("repeated splitter is not deterministic for a fixed seed")
	}
}

func TestSplitterDefaults(t *testing.T) {
	if got := NewKFold(1, false, 0).NSplits(); got != 5 {
		t.Errorf("NewKFold(1).NSplits() = %d, want 5", got)
	}
	if got := NewStratifiedKFold(0, false, 0).NSplits(); got != 5 {
		t.Errorf("NewStratifiedKFold(0).NSplits() = %d, want 5", got)
	}
	rskf := NewRepeatedStratifiedKFold(0, 0, 1)
	if rskf.Splits != 10 || rskf.Repeats != 3 {
		t.Errorf("defaults = (%d, %d), want (10, 3)", rskf.Splits, rskf.Repeats)
	}
	if got := rskf.NSplits(); got != 30 {
		t.Errorf("NSplits() = %d, want 30", got)
	}
}
