package modelselection

import (
	"fmt"
	"math"
	"testing"

	"github.com/oenolab/winequality/core/model"
)

func ruleFactory() model.Classifier { return newRuleClassifier() }

func TestRandomizedSearchFindsBestCut(t *testing.T) {
	X, y := thresholdData(60)
	grid := ParamGrid{"cut": {0.2, 0.5, 0.8}}

	search := NewRandomizedSearchCV(ruleFactory, grid, 10, NewStratifiedKFold(4, true, 1))
	if err := search.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Three combinations fit inside the budget, so all are evaluated.
	results := search.Results()
	if len(results) != 3 {
		t.Fatalf("len(Results()) = %d, want 3", len(results))
	}
	for i, res := range results {
		if res.MeanScore < 0 || res.MeanScore > 1 {
			t.Errorf("result %d mean AUC = %v, outside [0, 1]", i, res.MeanScore)
		}
		if _, ok := res.Params["cut"]; !ok {
			t.Errorf("result %d has no cut parameter", i)
		}
	}

	if got := search.BestParams()["cut"]; got != 0.5 {
		t.Errorf("BestParams()[cut] = %v, want 0.5", got)
	}
	if math.Abs(search.BestScore()-1.0) > 1e-12 {
		t.Errorf("BestScore() = %v, want 1.0", search.BestScore())
	}

	best := search.BestModel()
	if best == nil {
		t.Fatal("BestModel() = nil after Fit")
	}
	if !best.IsFitted() {
		t.Error("best model was not refit on the full data")
	}
}

func TestRandomizedSearchBounded(t *testing.T) {
	X, y := thresholdData(40)
	grid := ParamGrid{
		"cut":        {0.1, 0.3, 0.5, 0.7, 0.9},
		"confidence": {0.6, 0.7, 0.8, 0.9},
	}

	search := NewRandomizedSearchCV(ruleFactory, grid, 6, NewStratifiedKFold(3, true, 2)).
		WithSeed(11)
	if err := search.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	results := search.Results()
	if len(results) != 6 {
		t.Fatalf("len(Results()) = %d, want 6", len(results))
	}

	seen := make(map[string]bool, len(results))
	for _, res := range results {
		key := fmt.Sprintf("%v|%v", res.Params["cut"], res.Params["confidence"])
		if seen[key] {
			t.Errorf("duplicate candidate %s", key)
		}
		seen[key] = true
	}
}

func TestRandomizedSearchReproducible(t *testing.T) {
	X, y := thresholdData(40)
	grid := ParamGrid{
		"cut":        {0.1, 0.3, 0.5, 0.7, 0.9},
		"confidence": {0.6, 0.7, 0.8, 0.9},
	}

	run := func() []SearchResult {
		search := NewRandomizedSearchCV(ruleFactory, grid, 5, NewStratifiedKFold(3, true, 2)).
			WithSeed(7)
		if err := search.Fit(X, y); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		return search.Results()
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		for _, key := range []string{"cut", "confidence"} {
			if first[i].Params[key] != second[i].Params[key] {
				t.Errorf("candidate %d %s = %v vs %v with the same seed",
					i, key, first[i].Params[key], second[i].Params[key])
			}
		}
		if first[i].MeanScore != second[i].MeanScore {
			t.Errorf("candidate %d mean = %v vs %v", i, first[i].MeanScore, second[i].MeanScore)
		}
	}
}

func TestRandomizedSearchLogLossDirection(t *testing.T) {
	X, y := thresholdData(60)
	grid := ParamGrid{"cut": {0.5, 0.9}}

	// Under a loss the better candidate is the one with the lower mean.
	search := NewRandomizedSearchCV(ruleFactory, grid, 10, NewStratifiedKFold(4, true, 3)).
		WithScoring(ScoringLogLoss)
	if err := search.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got := search.BestParams()["cut"]; got != 0.5 {
		t.Errorf("BestParams()[cut] = %v, want 0.5", got)
	}
}

func TestRandomizedSearchAccessorsBeforeFit(t *testing.T) {
	search := NewRandomizedSearchCV(ruleFactory, ParamGrid{"cut": {0.5}}, 3, nil)
	if search.BestModel() != nil {
		t.Error("BestModel() should be nil before Fit")
	}
	if search.BestParams() != nil {
		t.Error("BestParams() should be nil before Fit")
	}
	if search.BestScore() != 0 {
		t.Errorf("BestScore() = %v before Fit, want 0", search.BestScore())
	}
	if len(search.Results()) != 0 {
		t.Error("Results() should be empty before Fit")
	}
}

func TestRandomizedSearchErrors(t *testing.T) {
	X, y := thresholdData(20)
	splitter := NewStratifiedKFold(2, true, 1)

	tests := []struct {
		name    string
		factory func() model.Classifier
		grid    ParamGrid
		scoring string
	}{
		{"Nil factory", nil, ParamGrid{"cut": {0.5}}, ScoringAUC},
		{"Empty grid", ruleFactory, ParamGrid{}, ScoringAUC},
		{"Empty values", ruleFactory, ParamGrid{"cut": {}}, ScoringAUC},
		{"Unknown parameter", ruleFactory, ParamGrid{"bogus": {1}}, ScoringAUC},
		{"Unknown scoring", ruleFactory, ParamGrid{"cut": {0.5}}, "rmse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := NewRandomizedSearchCV(tt.factory, tt.grid, 4, splitter).
				WithScoring(tt.scoring)
			if err := search.Fit(X, y); err == nil {
				t.Error("Fit() expected error, got nil")
			}
		})
	}
}
