package modelselection

import (
	"math"
	"testing"
)

func TestLearningCurve(t *testing.T) {
	X, y := thresholdData(80)
	cfg := LearningCurveConfig{
		Fractions:    []float64{0.25, 0.5, 1.0},
		EvalFraction: 0.25,
		Scoring:      ScoringAUC,
		Seed:         3,
	}

	result, err := LearningCurve(ruleFactory, X, y, cfg)
	if err != nil {
		t.Fatalf("LearningCurve() error = %v", err)
	}

	if len(result.Sizes) != 3 || len(result.TrainScores) != 3 || len(result.TestScores) != 3 {
		t.Fatalf("point counts = (%d, %d, %d), want 3 each",
			len(result.Sizes), len(result.TrainScores), len(result.TestScores))
	}

	// 25% stratified holdout of 80 rows leaves a pool of 60.
	wantSizes := []int{15, 30, 60}
	for i, size := range result.Sizes {
		if size != wantSizes[i] {
			t.Errorf("Sizes[%d] = %d, want %d", i, size, wantSizes[i])
		}
	}
	for i := 1; i < len(result.Sizes); i++ {
		if result.Sizes[i] <= result.Sizes[i-1] {
			t.Errorf("sizes not increasing at %d: %v", i, result.Sizes)
		}
	}

	// The rule is perfect regardless of training size, so the holdout
	// curve is flat at 1.
	for i, score := range result.TestScores {
		if math.Abs(score-1.0) > 1e-12 {
			t.Errorf("TestScores[%d] = %v, want 1.0", i, score)
		}
	}
	for i, score := range result.TrainScores {
		if score < 0 || score > 1 {
			t.Errorf("TrainScores[%d] = %v, outside [0, 1]", i, score)
		}
	}
	if result.Scoring != ScoringAUC {
		t.Errorf("Scoring = %q, want %q", result.Scoring, ScoringAUC)
	}
}

func TestLearningCurveZeroConfig(t *testing.T) {
	X, y := thresholdData(100)

	result, err := LearningCurve(ruleFactory, X, y, LearningCurveConfig{})
	if err != nil {
		t.Fatalf("LearningCurve() error = %v", err)
	}
	if len(result.Sizes) != 10 {
		t.Errorf("len(Sizes) = %d with default fractions, want 10", len(result.Sizes))
	}
	if result.Scoring != ScoringAUC {
		t.Errorf("Scoring = %q, want the AUC default", result.Scoring)
	}
	// Default 25% holdout takes 12 rows of each 50-row class (37.5 rounds
	// up), leaving a 76-row pool.
	if last := result.Sizes[len(result.Sizes)-1]; last != 76 {
		t.Errorf("largest size = %d, want 76", last)
	}
}

func TestLearningCurveReproducible(t *testing.T) {
	X, y := thresholdData(60)
	cfg := LearningCurveConfig{
		Fractions:    []float64{0.5, 1.0},
		EvalFraction: 0.2,
		Scoring:      ScoringAccuracy,
		Seed:         9,
	}

	first, err := LearningCurve(ruleFactory, X, y, cfg)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	second, err := LearningCurve(ruleFactory, X, y, cfg)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}

	for i := range first.Sizes {
		if first.Sizes[i] != second.Sizes[i] {
			t.Errorf("Sizes[%d] = %d vs %d with the same seed", i, first.Sizes[i], second.Sizes[i])
		}
		if first.TestScores[i] != second.TestScores[i] {
			t.Errorf("TestScores[%d] = %v vs %v", i, first.TestScores[i], second.TestScores[i])
		}
	}
}

func TestLearningCurveErrors(t *testing.T) {
	X, y := thresholdData(40)

	tests := []struct {
		name string
		cfg  LearningCurveConfig
	}{
		{"Zero fraction", LearningCurveConfig{Fractions: []float64{0, 0.5}, EvalFraction: 0.25}},
		{"Fraction above one", LearningCurveConfig{Fractions: []float64{0.5, 1.2}, EvalFraction: 0.25}},
		{"Negative holdout", LearningCurveConfig{Fractions: []float64{0.5}, EvalFraction: -0.1}},
		{"Full holdout", LearningCurveConfig{Fractions: []float64{0.5}, EvalFraction: 1.0}},
		{"Unknown scoring", LearningCurveConfig{Fractions: []float64{0.5}, EvalFraction: 0.25, Scoring: "f1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LearningCurve(ruleFactory, X, y, tt.cfg); err == nil {
				t.Error("LearningCurve() expected error, got nil")
			}
		})
	}

	if _, err := LearningCurve(nil, X, y, LearningCurveConfig{}); err == nil {
		t.Error("expected error for nil factory")
	}
	if _, err := LearningCurve(ruleFactory, X, nil, LearningCurveConfig{}); err == nil {
		t.Error("expected error for empty labels")
	}
	if _, err := LearningCurve(ruleFactory, X, y[:10], LearningCurveConfig{}); err == nil {
		t.Error("expected error for mismatched rows")
	}
}
