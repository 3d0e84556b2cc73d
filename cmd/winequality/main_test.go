package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oenolab/winequality/metrics"
	"github.com/oenolab/winequality/modelselection"
	"github.com/oenolab/winequality/pipeline"
)

func TestFinalPolicy(t *testing.T) {
	tests := []struct {
		name string
		want pipeline.FinalModelPolicy
	}{
		{"best", pipeline.FinalBestValidation},
		{"best_validation", pipeline.FinalBestValidation},
		{"baseline", pipeline.FinalBaseline},
		{"tuned", pipeline.FinalTuned},
	}
	for _, tt := range tests {
		got, err := finalPolicy(tt.name)
		if err != nil {
			t.Fatalf("finalPolicy(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("finalPolicy(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if _, err := finalPolicy("newest"); err == nil {
		t.Error("finalPolicy(newest): expected error")
	}
}

func TestSetupLoggingRejectsBadValues(t *testing.T) {
	if err := setupLogging("console", "verbose"); err == nil {
		t.Error("expected error for unknown log level")
	}
	if err := setupLogging("xml", "info"); err == nil {
		t.Error("expected error for unknown log format")
	}
}

func evalReport(t *testing.T) *pipeline.EvalReport {
	t.Helper()
	curve, err := metrics.ComputeROC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
	if err != nil {
		t.Fatalf("ComputeROC: %v", err)
	}
	return &pipeline.EvalReport{ROC: curve, AUC: curve.AUC()}
}

func TestRenderFigures(t *testing.T) {
	eval := evalReport(t)
	report := &pipeline.Report{
		Features: []string{"fixed acidity", "volatile acidity", "citric acid"},
		Curve: &modelselection.LearningCurveResult{
			Sizes:       []int{50, 100, 200},
			TrainScores: []float64{0.95, 0.93, 0.92},
			TestScores:  []float64{0.78, 0.82, 0.85},
			Scoring:     modelselection.ScoringAUC,
		},
		Baseline: &pipeline.ModelReport{
			Importances: []float64{0.5, 0.3, 0.2},
			Validation:  eval,
		},
		Tuned: &pipeline.ModelReport{
			Importances: []float64{0.4, 0.4, 0.2},
			Validation:  eval,
		},
		Test: eval,
	}

	dir := t.TempDir()
	if err := renderFigures(report, dir); err != nil {
		t.Fatalf("renderFigures: %v", err)
	}
	for _, name := range []string{
		"learning_curve.png",
		"importance_baseline.png",
		"roc_validation_baseline.png",
		"importance_tuned.png",
		"roc_validation_tuned.png",
		"roc_test.png",
	} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing figure %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("figure %s is empty", name)
		}
	}
}

func TestRenderFiguresPartialReport(t *testing.T) {
	dir := t.TempDir()
	if err := renderFigures(&pipeline.Report{}, dir); err != nil {
		t.Fatalf("renderFigures on empty report: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no figures, got %d", len(entries))
	}
}
