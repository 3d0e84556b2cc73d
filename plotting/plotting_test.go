package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oenolab/winequality/metrics"
	"github.com/oenolab/winequality/modelselection"
)

func curveResult() *modelselection.LearningCurveResult {
	return &modelselection.LearningCurveResult{
		Sizes:       []int{50, 100, 150},
		TrainScores: []float64{0.99, 0.98, 0.97},
		TestScores:  []float64{0.80, 0.85, 0.88},
		Scoring:     modelselection.ScoringAUC,
	}
}

func TestLearningCurvePlot(t *testing.T) {
	p, err := LearningCurvePlot(curveResult())
	if err != nil {
		t.Fatalf("LearningCurvePlot failed: %v", err)
	}
	if p.Title.Text != "Learning curve" {
		t.Errorf("title = %q", p.Title.Text)
	}
	if p.X.Label.Text != "Training rows" {
		t.Errorf("x label = %q", p.X.Label.Text)
	}
	if p.Y.Label.Text != "AUC" {
		t.Errorf("y label = %q", p.Y.Label.Text)
	}
}

func TestLearningCurvePlotErrors(t *testing.T) {
	if _, err := LearningCurvePlot(nil); err == nil {
		t.Error("expected error for nil result")
	}
	bad := curveResult()
	bad.TrainScores = bad.TrainScores[:2]
	if _, err := LearningCurvePlot(bad); err == nil {
		t.Error("expected error for mismatched scores")
	}
}

func TestImportancePlot(t *testing.T) {
	names := []string{"alcohol", "sulphates", "pH"}
	p, err := ImportancePlot(names, []float64{0.5, 0.3, 0.2})
	if err != nil {
		t.Fatalf("ImportancePlot failed: %v", err)
	}
	if p.Title.Text != "Variable importance" {
		t.Errorf("title = %q", p.Title.Text)
	}
}

func TestImportancePlotErrors(t *testing.T) {
	if _, err := ImportancePlot(nil, nil); err == nil {
		t.Error("expected error for empty importances")
	}
	if _, err := ImportancePlot([]string{"a"}, []float64{0.5, 0.5}); err == nil {
		t.Error("expected error for mismatched names")
	}
}

func TestROCPlot(t *testing.T) {
	curve, err := metrics.ComputeROC([]int{1, 1, 0, 0}, []float64{0.9, 0.8, 0.2, 0.1})
	if err != nil {
		t.Fatalf("ComputeROC failed: %v", err)
	}
	p, err := ROCPlot(curve, curve.AUC())
	if err != nil {
		t.Fatalf("ROCPlot failed: %v", err)
	}
	if p.Title.Text != "ROC curve (AUC = 1.000)" {
		t.Errorf("title = %q", p.Title.Text)
	}
	if p.X.Label.Text != "False positive rate" {
		t.Errorf("x label = %q", p.X.Label.Text)
	}
}

func TestROCPlotNilCurve(t *testing.T) {
	if _, err := ROCPlot(nil, 0.5); err == nil {
		t.Error("expected error for nil curve")
	}
}

func TestSavePNG(t *testing.T) {
	p, err := ImportancePlot([]string{"alcohol", "pH"}, []float64{0.7, 0.3})
	if err != nil {
		t.Fatalf("ImportancePlot failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "plots", "importance.png")
	if err := SavePNG(p, path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("saved plot missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("saved plot is empty")
	}
}

func TestSavePNGNilPlot(t *testing.T) {
	if err := SavePNG(nil, "x.png"); err == nil {
		t.Error("expected error for nil plot")
	}
}
