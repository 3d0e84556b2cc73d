// Package plotting renders the walkthrough figures: the learning curve, the
// variable importance ranking and ROC curves. Every figure carries a title
// and labeled axes and nothing fancier. SavePNG writes them at a fixed size.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/oenolab/winequality/metrics"
	"github.com/oenolab/winequality/modelselection"
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// LearningCurvePlot draws train and holdout scores against training set
// size, one point per evaluated subset.
func LearningCurvePlot(result *modelselection.LearningCurveResult) (*plot.Plot, error) {
	if result == nil || len(result.Sizes) == 0 {
		return nil, errors.NewValueError("LearningCurvePlot", "no curve points to plot")
	}
	if len(result.TrainScores) != len(result.Sizes) || len(result.TestScores) != len(result.Sizes) {
		return nil, errors.NewDimensionError("LearningCurvePlot",
			len(result.Sizes), len(result.TrainScores), 0)
	}

	train := make(plotter.XYs, len(result.Sizes))
	holdout := make(plotter.XYs, len(result.Sizes))
	for i, size := range result.Sizes {
		train[i] = plotter.XY{X: float64(size), Y: result.TrainScores[i]}
		holdout[i] = plotter.XY{X: float64(size), Y: result.TestScores[i]}
	}

	p := plot.New()
	p.Title.Text = "Learning curve"
	p.X.Label.Text = "Training rows"
	p.Y.Label.Text = scoringLabel(result.Scoring)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLinePoints(p, "train", train, "holdout", holdout); err != nil {
		return nil, errors.Wrap(err, "failed to build learning curve lines")
	}
	return p, nil
}

// ImportancePlot draws the per-feature importances as bars, largest first.
func ImportancePlot(names []string, importances []float64) (*plot.Plot, error) {
	if len(importances) == 0 {
		return nil, errors.NewValueError("ImportancePlot", "no importances to plot")
	}
	if len(names) != len(importances) {
		return nil, errors.NewDimensionError("ImportancePlot", len(importances), len(names), 0)
	}

	order := make([]int, len(importances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return importances[order[a]] > importances[order[b]]
	})
	values := make(plotter.Values, len(order))
	labels := make([]string, len(order))
	for i, j := range order {
		values[i] = importances[j]
		labels[i] = names[j]
	}

	p := plot.New()
	p.Title.Text = "Variable importance"
	p.Y.Label.Text = "Importance"

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build importance bars")
	}
	bars.LineStyle.Width = 0
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return p, nil
}

// ROCPlot draws a ROC curve with the chance diagonal for reference. The AUC
// goes into the title.
func ROCPlot(curve *metrics.ROCCurve, auc float64) (*plot.Plot, error) {
	if curve == nil || len(curve.Points) == 0 {
		return nil, errors.NewValueError("ROCPlot", "no ROC points to plot")
	}

	xys := make(plotter.XYs, len(curve.Points))
	for i, pt := range curve.Points {
		xys[i] = plotter.XY{X: pt.FPR, Y: pt.TPR}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC curve (AUC = %.3f)", auc)
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build chance diagonal")
	}
	chance.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	chance.LineStyle.Color = color.Gray{Y: 128}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build ROC line")
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = plotutil.Color(0)

	p.Add(chance, line)
	p.Legend.Add("model", line)
	p.Legend.Add("chance", chance)
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// SavePNG writes a figure to path at 6x4 inches, creating parent directories
// as needed.
func SavePNG(p *plot.Plot, path string) error {
	if p == nil {
		return errors.NewValueError("SavePNG", "nil plot")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create plot directory")
		}
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot %s", path)
	}
	log.GetLoggerWithName("plotting").Debug("Plot saved", "path", path)
	return nil
}

func scoringLabel(scoring string) string {
	switch scoring {
	case modelselection.ScoringAUC:
		return "AUC"
	case modelselection.ScoringAccuracy:
		return "Accuracy"
	case modelselection.ScoringLogLoss:
		return "Log loss"
	default:
		return scoring
	}
}
