package metrics

import (
	"math"
	"sort"

	"github.com/oenolab/winequality/pkg/errors"
)

// ROCPoint is one operating point on a ROC curve. Threshold is the score at
// or above which a sample is called positive.
type ROCPoint struct {
	Threshold float64
	FPR       float64
	TPR       float64
}

// ROCCurve holds the operating points swept over decreasing score thresholds,
// from (0, 0) down to (1, 1).
type ROCCurve struct {
	Points    []ROCPoint
	NPositive int
	NNegative int
}

// ComputeROC builds the ROC curve for binary labels and continuous scores,
// where a higher score means more likely positive. Tied scores collapse into
// a single operating point. When only one class is present the curve
// degenerates to the chance diagonal and a warning is emitted.
func ComputeROC(yTrue []int, scores []float64) (*ROCCurve, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ComputeROC", "empty labels")
	}
	if len(scores) != len(yTrue) {
		return nil, errors.NewDimensionError("ComputeROC", len(yTrue), len(scores), 0)
	}

	curve := &ROCCurve{}
	for _, y := range yTrue {
		switch y {
		case 0:
			curve.NNegative++
		case 1:
			curve.NPositive++
		default:
			return nil, errors.NewValueError("ComputeROC", "labels must be binary (0 or 1)")
		}
	}

	if curve.NPositive == 0 || curve.NNegative == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(
			"ROC", "only one class present in y_true", 0.5))
		curve.Points = []ROCPoint{
			{Threshold: math.Inf(1), FPR: 0, TPR: 0},
			{Threshold: math.Inf(-1), FPR: 1, TPR: 1},
		}
		return curve, nil
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	curve.Points = append(curve.Points, ROCPoint{Threshold: math.Inf(1)})
	tp, fp := 0, 0
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			if yTrue[order[j]] == 1 {
				tp++
			} else {
				fp++
			}
			j++
		}
		curve.Points = append(curve.Points, ROCPoint{
			Threshold: scores[order[i]],
			FPR:       float64(fp) / float64(curve.NNegative),
			TPR:       float64(tp) / float64(curve.NPositive),
		})
		i = j
	}

	return curve, nil
}

// AUC integrates the curve with the trapezoidal rule. For curves produced by
// ComputeROC this matches the rank-based AUC estimator.
func (c *ROCCurve) AUC() float64 {
	if len(c.Points) < 2 {
		return 0.5
	}
	area := 0.0
	for i := 1; i < len(c.Points); i++ {
		dx := c.Points[i].FPR - c.Points[i-1].FPR
		area += dx * (c.Points[i].TPR + c.Points[i-1].TPR) / 2
	}
	return area
}
