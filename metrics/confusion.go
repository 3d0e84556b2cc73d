package metrics

import (
	"fmt"
	"strings"

	"github.com/oenolab/winequality/pkg/errors"
)

// ConfusionMatrix cross-tabulates predicted against observed binary labels.
// Class 1 is the positive class. Row and column sums always equal the number
// of scored samples.
type ConfusionMatrix struct {
	TruePositive  int
	TrueNegative  int
	FalsePositive int
	FalseNegative int

	// Display names for classes 0 and 1, used by String.
	NegativeName string
	PositiveName string
}

// NewConfusionMatrix tabulates predictions against reference labels.
func NewConfusionMatrix(yTrue, yPred []int) (*ConfusionMatrix, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("NewConfusionMatrix", "empty labels")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("NewConfusionMatrix", len(yTrue), len(yPred), 0)
	}

	cm := &ConfusionMatrix{NegativeName: "0", PositiveName: "1"}
	for i := range yTrue {
		if yTrue[i] != 0 && yTrue[i] != 1 {
			return nil, errors.NewValueError("NewConfusionMatrix", "labels must be binary (0 or 1)")
		}
		if yPred[i] != 0 && yPred[i] != 1 {
			return nil, errors.NewValueError("NewConfusionMatrix", "predictions must be binary (0 or 1)")
		}
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			cm.TruePositive++
		case yTrue[i] == 0 && yPred[i] == 0:
			cm.TrueNegative++
		case yTrue[i] == 0 && yPred[i] == 1:
			cm.FalsePositive++
		default:
			cm.FalseNegative++
		}
	}

	return cm, nil
}

// WithLabelNames sets the display names for classes 0 and 1.
func (cm *ConfusionMatrix) WithLabelNames(negative, positive string) *ConfusionMatrix {
	cm.NegativeName = negative
	cm.PositiveName = positive
	return cm
}

// Total returns the number of scored samples.
func (cm *ConfusionMatrix) Total() int {
	return cm.TruePositive + cm.TrueNegative + cm.FalsePositive + cm.FalseNegative
}

// Accuracy returns the fraction of correct predictions.
func (cm *ConfusionMatrix) Accuracy() float64 {
	return errors.SafeDivide(float64(cm.TruePositive+cm.TrueNegative), float64(cm.Total()))
}

// Sensitivity returns the true-positive rate TP/(TP+FN).
func (cm *ConfusionMatrix) Sensitivity() float64 {
	return errors.SafeDivide(float64(cm.TruePositive), float64(cm.TruePositive+cm.FalseNegative))
}

// Specificity returns the true-negative rate TN/(TN+FP).
func (cm *ConfusionMatrix) Specificity() float64 {
	return errors.SafeDivide(float64(cm.TrueNegative), float64(cm.TrueNegative+cm.FalsePositive))
}

// Precision returns TP/(TP+FP).
func (cm *ConfusionMatrix) Precision() float64 {
	return errors.SafeDivide(float64(cm.TruePositive), float64(cm.TruePositive+cm.FalsePositive))
}

// String renders the matrix with predictions as rows and reference labels as
// columns.
func (cm *ConfusionMatrix) String() string {
	w := len(cm.NegativeName)
	if len(cm.PositiveName) > w {
		w = len(cm.PositiveName)
	}
	for _, v := range []int{cm.TruePositive, cm.TrueNegative, cm.FalsePositive, cm.FalseNegative} {
		if d := len(fmt.Sprintf("%d", v)); d > w {
			w = d
		}
	}

	var b strings.Builder
	rowLabelW := len("Prediction")
	fmt.Fprintf(&b, "%*s  Reference\n", rowLabelW, "")
	fmt.Fprintf(&b, "%*s  %*s %*s\n", rowLabelW, "Prediction", w, cm.NegativeName, w, cm.PositiveName)
	fmt.Fprintf(&b, "%*s  %*d %*d\n", rowLabelW, cm.NegativeName, w, cm.TrueNegative, w, cm.FalseNegative)
	fmt.Fprintf(&b, "%*s  %*d %*d\n", rowLabelW, cm.PositiveName, w, cm.FalsePositive, w, cm.TruePositive)
	fmt.Fprintf(&b, "\nAccuracy: %.4f  Sensitivity: %.4f  Specificity: %.4f",
		cm.Accuracy(), cm.Sensitivity(), cm.Specificity())
	return b.String()
}
