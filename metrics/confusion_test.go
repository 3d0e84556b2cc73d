package metrics

import (
	"math"
	"strings"
	"testing"
)

func TestNewConfusionMatrix(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		wantTP  int
		wantTN  int
		wantFP  int
		wantFN  int
		wantErr bool
	}{
		{
			name:   "Perfect predictions",
			yTrue:  []int{0, 0, 1, 1},
			yPred:  []int{0, 0, 1, 1},
			wantTP: 2,
			wantTN: 2,
		},
		{
			name:   "Mixed predictions",
			yTrue:  []int{0, 0, 0, 1, 1, 1, 1},
			yPred:  []int{0, 1, 0, 1, 0, 1, 1},
			wantTP: 3,
			wantTN: 2,
			wantFP: 1,
			wantFN: 1,
		},
		{
			name:   "All wrong",
			yTrue:  []int{0, 1},
			yPred:  []int{1, 0},
			wantFP: 1,
			wantFN: 1,
		},
		{
			name:    "Empty labels",
			yTrue:   []int{},
			yPred:   []int{},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []int{0, 1, 1},
			yPred:   []int{0, 1},
			wantErr: true,
		},
		{
			name:    "Non-binary label",
			yTrue:   []int{0, 1, 5},
			yPred:   []int{0, 1, 1},
			wantErr: true,
		},
		{
			name:    "Non-binary prediction",
			yTrue:   []int{0, 1, 1},
			yPred:   []int{0, 1, 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, err := NewConfusionMatrix(tt.yTrue, tt.yPred)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if cm.TruePositive != tt.wantTP || cm.TrueNegative != tt.wantTN ||
				cm.FalsePositive != tt.wantFP || cm.FalseNegative != tt.wantFN {
				t.Errorf("counts = TP%d TN%d FP%d FN%d, want TP%d TN%d FP%d FN%d",
					cm.TruePositive, cm.TrueNegative, cm.FalsePositive, cm.FalseNegative,
					tt.wantTP, tt.wantTN, tt.wantFP, tt.wantFN)
			}
			if cm.Total() != len(tt.yTrue) {
				t.Errorf("Total() = %d, want %d", cm.Total(), len(tt.yTrue))
			}
		})
	}
}

func TestConfusionMatrixRates(t *testing.T) {
	yTrue := []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
	yPred := []int{0, 0, 0, 1, 1, 1, 1, 1, 0, 0}
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// TP=4 TN=3 FP=1 FN=2
	if got, want := cm.Accuracy(), 0.7; math.Abs(got-want) > 1e-9 {
		t.Errorf("Accuracy() = %f, want %f", got, want)
	}
	if got, want := cm.Sensitivity(), 4.0/6.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("Sensitivity() = %f, want %f", got, want)
	}
	if got, want := cm.Specificity(), 0.75; math.Abs(got-want) > 1e-9 {
		t.Errorf("Specificity() = %f, want %f", got, want)
	}
	if got, want := cm.Precision(), 0.8; math.Abs(got-want) > 1e-9 {
		t.Errorf("Precision() = %f, want %f", got, want)
	}
}

func TestConfusionMatrixDegenerateRates(t *testing.T) {
	// All-negative truth and predictions leave the positive rates undefined;
	// SafeDivide maps them to zero instead of NaN.
	cm, err := NewConfusionMatrix([]int{0, 0, 0}, []int{0, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cm.Sensitivity(); got != 0 {
		t.Errorf("Sensitivity() = %f, want 0", got)
	}
	if got := cm.Precision(); got != 0 {
		t.Errorf("Precision() = %f, want 0", got)
	}
	if got := cm.Accuracy(); got != 1 {
		t.Errorf("Accuracy() = %f, want 1", got)
	}
}

func TestConfusionMatrixString(t *testing.T) {
	cm, err := NewConfusionMatrix([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := cm.WithLabelNames("bad", "good").String()

	for _, want := range []string{"Reference", "Prediction", "bad", "good", "Accuracy"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
}
