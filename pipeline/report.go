package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oenolab/winequality/dataset"
	"github.com/oenolab/winequality/metrics"
	"github.com/oenolab/winequality/modelselection"
)

// EvalReport scores one model on one partition.
type EvalReport struct {
	Matrix *metrics.ConfusionMatrix
	ROC    *metrics.ROCCurve
	AUC    float64
}

// ModelReport collects what the walkthrough shows for one fitted model. The
// training matrix is only present for the baseline fit.
type ModelReport struct {
	Params      map[string]interface{}
	Importances []float64
	Train       *metrics.ConfusionMatrix
	Validation  *EvalReport
}

// Report accumulates the walkthrough outputs stage by stage. Fields stay nil
// or zero until their stage has run, so a partial report renders cleanly.
type Report struct {
	RunID     string
	CreatedAt time.Time
	Learner   string
	Seed      int64

	Source   string
	Rows     int
	Features []string

	GoodMin       int
	LabelNames    [2]string
	NegativeCount int
	PositiveCount int

	Summary []dataset.ColumnStats
	NZV     []dataset.NZVReport

	TrainSize int
	ValSize   int
	TestSize  int

	Curve *modelselection.LearningCurveResult

	Baseline *ModelReport
	Tuned    *ModelReport
	Search   *SearchSummary

	Policy      string
	FinalChoice string
	Test        *EvalReport
}

func newReport(learner string, seed int64) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Learner:   learner,
		Seed:      seed,
	}
}

// String renders the report as the walkthrough narrative: data summary,
// learning curve, partition, baseline, search, tuned model and the final
// test, in the order the stages ran.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Red wine quality walkthrough (run %s)\n", r.RunID)
	fmt.Fprintf(&b, "Learner: %s  Seed: %d\n", r.Learner, r.Seed)

	if r.Rows > 0 {
		fmt.Fprintf(&b, "\n== Data ==\n")
		fmt.Fprintf(&b, "%d rows, %d predictors from %s\n", r.Rows, len(r.Features), r.Source)
	}
	if r.NegativeCount+r.PositiveCount > 0 {
		fmt.Fprintf(&b, "Labels (quality >= %d is %s): %s=%d %s=%d\n",
			r.GoodMin, r.LabelNames[1],
			r.LabelNames[0], r.NegativeCount,
			r.LabelNames[1], r.PositiveCount)
	}
	if len(r.Summary) > 0 {
		fmt.Fprintf(&b, "\nColumn summary:\n")
		for _, s := range r.Summary {
			fmt.Fprintf(&b, "  %s\n", s)
		}
	}
	if r.NZV != nil {
		if flagged := dataset.FlaggedColumns(r.NZV); len(flagged) > 0 {
			fmt.Fprintf(&b, "\nNear-zero variance predictors: %s\n", strings.Join(flagged, ", "))
		} else {
			fmt.Fprintf(&b, "\nNear-zero variance predictors: none\n")
		}
	}

	if r.Curve != nil {
		fmt.Fprintf(&b, "\n== Learning curve (%s by training size) ==\n", r.Curve.Scoring)
		fmt.Fprintf(&b, "  %8s %10s %10s\n", "size", "train", "holdout")
		for i, size := range r.Curve.Sizes {
			fmt.Fprintf(&b, "  %8d %10.4f %10.4f\n",
				size, r.Curve.TrainScores[i], r.Curve.TestScores[i])
		}
	}

	if r.TrainSize > 0 {
		fmt.Fprintf(&b, "\n== Partition ==\n")
		fmt.Fprintf(&b, "train=%d validation=%d test=%d\n", r.TrainSize, r.ValSize, r.TestSize)
	}

	if r.Baseline != nil {
		r.writeModel(&b, "Baseline model", r.Baseline)
	}

	if r.Search != nil {
		fmt.Fprintf(&b, "\n== Random search (%d candidates, scoring %s) ==\n",
			r.Search.Candidates, r.Search.Scoring)
		for rank, idx := range scoreOrder(r.Search.Results) {
			res := r.Search.Results[idx]
			fmt.Fprintf(&b, "  %2d. %s  mean=%.4f sd=%.4f\n",
				rank+1, formatParams(res.Params), res.MeanScore, res.StdScore)
		}
		fmt.Fprintf(&b, "Best: %s  %s=%.4f\n",
			formatParams(r.Search.BestParams), r.Search.Scoring, r.Search.BestScore)
	}

	if r.Tuned != nil {
		r.writeModel(&b, "Tuned model", r.Tuned)
	}

	if r.Test != nil {
		fmt.Fprintf(&b, "\n== Final test ==\n")
		fmt.Fprintf(&b, "Model: %s (policy %s)\n", r.FinalChoice, r.Policy)
		fmt.Fprintf(&b, "Test confusion matrix:\n%s\n", indent(r.Test.Matrix.String()))
		fmt.Fprintf(&b, "Test AUC: %.4f\n", r.Test.AUC)
	}

	return b.String()
}

func (r *Report) writeModel(b *strings.Builder, title string, m *ModelReport) {
	fmt.Fprintf(b, "\n== %s ==\n", title)
	if len(m.Params) > 0 {
		fmt.Fprintf(b, "Parameters: %s\n", formatParams(m.Params))
	}
	if len(m.Importances) > 0 {
		fmt.Fprintf(b, "Variable importance:\n")
		for _, j := range importanceOrder(m.Importances) {
			name := fmt.Sprintf("feature %d", j)
			if j < len(r.Features) {
				name = r.Features[j]
			}
			fmt.Fprintf(b, "  %-22s %.4f\n", name, m.Importances[j])
		}
	}
	if m.Train != nil {
		fmt.Fprintf(b, "Training confusion matrix:\n%s\n", indent(m.Train.String()))
	}
	if m.Validation != nil {
		fmt.Fprintf(b, "Validation confusion matrix:\n%s\n", indent(m.Validation.Matrix.String()))
		fmt.Fprintf(b, "Validation AUC: %.4f\n", m.Validation.AUC)
	}
}

// importanceOrder returns column indices sorted by importance, largest first.
func importanceOrder(importances []float64) []int {
	order := make([]int, len(importances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return importances[order[a]] > importances[order[b]]
	})
	return order
}

// scoreOrder returns result indices sorted by mean score, best first.
func scoreOrder(results []modelselection.SearchResult) []int {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].MeanScore > results[order[b]].MeanScore
	})
	return order
}

func formatParams(params map[string]interface{}) string {
	if len(params) == 0 {
		return "(defaults)"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(parts, " ")
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

func labeledMatrix(yTrue, yPred []int, names [2]string) (*metrics.ConfusionMatrix, error) {
	cm, err := metrics.NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	return cm.WithLabelNames(names[0], names[1]), nil
}
