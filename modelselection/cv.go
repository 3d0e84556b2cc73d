package modelselection

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/oenolab/winequality/core/model"
	"github.com/oenolab/winequality/metrics"
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// Scoring metrics accepted by CrossValidate and the search types.
const (
	ScoringAccuracy = "accuracy"
	ScoringAUC      = "auc"
	ScoringLogLoss  = "logloss"
)

// CVResult stores per-fold scores from one cross-validation run.
type CVResult struct {
	TrainScores []float64
	TestScores  []float64
	Scoring     string

	// BestFold indexes the fold with the best test score under the
	// direction of the scoring metric.
	BestFold  int
	BestScore float64
}

// GetMeanScore returns the mean test score across folds.
func (cv *CVResult) GetMeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0
	}
	sum := 0.0
	for _, score := range cv.TestScores {
		sum += score
	}
	return sum / float64(len(cv.TestScores))
}

// GetStdScore returns the sample standard deviation of the test scores.
func (cv *CVResult) GetStdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0
	}
	mean := cv.GetMeanScore()
	sumSq := 0.0
	for _, score := range cv.TestScores {
		diff := score - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.TestScores)-1))
}

// CrossValidate trains and scores a fresh classifier on every fold of the
// splitter. Folds run concurrently, one goroutine each; the factory must
// therefore return a new instance per call rather than a shared one.
func CrossValidate(factory func() model.Classifier, X mat.Matrix, y []int,
	splitter Splitter, scoring string) (*CVResult, error) {

	if factory == nil {
		return nil, errors.NewValueError("CrossValidate", "factory is nil")
	}
	if splitter == nil {
		return nil, errors.NewValueError("CrossValidate", "splitter is nil")
	}
	if len(y) == 0 {
		return nil, errors.NewValueError("CrossValidate", "y is empty")
	}
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, errors.NewDimensionError("CrossValidate", len(y), rows, 0)
	}
	if scoring == "" {
		scoring = ScoringAccuracy
	}
	if err := checkScoring("CrossValidate", scoring); err != nil {
		return nil, err
	}

	folds := splitter.Split(y)
	if len(folds) == 0 {
		return nil, errors.NewValueError("CrossValidate", "splitter produced no folds")
	}

	result := &CVResult{
		TrainScores: make([]float64, len(folds)),
		TestScores:  make([]float64, len(folds)),
		Scoring:     scoring,
	}

	var wg sync.WaitGroup
	errs := make([]error, len(folds))

	for foldIdx := range folds {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			fold := folds[idx]
			trainX, trainY := subsetRows(X, y, fold.TrainIndices)
			testX, testY := subsetRows(X, y, fold.TestIndices)

			clf := factory()
			if err := clf.Fit(trainX, trainY); err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d fit failed", idx)
				return
			}

			trainScore, err := scoreModel(clf, trainX, trainY, scoring)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d train scoring failed", idx)
				return
			}
			result.TrainScores[idx] = trainScore

			testScore, err := scoreModel(clf, testX, testY, scoring)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d test scoring failed", idx)
				return
			}
			result.TestScores[idx] = testScore
		}(foldIdx)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	result.BestScore = result.TestScores[0]
	for i := 1; i < len(result.TestScores); i++ {
		better := result.TestScores[i] > result.BestScore
		if lowerIsBetter(scoring) {
			better = result.TestScores[i] < result.BestScore
		}
		if better {
			result.BestScore = result.TestScores[i]
			result.BestFold = i
		}
	}

	logger := log.GetLoggerWithName("modelselection.cv")
	logger.Debug("Cross-validation complete",
		log.FoldsKey, len(folds),
		"scoring", scoring,
		"mean_score", result.GetMeanScore(),
		"std_score", result.GetStdScore(),
	)
	return result, nil
}

// scoreModel evaluates a fitted classifier on one index subset under the
// named scoring metric.
func scoreModel(clf model.Classifier, X *mat.Dense, y []int, scoring string) (float64, error) {
	switch scoring {
	case ScoringAccuracy:
		return clf.Score(X, y)

	case ScoringAUC:
		scores, err := positiveProbabilities(clf, X)
		if err != nil {
			return 0, err
		}
		return metrics.AUC(metrics.LabelVec(y), scores)

	case ScoringLogLoss:
		scores, err := positiveProbabilities(clf, X)
		if err != nil {
			return 0, err
		}
		return metrics.BinaryLogLoss(metrics.LabelVec(y), scores)

	default:
		return 0, errors.NewValueError("scoreModel", fmt.Sprintf("unknown scoring %q", scoring))
	}
}

// positiveProbabilities extracts the positive-class column of PredictProba
// as a vector.
func positiveProbabilities(clf model.Classifier, X mat.Matrix) (*mat.VecDense, error) {
	proba, err := clf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	scores := make([]float64, rows)
	for i := 0; i < rows; i++ {
		scores[i] = proba.At(i, 1)
	}
	return mat.NewVecDense(rows, scores), nil
}

// subsetRows copies the selected rows of X and y into fresh storage, sorted
// by index for sequential access.
func subsetRows(X mat.Matrix, y []int, indices []int) (*mat.Dense, []int) {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	_, cols := X.Dims()
	sub := mat.NewDense(len(sorted), cols, nil)
	labels := make([]int, len(sorted))
	for i, idx := range sorted {
		for j := 0; j < cols; j++ {
			sub.Set(i, j, X.At(idx, j))
		}
		labels[i] = y[idx]
	}
	return sub, labels
}

func checkScoring(op, scoring string) error {
	switch scoring {
	case ScoringAccuracy, ScoringAUC, ScoringLogLoss:
		return nil
	}
	return errors.NewValueError(op, fmt.Sprintf("unknown scoring %q", scoring))
}

// lowerIsBetter reports whether the metric is a loss.
func lowerIsBetter(scoring string) bool {
	return scoring == ScoringLogLoss
}
