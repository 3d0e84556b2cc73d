package ensemble

import (
	"time"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/mat"

	"github.com/oenolab/winequality/core/model"
	"github.com/oenolab/winequality/core/parallel"
	"github.com/oenolab/winequality/metrics"
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// GradientBoostingClassifier fits shallow regression trees to the logistic
// loss gradient, one stage at a time. Scores are additive log-odds starting
// from the base rate; probabilities come out through the sigmoid.
type GradientBoostingClassifier struct {
	state *model.StateManager

	// Hyperparameters
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinChildSamples int
	RegLambda       float64
	Subsample       float64
	RandomState     int64

	// Fitted state
	trees        []Tree
	initScore_   float64
	classes_     []int
	nFeatures_   int
	importances_ []float64
}

// NewGradientBoostingClassifier creates a boosting classifier with the
// standard defaults: 100 stages of depth-3 trees at learning rate 0.1.
func NewGradientBoostingClassifier() *GradientBoostingClassifier {
	return &GradientBoostingClassifier{
		state:           model.NewStateManager(),
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinChildSamples: 20,
		RegLambda:       1.0,
		Subsample:       1.0,
		RandomState:     42,
	}
}

// WithNEstimators sets the number of boosting stages.
func (gb *GradientBoostingClassifier) WithNEstimators(n int) *GradientBoostingClassifier {
	gb.NEstimators = n
	return gb
}

// WithLearningRate sets the shrinkage applied to each stage.
func (gb *GradientBoostingClassifier) WithLearningRate(lr float64) *GradientBoostingClassifier {
	gb.LearningRate = lr
	return gb
}

// WithMaxDepth sets the depth of each stage's tree.
func (gb *GradientBoostingClassifier) WithMaxDepth(d int) *GradientBoostingClassifier {
	gb.MaxDepth = d
	return gb
}

// WithMinChildSamples sets the minimum samples per leaf.
func (gb *GradientBoostingClassifier) WithMinChildSamples(n int) *GradientBoostingClassifier {
	gb.MinChildSamples = n
	return gb
}

// WithSubsample sets the fraction of rows drawn for each stage.
func (gb *GradientBoostingClassifier) WithSubsample(fraction float64) *GradientBoostingClassifier {
	gb.Subsample = fraction
	return gb
}

// WithRandomState sets the random seed.
func (gb *GradientBoostingClassifier) WithRandomState(seed int64) *GradientBoostingClassifier {
	gb.RandomState = seed
	return gb
}

// Fit trains the boosting ensemble on binary labels.
func (gb *GradientBoostingClassifier) Fit(X mat.Matrix, y []int) (err error) {
	defer errors.Recover(&err, "GradientBoostingClassifier.Fit")

	rows, cols := X.Dims()
	if rows == 0 {
		return errors.NewValueError("Fit", "empty training data")
	}
	if len(y) != rows {
		return errors.NewDimensionError("Fit", rows, len(y), 0)
	}
	classes, err := binaryClasses(y)
	if err != nil {
		return err
	}
	if gb.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", gb.NEstimators)
	}
	if gb.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", gb.LearningRate)
	}

	xDense := toDense(X)
	cfg := treeConfig{
		maxDepth:        gb.MaxDepth,
		minSamplesSplit: 2 * gb.MinChildSamples,
		minSamplesLeaf:  gb.MinChildSamples,
		lambda:          gb.RegLambda,
		minGain:         1e-7,
	}

	logger := log.GetLoggerWithName("ensemble.boosting")
	logger.Info("Training gradient boosting",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		"n_estimators", gb.NEstimators,
		"learning_rate", gb.LearningRate)
	start := time.Now()

	// Base score is the log-odds of the positive rate.
	positives := 0
	for _, label := range y {
		positives += label
	}
	p := errors.ClipValue(float64(positives)/float64(rows), 1e-15, 1-1e-15)
	gb.initScore_ = errors.StabilizeLog(p) - errors.StabilizeLog(1-p)

	raw := make([]float64, rows)
	for i := range raw {
		raw[i] = gb.initScore_
	}
	grad := make([]float64, rows)
	hess := make([]float64, rows)
	features := make([]float64, cols)

	trees := make([]Tree, 0, gb.NEstimators)
	for iter := 0; iter < gb.NEstimators; iter++ {
		for i := 0; i < rows; i++ {
			prob := sigmoid(raw[i])
			grad[i] = prob - float64(y[i])
			hess[i] = prob * (1 - prob)
		}

		s := newSampler(gb.RandomState + int64(iter))
		indices := s.subsample(rows, gb.Subsample)

		tree := growGradientTree(xDense, grad, hess, indices, cfg, gb.LearningRate)
		tree.TreeIndex = iter
		trees = append(trees, tree)

		for i := 0; i < rows; i++ {
			matRow(features, xDense, i)
			raw[i] += tree.Predict(features)
		}
		if err := errors.CheckScalar("GradientBoostingClassifier.Fit", raw[0], iter); err != nil {
			return err
		}

		if (iter+1)%10 == 0 {
			logger.Debug("Boosting progress",
				"iteration", iter+1,
				"stages", len(trees))
		}
	}

	gb.trees = trees
	gb.classes_ = classes
	gb.nFeatures_ = cols
	gb.importances_ = gb.computeImportances(cols)

	gb.state.SetDimensions(cols, rows)
	gb.state.SetFitted()

	logger.Info("Gradient boosting trained",
		"stages", len(trees),
		log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}

// Predict returns the most probable label for each row.
func (gb *GradientBoostingClassifier) Predict(X mat.Matrix) ([]int, error) {
	scores, err := gb.rawScores(X, "Predict")
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(scores))
	for i, s := range scores {
		if sigmoid(s) >= 0.5 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictProba returns per-class probabilities, one column per class in
// {0, 1} order.
func (gb *GradientBoostingClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	scores, err := gb.rawScores(X, "PredictProba")
	if err != nil {
		return nil, err
	}
	proba := mat.NewDense(len(scores), 2, nil)
	for i, s := range scores {
		prob := sigmoid(s)
		proba.Set(i, 0, 1-prob)
		proba.Set(i, 1, prob)
	}
	return proba, nil
}

// DecisionFunction returns the raw additive log-odds per row.
func (gb *GradientBoostingClassifier) DecisionFunction(X mat.Matrix) ([]float64, error) {
	return gb.rawScores(X, "DecisionFunction")
}

func (gb *GradientBoostingClassifier) rawScores(X mat.Matrix, method string) ([]float64, error) {
	if err := gb.state.RequireFitted("GradientBoostingClassifier", method); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != gb.nFeatures_ {
		return nil, errors.NewDimensionError(method, gb.nFeatures_, cols, 1)
	}

	scores := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 64, func(first, last int) {
		features := make([]float64, cols)
		for i := first; i < last; i++ {
			matRow(features, X, i)
			score := gb.initScore_
			for t := range gb.trees {
				score += gb.trees[t].Predict(features)
			}
			scores[i] = score
		}
	})
	return scores, nil
}

// Score returns the accuracy on the given data.
func (gb *GradientBoostingClassifier) Score(X mat.Matrix, y []int) (float64, error) {
	pred, err := gb.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(metrics.LabelVec(y), metrics.LabelVec(pred))
}

// Classes returns the class labels seen during fit.
func (gb *GradientBoostingClassifier) Classes() []int {
	return append([]int(nil), gb.classes_...)
}

// IsFitted reports whether Fit has completed.
func (gb *GradientBoostingClassifier) IsFitted() bool {
	return gb.state.IsFitted()
}

// FeatureImportances returns normalized gain importances summing to one.
func (gb *GradientBoostingClassifier) FeatureImportances() []float64 {
	return append([]float64(nil), gb.importances_...)
}

func (gb *GradientBoostingClassifier) computeImportances(cols int) []float64 {
	gains := make([]float64, cols)
	for t := range gb.trees {
		gb.trees[t].accumulateGains(gains)
	}
	total := 0.0
	for _, g := range gains {
		total += g
	}
	if total > 0 {
		for j := range gains {
			gains[j] /= total
		}
	}
	return gains
}

// GetParams returns the hyperparameters.
func (gb *GradientBoostingClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      gb.NEstimators,
		"learning_rate":     gb.LearningRate,
		"max_depth":         gb.MaxDepth,
		"min_child_samples": gb.MinChildSamples,
		"reg_lambda":        gb.RegLambda,
		"subsample":         gb.Subsample,
		"random_state":      gb.RandomState,
	}
}

// SetParams updates hyperparameters from a map with coerced values.
func (gb *GradientBoostingClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_estimators":
			gb.NEstimators = cast.ToInt(value)
		case "learning_rate":
			gb.LearningRate = cast.ToFloat64(value)
		case "max_depth":
			gb.MaxDepth = cast.ToInt(value)
		case "min_child_samples":
			gb.MinChildSamples = cast.ToInt(value)
		case "reg_lambda":
			gb.RegLambda = cast.ToFloat64(value)
		case "subsample":
			gb.Subsample = cast.ToFloat64(value)
		case "random_state":
			gb.RandomState = cast.ToInt64(value)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + errors.StabilizeExp(-x))
}
