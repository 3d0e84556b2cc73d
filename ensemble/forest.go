package ensemble

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/mat"

	"github.com/oenolab/winequality/core/model"
	"github.com/oenolab/winequality/core/parallel"
	"github.com/oenolab/winequality/metrics"
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// RandomForestClassifier is a bagged ensemble of gini decision trees for
// binary classification. Trees train in parallel; each tree owns a seeded
// random stream, so results are reproducible for a fixed RandomState
// regardless of scheduling.
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // candidate features per split; 0 means sqrt(n_features)
	Bootstrap       bool
	RandomState     int64

	// Fitted state
	trees        []Tree
	classes_     []int
	nFeatures_   int
	importances_ []float64
	oobScore_    float64
}

// NewRandomForestClassifier creates a forest with the standard defaults:
// 100 trees of depth at most 10, sqrt(n_features) candidates per split,
// bootstrap sampling on.
func NewRandomForestClassifier() *RandomForestClassifier {
	return &RandomForestClassifier{
		state:           model.NewStateManager(),
		NEstimators:     100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Bootstrap:       true,
		RandomState:     42,
	}
}

// WithNEstimators sets the number of trees.
func (rf *RandomForestClassifier) WithNEstimators(n int) *RandomForestClassifier {
	rf.NEstimators = n
	return rf
}

// WithMaxDepth sets the maximum tree depth.
func (rf *RandomForestClassifier) WithMaxDepth(d int) *RandomForestClassifier {
	rf.MaxDepth = d
	return rf
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func (rf *RandomForestClassifier) WithMinSamplesSplit(n int) *RandomForestClassifier {
	rf.MinSamplesSplit = n
	return rf
}

// WithMinSamplesLeaf sets the minimum samples required in each child.
func (rf *RandomForestClassifier) WithMinSamplesLeaf(n int) *RandomForestClassifier {
	rf.MinSamplesLeaf = n
	return rf
}

// WithMaxFeatures sets the number of candidate features per split. Zero
// selects sqrt(n_features), the caret mtry default.
func (rf *RandomForestClassifier) WithMaxFeatures(m int) *RandomForestClassifier {
	rf.MaxFeatures = m
	return rf
}

// WithBootstrap toggles bootstrap sampling.
func (rf *RandomForestClassifier) WithBootstrap(b bool) *RandomForestClassifier {
	rf.Bootstrap = b
	return rf
}

// WithRandomState sets the random seed.
func (rf *RandomForestClassifier) WithRandomState(seed int64) *RandomForestClassifier {
	rf.RandomState = seed
	return rf
}

// Fit trains the forest on binary labels.
func (rf *RandomForestClassifier) Fit(X mat.Matrix, y []int) (err error) {
	defer errors.Recover(&err, "RandomForestClassifier.Fit")

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
	if rf.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.NEstimators)
	}

	xDense := toDense(X)
	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(cols)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}
	cfg := treeConfig{
		maxDepth:        rf.MaxDepth,
		minSamplesSplit: rf.MinSamplesSplit,
		minSamplesLeaf:  rf.MinSamplesLeaf,
		maxFeatures:     maxFeatures,
	}

	logger := log.GetLoggerWithName("ensemble.forest")
	logger.Info("Training random forest",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		"n_estimators", rf.NEstimators,
		"max_features", maxFeatures)
	start := time.Now()

	trees := make([]Tree, rf.NEstimators)
	inBag := make([][]bool, rf.NEstimators)
	parallel.Parallelize(rf.NEstimators, func(first, last int) {
		for t := first; t < last; t++ {
			s := newSampler(rf.RandomState + int64(t))
			var indices []int
			if rf.Bootstrap {
				indices, inBag[t] = s.bootstrap(rows)
			} else {
				indices = make([]int, rows)
				for i := range indices {
					indices[i] = i
				}
			}
			tree := growGiniTree(xDense, y, indices, cfg, s.rng)
			tree.TreeIndex = t
			trees[t] = tree
		}
	})

	rf.trees = trees
	rf.classes_ = classes
	rf.nFeatures_ = cols
	rf.importances_ = rf.computeImportances(cols)
	if rf.Bootstrap {
		rf.oobScore_ = rf.computeOOBScore(xDense, y, inBag)
	}

	rf.state.SetDimensions(cols, rows)
	rf.state.SetFitted()

	logger.Info("Random forest trained",
		"oob_score", rf.oobScore_,
		log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}

// Predict returns the majority-vote label for each row.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) ([]int, error) {
	scores, err := rf.positiveScores(X, "Predict")
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(scores))
	for i, s := range scores {
		if s >= 0.5 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictProba returns per-class vote fractions, one column per class in
// {0, 1} order.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	scores, err := rf.positiveScores(X, "PredictProba")
	if err != nil {
		return nil, err
	}
	proba := mat.NewDense(len(scores), 2, nil)
	for i, s := range scores {
		proba.Set(i, 0, 1-s)
		proba.Set(i, 1, s)
	}
	return proba, nil
}

// positiveScores averages the trees' leaf fractions per row.
func (rf *RandomForestClassifier) positiveScores(X mat.Matrix, method string) ([]float64, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", method); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != rf.nFeatures_ {
		return nil, errors.NewDimensionError(method, rf.nFeatures_, cols, 1)
	}

	scores := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 64, func(first, last int) {
		features := make([]float64, cols)
		for i := first; i < last; i++ {
			matRow(features, X, i)
			sum := 0.0
			for t := range rf.trees {
				sum += rf.trees[t].Predict(features)
			}
			scores[i] = sum / float64(len(rf.trees))
		}
	})
	return scores, nil
}

// Score returns the accuracy on the given data.
func (rf *RandomForestClassifier) Score(X mat.Matrix, y []int) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(metrics.LabelVec(y), metrics.LabelVec(pred))
}

// Classes returns the class labels seen during fit.
func (rf *RandomForestClassifier) Classes() []int {
	return append([]int(nil), rf.classes_...)
}

// IsFitted reports whether Fit has completed.
func (rf *RandomForestClassifier) IsFitted() bool {
	return rf.state.IsFitted()
}

// FeatureImportances returns normalized gain importances summing to one.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	return append([]float64(nil), rf.importances_...)
}

// OOBScore returns the out-of-bag accuracy estimated during fit. It is zero
// when Bootstrap is off.
func (rf *RandomForestClassifier) OOBScore() float64 {
	return rf.oobScore_
}

func (rf *RandomForestClassifier) computeImportances(cols int) []float64 {
	gains := make([]float64, cols)
	for t := range rf.trees {
		rf.trees[t].accumulateGains(gains)
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

// computeOOBScore scores each training row using only the trees that never
// saw it, then reports the accuracy over rows with at least one such tree.
func (rf *RandomForestClassifier) computeOOBScore(X *mat.Dense, y []int, inBag [][]bool) float64 {
	rows, cols := X.Dims()
	votes := make([]float64, rows)
	counts := make([]int, rows)

	parallel.ParallelizeWithThreshold(rows, 64, func(first, last int) {
		features := make([]float64, cols)
		for i := first; i < last; i++ {
			matRow(features, X, i)
			for t := range rf.trees {
				if inBag[t][i] {
					continue
				}
				votes[i] += rf.trees[t].Predict(features)
				counts[i]++
			}
		}
	})

	correct, scored := 0, 0
	for i := 0; i < rows; i++ {
		if counts[i] == 0 {
			continue
		}
		label := 0
		if votes[i]/float64(counts[i]) >= 0.5 {
			label = 1
		}
		if label == y[i] {
			correct++
		}
		scored++
	}
	if scored == 0 {
		return 0
	}
	return float64(correct) / float64(scored)
}

// GetParams returns the hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"max_features":      rf.MaxFeatures,
		"bootstrap":         rf.Bootstrap,
		"random_state":      rf.RandomState,
	}
}

// SetParams updates hyperparameters from a map. Values are coerced, so both
// int and float64 grid entries work.
func (rf *RandomForestClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_estimators":
			rf.NEstimators = cast.ToInt(value)
		case "max_depth":
			rf.MaxDepth = cast.ToInt(value)
		case "min_samples_split":
			rf.MinSamplesSplit = cast.ToInt(value)
		case "min_samples_leaf":
			rf.MinSamplesLeaf = cast.ToInt(value)
		case "max_features", "mtry":
			rf.MaxFeatures = cast.ToInt(value)
		case "bootstrap":
			rf.Bootstrap = cast.ToBool(value)
		case "random_state":
			rf.RandomState = cast.ToInt64(value)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// forestFile is the JSON layout for Save and Load.
type forestFile struct {
	NEstimators     int       `json:"n_estimators"`
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MinSamplesLeaf  int       `json:"min_samples_leaf"`
	MaxFeatures     int       `json:"max_features"`
	Bootstrap       bool      `json:"bootstrap"`
	RandomState     int64     `json:"random_state"`
	Classes         []int     `json:"classes"`
	NFeatures       int       `json:"n_features"`
	Importances     []float64 `json:"feature_importances"`
	OOBScore        float64   `json:"oob_score"`
	Trees           []Tree    `json:"trees"`
}

// Save writes the fitted forest as JSON.
func (rf *RandomForestClassifier) Save(path string) error {
	if err := rf.state.RequireFitted("RandomForestClassifier", "Save"); err != nil {
		return err
	}
	data, err := json.MarshalIndent(forestFile{
		NEstimators:     rf.NEstimators,
		MaxDepth:        rf.MaxDepth,
		MinSamplesSplit: rf.MinSamplesSplit,
		MinSamplesLeaf:  rf.MinSamplesLeaf,
		MaxFeatures:     rf.MaxFeatures,
		Bootstrap:       rf.Bootstrap,
		RandomState:     rf.RandomState,
		Classes:         rf.classes_,
		NFeatures:       rf.nFeatures_,
		Importances:     rf.importances_,
		OOBScore:        rf.oobScore_,
		Trees:           rf.trees,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal forest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write forest file")
	}
	return nil
}

// Load restores a forest saved with Save.
func (rf *RandomForestClassifier) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read forest file")
	}
	var file forestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return errors.Wrap(err, "failed to unmarshal forest")
	}

	rf.NEstimators = file.NEstimators
	rf.MaxDepth = file.MaxDepth
	rf.MinSamplesSplit = file.MinSamplesSplit
	rf.MinSamplesLeaf = file.MinSamplesLeaf
	rf.MaxFeatures = file.MaxFeatures
	rf.Bootstrap = file.Bootstrap
	rf.RandomState = file.RandomState
	rf.classes_ = file.Classes
	rf.nFeatures_ = file.NFeatures
	rf.importances_ = file.Importances
	rf.oobScore_ = file.OOBScore
	rf.trees = file.Trees

	rf.state.SetDimensions(file.NFeatures, 0)
	rf.state.SetFitted()
	return nil
}

// binaryClasses validates the labels and returns the sorted classes present.
func binaryClasses(y []int) ([]int, error) {
	seen := [2]bool{}
	for _, label := range y {
		if label != 0 && label != 1 {
			return nil, errors.NewValueError("Fit", "labels must be binary (0 or 1)")
		}
		seen[label] = true
	}
	var classes []int
	if seen[0] {
		classes = append(classes, 0)
	}
	if seen[1] {
		classes = append(classes, 1)
	}
	return classes, nil
}

// toDense converts any matrix to *mat.Dense without copying when possible.
func toDense(X mat.Matrix) *mat.Dense {
	if d, ok := X.(*mat.Dense); ok {
		return d
	}
	rows, cols := X.Dims()
	d := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d.Set(i, j, X.At(i, j))
		}
	}
	return d
}

// matRow copies row i of X into dst.
func matRow(dst []float64, X mat.Matrix, i int) {
	for j := range dst {
		dst[j] = X.At(i, j)
	}
}
