package pipeline

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/oenolab/winequality/core/model"
	"github.com/oenolab/winequality/ensemble"
	"github.com/oenolab/winequality/metrics"
	"github.com/oenolab/winequality/modelselection"
	"github.com/oenolab/winequality/pkg/errors"
)

// Canonical learner names accepted by NewBackend.
const (
	LearnerForest   = "random_forest"
	LearnerBoosting = "gradient_boosting"
)

// Model is an opaque handle to a fitted learner. The workflow never touches
// the learner directly; everything it needs for reporting is exposed here.
type Model interface {
	// Importances returns the per-feature influence scores, in predictor
	// column order, or nil when the learner does not provide them.
	Importances() []float64
	// Params returns the hyperparameters the model was fitted with.
	Params() map[string]interface{}
}

// CVSpec fixes the resampling scheme and candidate budget for the tuning
// stage. Zero fields fall back to 10-fold, 3 repeats and 10 candidates.
type CVSpec struct {
	Folds      int
	Repeats    int
	Iterations int
	Seed       int64
}

// DefaultCVSpec returns the walkthrough budget: repeated 10-fold
// cross-validation with 3 repeats over 10 random candidates.
func DefaultCVSpec() CVSpec {
	return CVSpec{Folds: 10, Repeats: 3, Iterations: 10, Seed: 42}
}

// SearchSummary records what the tuning stage tried and what won.
type SearchSummary struct {
	Scoring    string
	Candidates int
	Results    []modelselection.SearchResult
	BestParams map[string]interface{}
	BestScore  float64
}

// Backend is the model capability the workflow is written against: fit a
// learner, predict with it, tune it by cross-validated search and score a
// ROC curve. Swapping the backend swaps the learner without touching any
// workflow logic.
type Backend interface {
	Fit(x mat.Matrix, y []int, params map[string]interface{}) (Model, error)
	Predict(m Model, x mat.Matrix) (labels []int, scores []float64, err error)
	CrossValidatedSearch(x mat.Matrix, y []int, grid modelselection.ParamGrid, cv CVSpec) (Model, *SearchSummary, error)
	ROCAuc(scores []float64, labels []int) (*metrics.ROCCurve, float64, error)
}

// NewBackend builds the backend for a learner name. Recognized names are
// "rf" (and "forest", "random_forest") and "gbdt" (and "gbm", "boosting",
// "gradient_boosting"); the empty string means the default random forest.
func NewBackend(name string) (Backend, error) {
	canonical, err := canonicalLearner(name)
	if err != nil {
		return nil, err
	}
	if canonical == LearnerBoosting {
		return NewBoostingBackend(), nil
	}
	return NewForestBackend(), nil
}

// DefaultGrid returns the random-search space for a learner. The forest grid
// varies the caret-style mtry along with tree shape; the boosting grid varies
// shrinkage, depth and row subsampling.
func DefaultGrid(name string) (modelselection.ParamGrid, error) {
	canonical, err := canonicalLearner(name)
	if err != nil {
		return nil, err
	}
	if canonical == LearnerBoosting {
		return modelselection.ParamGrid{
			"learning_rate": {0.05, 0.1, 0.2},
			"max_depth":     {2, 3, 4},
			"subsample":     {0.7, 0.85, 1.0},
		}, nil
	}
	return modelselection.ParamGrid{
		"max_features":      {2, 3, 4, 5, 7},
		"min_samples_split": {2, 5, 10},
		"max_depth":         {8, 12, 16},
	}, nil
}

func canonicalLearner(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rf", "forest", "randomforest", LearnerForest:
		return LearnerForest, nil
	case "gbdt", "gbm", "boosting", "gradientboosting", LearnerBoosting:
		return LearnerBoosting, nil
	default:
		return "", errors.NewValueError("NewBackend",
			fmt.Sprintf("unknown learner %q (want rf or gbdt)", name))
	}
}

// classifierFactory maps a canonical learner name to its constructor.
func classifierFactory(canonical string) func() model.Classifier {
	if canonical == LearnerBoosting {
		return func() model.Classifier {
			return ensemble.NewGradientBoostingClassifier()
		}
	}
	return func() model.Classifier {
		return ensemble.NewRandomForestClassifier()
	}
}

// ForestBackend runs every capability on a random forest. It is the default.
type ForestBackend struct {
	classifierBackend
}

// NewForestBackend returns a Backend over RandomForestClassifier.
func NewForestBackend() *ForestBackend {
	return &ForestBackend{classifierBackend{
		name:    LearnerForest,
		factory: classifierFactory(LearnerForest),
	}}
}

// BoostingBackend runs every capability on gradient-boosted trees.
type BoostingBackend struct {
	classifierBackend
}

// NewBoostingBackend returns a Backend over GradientBoostingClassifier.
func NewBoostingBackend() *BoostingBackend {
	return &BoostingBackend{classifierBackend{
		name:    LearnerBoosting,
		factory: classifierFactory(LearnerBoosting),
	}}
}

// classifierBackend adapts any model.Classifier factory to the Backend
// capabilities. Both concrete backends share it.
type classifierBackend struct {
	name    string
	factory func() model.Classifier
}

type fittedModel struct {
	clf model.Classifier
}

func (m *fittedModel) Importances() []float64 {
	if imp, ok := m.clf.(interface{ FeatureImportances() []float64 }); ok {
		return imp.FeatureImportances()
	}
	return nil
}

func (m *fittedModel) Params() map[string]interface{} {
	if getter, ok := m.clf.(model.ParameterGetter); ok {
		return getter.GetParams()
	}
	return nil
}

func (b *classifierBackend) Fit(x mat.Matrix, y []int, params map[string]interface{}) (Model, error) {
	clf := b.factory()
	if len(params) > 0 {
		if err := setParams(clf, params); err != nil {
			return nil, err
		}
	}
	if err := clf.Fit(x, y); err != nil {
		return nil, errors.Wrapf(err, "%s fit failed", b.name)
	}
	return &fittedModel{clf: clf}, nil
}

func (b *classifierBackend) Predict(m Model, x mat.Matrix) ([]int, []float64, error) {
	fm, err := b.handle(m)
	if err != nil {
		return nil, nil, err
	}
	labels, err := fm.clf.Predict(x)
	if err != nil {
		return nil, nil, err
	}
	proba, err := fm.clf.PredictProba(x)
	if err != nil {
		return nil, nil, err
	}
	rows, _ := proba.Dims()
	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = proba.At(i, 1)
	}
	return labels, scores, nil
}

func (b *classifierBackend) CrossValidatedSearch(x mat.Matrix, y []int, grid modelselection.ParamGrid, cv CVSpec) (Model, *SearchSummary, error) {
	splitter := modelselection.NewRepeatedStratifiedKFold(cv.Folds, cv.Repeats, cv.Seed)
	search := modelselection.NewRandomizedSearchCV(b.factory, grid, cv.Iterations, splitter).
		WithScoring(modelselection.ScoringAUC).
		WithSeed(cv.Seed)
	if err := search.Fit(x, y); err != nil {
		return nil, nil, errors.Wrapf(err, "%s search failed", b.name)
	}
	summary := &SearchSummary{
		Scoring:    modelselection.ScoringAUC,
		Candidates: len(search.Results()),
		Results:    search.Results(),
		BestParams: search.BestParams(),
		BestScore:  search.BestScore(),
	}
	return &fittedModel{clf: search.BestModel()}, summary, nil
}

func (b *classifierBackend) ROCAuc(scores []float64, labels []int) (*metrics.ROCCurve, float64, error) {
	curve, err := metrics.ComputeROC(labels, scores)
	if err != nil {
		return nil, 0, err
	}
	return curve, curve.AUC(), nil
}

func (b *classifierBackend) handle(m Model) (*fittedModel, error) {
	fm, ok := m.(*fittedModel)
	if !ok || fm.clf == nil {
		return nil, errors.NewValueError("Backend.Predict",
			fmt.Sprintf("model %T was not produced by this backend", m))
	}
	return fm, nil
}

func setParams(clf model.Classifier, params map[string]interface{}) error {
	setter, ok := clf.(model.ParameterSetter)
	if !ok {
		return errors.NewValueError("Backend.Fit",
			fmt.Sprintf("model %T does not accept parameters", clf))
	}
	return setter.SetParams(params)
}
