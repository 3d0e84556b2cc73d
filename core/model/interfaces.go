// Package model provides the shared contracts and state management for
// estimators. Estimators hold a StateManager by composition and satisfy the
// interface ladder defined here; orchestration code depends only on these
// interfaces, never on concrete estimator types.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for models that can be trained on labeled data.
// Rows of X are samples, columns are features; y holds one integer class
// label per row.
type Fitter interface {
	Fit(X mat.Matrix, y []int) error
}

// Predictor is the interface for models that predict class labels.
type Predictor interface {
	Predict(X mat.Matrix) ([]int, error)
}

// Scorer is the interface for models that can score themselves on labeled
// data. For classifiers the score is mean accuracy.
type Scorer interface {
	Score(X mat.Matrix, y []int) (float64, error)
}

// Estimator is the minimal contract common to all models.
type Estimator interface {
	Fitter

	// IsFitted reports whether Fit has completed successfully.
	IsFitted() bool
}

// Classifier combines the interfaces for classification models.
type Classifier interface {
	Estimator
	Predictor
	Scorer

	// PredictProba returns per-class probability estimates, one row per
	// sample and one column per class, each row summing to 1.
	PredictProba(X mat.Matrix) (*mat.Dense, error)

	// Classes returns the distinct class labels seen during fitting,
	// in ascending order.
	Classes() []int
}

// ParameterGetter is the interface for models that expose their
// hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that accept loosely typed
// hyperparameters, e.g. candidates drawn from a search grid.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// Persistable is the interface for models that can be saved to and restored
// from a file.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
