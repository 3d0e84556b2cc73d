// Package log defines standard attribute keys for machine learning operations.
//
// Using these keys consistently enables structured filtering across the
// walkthrough: every stage logs the same key for the same concept. The keys
// follow a hierarchical naming convention (e.g. "model.name", "data.samples").

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "RandomForestClassifier", "GradientBoostingClassifier"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a model instance,
	// typically a UUID shared with the pipeline run.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the ML operation being performed.
	// Standard values: "fit", "predict", "score", "search", "split"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "dataset", "ensemble.forest", "modelselection.search"
	ComponentKey = "ml.component"

	// PhaseKey indicates the walkthrough phase.
	// Examples: "training", "validation", "testing", "tuning"
	PhaseKey = "ml.phase"

	// RunIDKey correlates every log line of one pipeline run.
	RunIDKey = "run.id"
)

// Data shape and provenance.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of predictor columns.
	FeaturesKey = "data.features"

	// SourceKey records where the dataset came from (URL or path).
	SourceKey = "data.source"

	// PositiveCountKey and NegativeCountKey record the binary label balance.
	PositiveCountKey = "data.positive"
	NegativeCountKey = "data.negative"
)

// Partitioning and resampling.
const (
	// TrainSizeKey, ValSizeKey and TestSizeKey record partition sizes.
	TrainSizeKey = "partition.train"
	ValSizeKey   = "partition.validation"
	TestSizeKey  = "partition.test"

	// SeedKey records the random seed for reproducibility.
	SeedKey = "config.seed"

	// FoldsKey and RepeatsKey describe the cross-validation scheme.
	FoldsKey   = "cv.folds"
	RepeatsKey = "cv.repeats"

	// CandidatesKey is the number of hyperparameter configurations tried.
	CandidatesKey = "search.candidates"
)

// Performance metrics.
const (
	// DurationMsKey records elapsed wall time in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// AUCKey records area under the ROC curve in [0, 1].
	AUCKey = "metrics.auc"

	// LossKey records a loss value; lower is better.
	LossKey = "metrics.loss"
)

// Error and warning context.
const (
	// ErrorCodeKey provides a structured error code.
	// Examples: "DIMENSION_MISMATCH", "NOT_FITTED", "EMPTY_DATA"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the error.
	// Examples: "ValidationError", "ValueError"
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	// ML operations
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationSearch  = "search"
	OperationSplit   = "split"

	// Walkthrough phases
	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"
	PhaseTuning     = "tuning"

	// Error codes
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
)
