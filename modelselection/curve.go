package modelselection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/oenolab/winequality/core/model"
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// LearningCurveConfig controls the learning curve sweep.
type LearningCurveConfig struct {
	// Fractions are the training subsample sizes as fractions of the
	// non-held-out pool, each in (0, 1].
	Fractions []float64

	// EvalFraction of the rows is held out once and scored at every size.
	EvalFraction float64

	Scoring string
	Seed    int64
}

// DefaultLearningCurveConfig sweeps ten sizes from 10% to 100% of the pool
// against a 25% stratified holdout, scored by AUC.
func DefaultLearningCurveConfig() LearningCurveConfig {
	fractions := make([]float64, 10)
	for i := range fractions {
		fractions[i] = float64(i+1) / 10
	}
	return LearningCurveConfig{
		Fractions:    fractions,
		EvalFraction: 0.25,
		Scoring:      ScoringAUC,
		Seed:         42,
	}
}

// LearningCurveResult holds one score pair per training size.
type LearningCurveResult struct {
	Sizes       []int
	TrainScores []float64
	TestScores  []float64
	Scoring     string
}

// LearningCurve fits a fresh classifier at increasing training subsample
// sizes and scores each against a single stratified holdout. A flat curve
// at small sizes means more data would not help; a still-rising curve at
// the full size means it would.
//
// The subsamples are nested prefixes of one shuffled pool, so each size
// extends the previous one rather than redrawing.
func LearningCurve(factory func() model.Classifier, X mat.Matrix, y []int,
	cfg LearningCurveConfig) (*LearningCurveResult, error) {

	if factory == nil {
		return nil, errors.NewValueError("LearningCurve", "factory is nil")
	}
	if len(y) == 0 {
		return nil, errors.NewValueError("LearningCurve", "y is empty")
	}
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, errors.NewDimensionError("LearningCurve", len(y), rows, 0)
	}
	if len(cfg.Fractions) == 0 {
		cfg.Fractions = DefaultLearningCurveConfig().Fractions
	}
	for _, f := range cfg.Fractions {
		if f <= 0 || f > 1 {
			return nil, errors.NewValidationError("fractions",
				"each training fraction must be in (0, 1]", f)
		}
	}
	if cfg.EvalFraction == 0 {
		cfg.EvalFraction = DefaultLearningCurveConfig().EvalFraction
	}
	if cfg.EvalFraction < 0 || cfg.EvalFraction >= 1 {
		return nil, errors.NewValidationError("eval_fraction",
			"must be in (0, 1)", cfg.EvalFraction)
	}
	if cfg.Scoring == "" {
		cfg.Scoring = ScoringAUC
	}
	if err := checkScoring("LearningCurve", cfg.Scoring); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)))
	parts := stratifiedSlices(y, []float64{1 - cfg.EvalFraction}, rng)
	pool, eval := parts[0], parts[1]
	if len(pool) == 0 || len(eval) == 0 {
		return nil, errors.NewValueError("LearningCurve",
			fmt.Sprintf("holdout split left an empty side (pool %d, eval %d)", len(pool), len(eval)))
	}
	evalX, evalY := subsetRows(X, y, eval)

	logger := log.GetLoggerWithName("modelselection.curve")
	logger.Info("Learning curve started",
		"sizes", len(cfg.Fractions),
		"pool", len(pool),
		"holdout", len(eval),
		"scoring", cfg.Scoring,
	)
	start := time.Now()

	result := &LearningCurveResult{Scoring: cfg.Scoring}
	for _, fraction := range cfg.Fractions {
		size := int(math.Round(fraction * float64(len(pool))))
		if size < 1 {
			size = 1
		}
		if size > len(pool) {
			size = len(pool)
		}

		trainX, trainY := subsetRows(X, y, pool[:size])

		clf := factory()
		if err := clf.Fit(trainX, trainY); err != nil {
			return nil, errors.Wrapf(err, "fit at size %d failed", size)
		}
		trainScore, err := scoreModel(clf, trainX, trainY, cfg.Scoring)
		if err != nil {
			return nil, errors.Wrapf(err, "train scoring at size %d failed", size)
		}
		testScore, err := scoreModel(clf, evalX, evalY, cfg.Scoring)
		if err != nil {
			return nil, errors.Wrapf(err, "holdout scoring at size %d failed", size)
		}

		result.Sizes = append(result.Sizes, size)
		result.TrainScores = append(result.TrainScores, trainScore)
		result.TestScores = append(result.TestScores, testScore)

		logger.Debug("Learning curve point",
			log.SamplesKey, size,
			"train_score", trainScore,
			"test_score", testScore,
		)
	}

	logger.Info("Learning curve complete",
		"sizes", len(result.Sizes),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}
