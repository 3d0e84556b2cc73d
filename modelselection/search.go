package modelselection

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/oenolab/winequality/core/model"
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// ParamGrid maps hyperparameter names to their candidate values. Values are
// loosely typed and coerced by the model's SetParams.
type ParamGrid map[string][]interface{}

// SearchResult records one evaluated hyperparameter configuration.
type SearchResult struct {
	Params    map[string]interface{}
	MeanScore float64
	StdScore  float64
}

// RandomizedSearchCV samples a bounded number of configurations from a
// parameter grid and evaluates each with cross-validation, then refits the
// best configuration on the full data. When the grid holds no more
// combinations than NIter, every combination is evaluated instead.
type RandomizedSearchCV struct {
	Factory    func() model.Classifier
	Grid       ParamGrid
	NIter      int
	Splitter   Splitter
	Scoring    string
	RandomSeed int64

	results    []SearchResult
	bestIndex  int
	bestParams map[string]interface{}
	bestModel  model.Classifier
	fitted     bool
}

// NewRandomizedSearchCV creates a search over grid evaluating at most nIter
// configurations. A nil splitter defaults to repeated stratified 10-fold
// with 3 repeats; the default scoring is AUC.
func NewRandomizedSearchCV(factory func() model.Classifier, grid ParamGrid,
	nIter int, splitter Splitter) *RandomizedSearchCV {
	if nIter < 1 {
		nIter = 10
	}
	return &RandomizedSearchCV{
		Factory:    factory,
		Grid:       grid,
		NIter:      nIter,
		Splitter:   splitter,
		Scoring:    ScoringAUC,
		RandomSeed: 42,
	}
}

// WithScoring sets the cross-validation scoring metric.
func (rs *RandomizedSearchCV) WithScoring(scoring string) *RandomizedSearchCV {
	rs.Scoring = scoring
	return rs
}

// WithSeed sets the candidate sampling seed.
func (rs *RandomizedSearchCV) WithSeed(seed int64) *RandomizedSearchCV {
	rs.RandomSeed = seed
	return rs
}

// Fit evaluates the sampled configurations by cross-validation on X and y
// and refits the best one on all rows.
func (rs *RandomizedSearchCV) Fit(X mat.Matrix, y []int) (err error) {
	defer errors.Recover(&err, "RandomizedSearchCV.Fit")

	if rs.Factory == nil {
		return errors.NewValueError("RandomizedSearchCV.Fit", "factory is nil")
	}
	if len(rs.Grid) == 0 {
		return errors.NewValueError("RandomizedSearchCV.Fit", "parameter grid is empty")
	}
	for name, values := range rs.Grid {
		if len(values) == 0 {
			return errors.NewValidationError(name, "has no candidate values", values)
		}
	}
	if err := checkScoring("RandomizedSearchCV.Fit", rs.Scoring); err != nil {
		return err
	}
	if rs.NIter < 1 {
		rs.NIter = 10
	}
	if rs.Splitter == nil {
		rs.Splitter = NewRepeatedStratifiedKFold(10, 3, rs.RandomSeed)
	}

	candidates := rs.candidates()

	logger := log.GetLoggerWithName("modelselection.search")
	logger.Info("Random search started",
		log.OperationKey, log.OperationSearch,
		log.CandidatesKey, len(candidates),
		log.FoldsKey, rs.Splitter.NSplits(),
		log.SeedKey, rs.RandomSeed,
	)
	start := time.Now()

	rs.results = make([]SearchResult, 0, len(candidates))
	rs.bestIndex = 0

	for i, params := range candidates {
		if err := rs.applyParams(rs.Factory(), params); err != nil {
			return errors.Wrapf(err, "candidate %d has invalid parameters", i)
		}

		candidateFactory := func() model.Classifier {
			clf := rs.Factory()
			// params already validated on the probe instance
			_ = rs.applyParams(clf, params)
			return clf
		}

		cv, err := CrossValidate(candidateFactory, X, y, rs.Splitter, rs.Scoring)
		if err != nil {
			return errors.Wrapf(err, "candidate %d evaluation failed", i)
		}

		rs.results = append(rs.results, SearchResult{
			Params:    copyParams(params),
			MeanScore: cv.GetMeanScore(),
			StdScore:  cv.GetStdScore(),
		})
		if rs.betterThan(cv.GetMeanScore(), rs.results[rs.bestIndex].MeanScore) {
			rs.bestIndex = i
		}

		logger.Debug("Candidate evaluated",
			"candidate", i,
			"mean_score", cv.GetMeanScore(),
			"std_score", cv.GetStdScore(),
		)
	}

	rs.bestParams = copyParams(rs.results[rs.bestIndex].Params)

	best := rs.Factory()
	if err := rs.applyParams(best, rs.bestParams); err != nil {
		return errors.Wrapf(err, "refit parameter application failed")
	}
	if err := best.Fit(X, y); err != nil {
		return errors.Wrapf(err, "refit of best configuration failed")
	}
	rs.bestModel = best
	rs.fitted = true

	logger.Info("Random search complete",
		log.CandidatesKey, len(candidates),
		"scoring", rs.Scoring,
		"best_score", rs.results[rs.bestIndex].MeanScore,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// BestModel returns the refitted best classifier. Nil before Fit.
func (rs *RandomizedSearchCV) BestModel() model.Classifier {
	if !rs.fitted {
		return nil
	}
	return rs.bestModel
}

// BestParams returns the best configuration. Nil before Fit.
func (rs *RandomizedSearchCV) BestParams() map[string]interface{} {
	if !rs.fitted {
		return nil
	}
	return copyParams(rs.bestParams)
}

// BestScore returns the best mean cross-validation score. Zero before Fit.
func (rs *RandomizedSearchCV) BestScore() float64 {
	if !rs.fitted {
		return 0
	}
	return rs.results[rs.bestIndex].MeanScore
}

// Results returns every evaluated configuration in evaluation order.
func (rs *RandomizedSearchCV) Results() []SearchResult {
	out := make([]SearchResult, len(rs.results))
	copy(out, rs.results)
	return out
}

// betterThan compares two mean scores under the direction of the metric.
func (rs *RandomizedSearchCV) betterThan(a, b float64) bool {
	if lowerIsBetter(rs.Scoring) {
		return a < b
	}
	return a > b
}

// applyParams sets a candidate configuration on a model instance.
func (rs *RandomizedSearchCV) applyParams(clf model.Classifier, params map[string]interface{}) error {
	setter, ok := clf.(model.ParameterSetter)
	if !ok {
		return errors.NewValueError("RandomizedSearchCV",
			fmt.Sprintf("model %T does not implement SetParams", clf))
	}
	return setter.SetParams(params)
}

// candidates returns the configurations to evaluate: the full grid when it
// is small enough, otherwise NIter distinct random draws.
func (rs *RandomizedSearchCV) candidates() []map[string]interface{} {
	names := make([]string, 0, len(rs.Grid))
	for name := range rs.Grid {
		names = append(names, name)
	}
	sort.Strings(names)

	// The partial product is enough to decide once it passes NIter, and
	// stopping there keeps huge grids from overflowing.
	total := 1
	for _, name := range names {
		total *= len(rs.Grid[name])
		if total > rs.NIter {
			return rs.sampleGrid(names)
		}
	}
	return rs.enumerateGrid(names, total)
}

// enumerateGrid walks every combination in odometer order.
func (rs *RandomizedSearchCV) enumerateGrid(names []string, total int) []map[string]interface{} {
	counters := make([]int, len(names))
	out := make([]map[string]interface{}, 0, total)
	for len(out) < total {
		params := make(map[string]interface{}, len(names))
		for i, name := range names {
			params[name] = rs.Grid[name][counters[i]]
		}
		out = append(out, params)

		for i := len(counters) - 1; i >= 0; i-- {
			counters[i]++
			if counters[i] < len(rs.Grid[names[i]]) {
				break
			}
			counters[i] = 0
		}
	}
	return out
}

// sampleGrid draws NIter distinct combinations with a seeded generator.
func (rs *RandomizedSearchCV) sampleGrid(names []string) []map[string]interface{} {
	rng := rand.New(rand.NewPCG(uint64(rs.RandomSeed), uint64(rs.RandomSeed)))
	seen := make(map[string]bool, rs.NIter)
	out := make([]map[string]interface{}, 0, rs.NIter)

	for len(out) < rs.NIter {
		picks := make([]int, len(names))
		var key strings.Builder
		for i, name := range names {
			picks[i] = rng.IntN(len(rs.Grid[name]))
			key.WriteString(strconv.Itoa(picks[i]))
			key.WriteByte('|')
		}
		if seen[key.String()] {
			continue
		}
		seen[key.String()] = true

		params := make(map[string]interface{}, len(names))
		for i, name := range names {
			params[name] = rs.Grid[name][picks[i]]
		}
		out = append(out, params)
	}
	return out
}

func copyParams(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
