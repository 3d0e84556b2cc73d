// Package pipeline runs the red wine quality walkthrough end to end: load
// and clean the data, sketch a learning curve, partition into train,
// validation and test, fit a baseline classifier, tune it by cross-validated
// random search and score the held-out test set exactly once. Every model
// capability goes through the Backend seam, so the stages read like the
// analysis and stay independent of which learner is underneath.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/oenolab/winequality/dataset"
	"github.com/oenolab/winequality/modelselection"
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
)

// FinalModelPolicy picks which fitted model faces the test set. The test
// partition is scored exactly once, so the choice has to be explicit.
type FinalModelPolicy int

const (
	// FinalBestValidation sends whichever of baseline and tuned model scored
	// the higher validation AUC. Ties keep the baseline.
	FinalBestValidation FinalModelPolicy = iota
	// FinalBaseline always sends the baseline fit.
	FinalBaseline
	// FinalTuned always sends the tuned fit.
	FinalTuned
)

func (p FinalModelPolicy) String() string {
	switch p {
	case FinalBaseline:
		return "baseline"
	case FinalTuned:
		return "tuned"
	default:
		return "best_validation"
	}
}

// Config collects every knob of the walkthrough. The zero value is not
// useful on its own; start from DefaultConfig and override.
type Config struct {
	Source  dataset.Source
	Seed    int64
	Learner string

	TrainFraction float64
	ValFraction   float64
	TestFraction  float64

	Recode dataset.RecodeRule
	NZV    dataset.NZVConfig

	Curve modelselection.LearningCurveConfig

	// Grid overrides the search space; nil means DefaultGrid for the learner.
	Grid modelselection.ParamGrid
	CV   CVSpec

	// Trees overrides the baseline ensemble size when positive.
	Trees int

	Policy   FinalModelPolicy
	SkipTune bool
}

// DefaultConfig returns the walkthrough setup: the UCI red wine data, a
// 60/10/30 stratified split at seed 42, the quality cut at 6, a random
// forest baseline and a 10-fold 3-repeat random search.
func DefaultConfig() Config {
	return Config{
		Source:        dataset.DefaultSource(),
		Seed:          42,
		Learner:       LearnerForest,
		TrainFraction: 0.6,
		ValFraction:   0.1,
		TestFraction:  0.3,
		Recode:        dataset.DefaultRule(),
		NZV:           dataset.DefaultNZVConfig(),
		Curve:         modelselection.DefaultLearningCurveConfig(),
		CV:            DefaultCVSpec(),
		Policy:        FinalBestValidation,
	}
}

// Workflow executes the walkthrough stage by stage and accumulates a Report.
// Stages must run in order; each one checks that its inputs exist. Run wires
// the whole sequence.
type Workflow struct {
	cfg     Config
	backend Backend
	logger  log.Logger
	report  *Report

	table *dataset.Table
	data  *dataset.Dataset
	parts modelselection.Partition

	baseline Model
	tuned    Model
	testDone bool
}

// New validates the configuration and prepares a workflow with the backend
// for the configured learner.
func New(cfg Config) (*Workflow, error) {
	canonical, err := canonicalLearner(cfg.Learner)
	if err != nil {
		return nil, err
	}
	cfg.Learner = canonical

	if cfg.Source.Path == "" && cfg.Source.URL == "" {
		cfg.Source = dataset.DefaultSource()
	}
	if cfg.TrainFraction == 0 && cfg.ValFraction == 0 && cfg.TestFraction == 0 {
		cfg.TrainFraction, cfg.ValFraction, cfg.TestFraction = 0.6, 0.1, 0.3
	}
	if cfg.Recode.GoodMin == 0 {
		cfg.Recode = dataset.DefaultRule()
	}
	if cfg.NZV == (dataset.NZVConfig{}) {
		cfg.NZV = dataset.DefaultNZVConfig()
	}
	if len(cfg.Curve.Fractions) == 0 && cfg.Curve.EvalFraction == 0 {
		cfg.Curve = modelselection.DefaultLearningCurveConfig()
		cfg.Curve.Seed = cfg.Seed
	}
	if cfg.CV == (CVSpec{}) {
		cfg.CV = CVSpec{Folds: 10, Repeats: 3, Iterations: 10, Seed: cfg.Seed}
	}

	backend, err := NewBackend(canonical)
	if err != nil {
		return nil, err
	}

	report := newReport(canonical, cfg.Seed)
	w := &Workflow{
		cfg:     cfg,
		backend: backend,
		logger:  log.GetLoggerWithName("pipeline").With(log.RunIDKey, report.RunID),
		report:  report,
	}
	w.logger.Info("Workflow configured",
		log.ModelNameKey, canonical,
		log.SeedKey, cfg.Seed)
	return w, nil
}

// WithBackend swaps the model backend. The learner name in the report keeps
// whatever Config said.
func (w *Workflow) WithBackend(b Backend) *Workflow {
	w.backend = b
	return w
}

// Report returns the walkthrough report accumulated so far.
func (w *Workflow) Report() *Report {
	return w.report
}

// Load fetches and parses the dataset.
func (w *Workflow) Load(ctx context.Context) error {
	tbl, err := dataset.Load(ctx, w.cfg.Source)
	if err != nil {
		return err
	}
	w.table = tbl
	w.report.Source = sourceName(w.cfg.Source)
	w.report.Rows = tbl.NumRows()
	w.report.Features = tbl.Features
	w.logger.Info("Stage complete: load",
		log.SamplesKey, tbl.NumRows(),
		log.FeaturesKey, tbl.NumFeatures())
	return nil
}

// Clean verifies the table is fit for modeling and recodes quality into the
// binary label. Missing values or near-zero variance predictors stop the run.
func (w *Workflow) Clean() error {
	if w.table == nil {
		return errors.NewValueError("Workflow.Clean", "no data loaded; run Load first")
	}
	if err := w.table.CheckMissing(); err != nil {
		return err
	}
	nzv := w.table.NearZeroVariance(w.cfg.NZV)
	if flagged := dataset.FlaggedColumns(nzv); len(flagged) > 0 {
		return errors.NewValueError("Workflow.Clean",
			fmt.Sprintf("near-zero variance predictors: %s", strings.Join(flagged, ", ")))
	}
	ds, err := w.table.Recode(w.cfg.Recode)
	if err != nil {
		return err
	}
	w.data = ds

	negative, positive := ds.LabelCounts()
	w.report.Summary = w.table.Summary()
	w.report.NZV = nzv
	w.report.GoodMin = w.cfg.Recode.GoodMin
	w.report.LabelNames = ds.LabelNames
	w.report.NegativeCount = negative
	w.report.PositiveCount = positive
	w.logger.Info("Stage complete: clean",
		log.NegativeCountKey, negative,
		log.PositiveCountKey, positive)
	return nil
}

// LearningCurve sweeps training subsets of growing size and records the
// score on a fixed holdout, answering whether more data would help before
// any tuning effort is spent.
func (w *Workflow) LearningCurve() error {
	if w.data == nil {
		return errors.NewValueError("Workflow.LearningCurve", "no modeling table; run Clean first")
	}
	result, err := modelselection.LearningCurve(
		classifierFactory(w.cfg.Learner), w.data.X, w.data.Labels, w.cfg.Curve)
	if err != nil {
		return err
	}
	w.report.Curve = result
	w.logger.Info("Stage complete: learning curve", "points", len(result.Sizes))
	return nil
}

// Partition draws the stratified train/validation/test split.
func (w *Workflow) Partition() error {
	if w.data == nil {
		return errors.NewValueError("Workflow.Partition", "no modeling table; run Clean first")
	}
	parts, err := modelselection.TrainValTestSplit(w.data.Labels,
		w.cfg.TrainFraction, w.cfg.ValFraction, w.cfg.TestFraction,
		modelselection.WithSeed(w.cfg.Seed), modelselection.WithStratify())
	if err != nil {
		return err
	}
	w.parts = parts
	w.report.TrainSize, w.report.ValSize, w.report.TestSize = parts.Sizes()
	return nil
}

// FitBaseline trains the learner with default parameters on the training
// partition and scores it on training and validation rows.
func (w *Workflow) FitBaseline() error {
	if len(w.parts.Train) == 0 {
		return errors.NewValueError("Workflow.FitBaseline", "no partition; run Partition first")
	}
	train := w.data.Select(w.parts.Train)
	m, err := w.backend.Fit(train.X, train.Labels, w.baselineParams())
	if err != nil {
		return err
	}
	rep, err := w.evaluateModel(m, train)
	if err != nil {
		return err
	}
	w.baseline = m
	w.report.Baseline = rep
	w.logger.Info("Stage complete: baseline",
		log.PhaseKey, log.PhaseValidation,
		log.AUCKey, rep.Validation.AUC)
	return nil
}

// Tune searches the hyperparameter grid by repeated stratified
// cross-validation on the training partition, refits the best candidate and
// scores it on validation rows.
func (w *Workflow) Tune() error {
	if len(w.parts.Train) == 0 {
		return errors.NewValueError("Workflow.Tune", "no partition; run Partition first")
	}
	grid := w.cfg.Grid
	if grid == nil {
		var err error
		grid, err = DefaultGrid(w.cfg.Learner)
		if err != nil {
			return err
		}
	}
	train := w.data.Select(w.parts.Train)
	m, summary, err := w.backend.CrossValidatedSearch(train.X, train.Labels, grid, w.cfg.CV)
	if err != nil {
		return err
	}
	rep, err := w.evaluateModel(m, nil)
	if err != nil {
		return err
	}
	w.tuned = m
	w.report.Search = summary
	w.report.Tuned = rep
	w.logger.Info("Stage complete: tune",
		log.PhaseKey, log.PhaseTuning,
		"best_score", summary.BestScore,
		log.AUCKey, rep.Validation.AUC)
	return nil
}

// FinalTest scores the chosen model on the test partition. The test rows are
// scored exactly once per workflow; a second call fails.
func (w *Workflow) FinalTest() error {
	if w.testDone {
		return errors.NewValidationError("final_test",
			"the test partition has already been scored", w.cfg.Policy.String())
	}
	if w.baseline == nil && w.tuned == nil {
		return errors.NewValueError("Workflow.FinalTest", "no fitted model; run FitBaseline first")
	}
	final, choice, err := w.chooseFinal()
	if err != nil {
		return err
	}
	test := w.data.Select(w.parts.Test)
	eval, err := w.evaluate(final, test)
	if err != nil {
		return err
	}
	w.testDone = true
	w.report.Policy = w.cfg.Policy.String()
	w.report.FinalChoice = choice
	w.report.Test = eval
	w.logger.Info("Stage complete: final test",
		log.PhaseKey, log.PhaseTesting,
		"final_model", choice,
		log.AUCKey, eval.AUC)
	return nil
}

// Run executes the full walkthrough in stage order, honoring SkipTune and
// stopping at the first failure.
func (w *Workflow) Run(ctx context.Context) error {
	stages := []struct {
		name string
		run  func() error
	}{
		{"load", func() error { return w.Load(ctx) }},
		{"clean", w.Clean},
		{"learning_curve", w.LearningCurve},
		{"partition", w.Partition},
		{"fit_baseline", w.FitBaseline},
		{"tune", w.Tune},
		{"final_test", w.FinalTest},
	}
	for _, stage := range stages {
		if stage.name == "tune" && w.cfg.SkipTune {
			w.logger.Info("Stage skipped: tune")
			continue
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "run stopped before %s stage", stage.name)
		}
		if err := stage.run(); err != nil {
			return errors.Wrapf(err, "%s stage failed", stage.name)
		}
	}
	return nil
}

// chooseFinal applies the final-model policy. Under FinalBestValidation the
// tuned model must beat the baseline validation AUC to be sent; a tie keeps
// the baseline.
func (w *Workflow) chooseFinal() (Model, string, error) {
	switch w.cfg.Policy {
	case FinalBaseline:
		if w.baseline == nil {
			return nil, "", errors.NewValueError("Workflow.FinalTest",
				"policy keeps the baseline model; run FitBaseline first")
		}
		return w.baseline, "baseline", nil
	case FinalTuned:
		if w.tuned == nil {
			return nil, "", errors.NewValueError("Workflow.FinalTest",
				"policy keeps the tuned model; run Tune first")
		}
		return w.tuned, "tuned", nil
	}
	if w.tuned == nil {
		return w.baseline, "baseline", nil
	}
	if w.baseline == nil {
		return w.tuned, "tuned", nil
	}
	if w.report.Tuned.Validation.AUC > w.report.Baseline.Validation.AUC {
		return w.tuned, "tuned", nil
	}
	return w.baseline, "baseline", nil
}

func (w *Workflow) baselineParams() map[string]interface{} {
	params := map[string]interface{}{"random_state": w.cfg.Seed}
	if w.cfg.Trees > 0 {
		params["n_estimators"] = w.cfg.Trees
	}
	return params
}

// evaluateModel packages parameters, importances and validation performance
// for one fitted model. When train is non-nil the training confusion matrix
// is included as well.
func (w *Workflow) evaluateModel(m Model, train *dataset.Dataset) (*ModelReport, error) {
	rep := &ModelReport{
		Params:      m.Params(),
		Importances: m.Importances(),
	}
	if train != nil {
		labels, _, err := w.backend.Predict(m, train.X)
		if err != nil {
			return nil, err
		}
		cm, err := labeledMatrix(train.Labels, labels, w.data.LabelNames)
		if err != nil {
			return nil, err
		}
		rep.Train = cm
	}
	val := w.data.Select(w.parts.Val)
	eval, err := w.evaluate(m, val)
	if err != nil {
		return nil, err
	}
	rep.Validation = eval
	return rep, nil
}

// evaluate predicts one partition and packages confusion matrix, ROC curve
// and AUC.
func (w *Workflow) evaluate(m Model, part *dataset.Dataset) (*EvalReport, error) {
	labels, scores, err := w.backend.Predict(m, part.X)
	if err != nil {
		return nil, err
	}
	cm, err := labeledMatrix(part.Labels, labels, part.LabelNames)
	if err != nil {
		return nil, err
	}
	curve, auc, err := w.backend.ROCAuc(scores, part.Labels)
	if err != nil {
		return nil, err
	}
	return &EvalReport{Matrix: cm, ROC: curve, AUC: auc}, nil
}

func sourceName(src dataset.Source) string {
	if src.Path != "" {
		return src.Path
	}
	return src.URL
}
