// Command winequality runs the red wine quality walkthrough end to end:
// fetch the UCI red wine data, recode quality into bad and good, check the
// predictors, sketch a learning curve, fit a baseline classifier, tune it by
// cross-validated random search and score the held-out test set exactly once.
//
// The report prints to stdout. With -out set, the learning curve, variable
// importances and ROC curves render as PNG files in that directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/oenolab/winequality/dataset"
	"github.com/oenolab/winequality/pipeline"
	"github.com/oenolab/winequality/pkg/errors"
	"github.com/oenolab/winequality/pkg/log"
	"github.com/oenolab/winequality/plotting"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.GetLoggerWithName("cmd.winequality").Error("Walkthrough failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("winequality", flag.ExitOnError)
	var (
		dataPath  = fs.String("data", "", "local CSV `path` (skips the download)")
		cachePath = fs.String("cache", "", "`path` for caching the downloaded CSV")
		outDir    = fs.String("out", "", "`directory` for the rendered figures")
		seed      = fs.Int64("seed", 42, "seed for partitioning, fitting and tuning")
		learner   = fs.String("learner", pipeline.LearnerForest, "model family: rf or gbdt")
		trees     = fs.Int("trees", 0, "baseline ensemble size, 0 keeps the default")
		tuneIters = fs.Int("tune-iters", 10, "random search candidates")
		skipTune  = fs.Bool("skip-tune", false, "skip the random search stage")
		finalName = fs.String("final", "best", "final model policy: best, baseline or tuned")
		logLevel  = fs.String("log-level", "info", "log level: debug, info, warn or error")
		logFormat = fs.String("log-format", "console", "log output: console or json")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := setupLogging(*logFormat, *logLevel); err != nil {
		return err
	}
	policy, err := finalPolicy(*finalName)
	if err != nil {
		return err
	}

	cfg := pipeline.DefaultConfig()
	cfg.Seed = *seed
	cfg.Learner = *learner
	cfg.Trees = *trees
	cfg.SkipTune = *skipTune
	cfg.Policy = policy
	cfg.CV.Iterations = *tuneIters
	cfg.CV.Seed = *seed
	cfg.Curve.Seed = *seed
	if *dataPath != "" {
		cfg.Source = dataset.Source{Path: *dataPath}
	} else if *cachePath != "" {
		cfg.Source.CachePath = *cachePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wf, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	if err := wf.Run(ctx); err != nil {
		return err
	}

	report := wf.Report()
	fmt.Println(report.String())

	if *outDir != "" {
		if err := renderFigures(report, *outDir); err != nil {
			return err
		}
	}
	return nil
}

// setupLogging validates the flag values itself; log.ToLogLevel panics on
// strings it does not know.
func setupLogging(format, level string) error {
	lv, ok := map[string]log.Level{
		"debug": log.LevelDebug,
		"info":  log.LevelInfo,
		"warn":  log.LevelWarn,
		"error": log.LevelError,
	}[level]
	if !ok {
		return errors.NewValidationError("log-level", "must be debug, info, warn or error", level)
	}
	switch format {
	case "console":
		log.SetupConsoleLogger(level)
	case "json":
		log.SetupLogger(level)
	default:
		return errors.NewValidationError("log-format", "must be console or json", format)
	}
	provider := log.NewSlogProvider()
	provider.SetLevel(lv)
	log.SetLoggerProvider(provider)
	return nil
}

func finalPolicy(name string) (pipeline.FinalModelPolicy, error) {
	switch name {
	case "best", "best_validation":
		return pipeline.FinalBestValidation, nil
	case "baseline":
		return pipeline.FinalBaseline, nil
	case "tuned":
		return pipeline.FinalTuned, nil
	}
	return 0, errors.NewValidationError("final", "must be best, baseline or tuned", name)
}

// renderFigures writes the walkthrough figures into dir. Report sections that
// never ran, such as the tuned model under -skip-tune, are left out.
func renderFigures(r *pipeline.Report, dir string) error {
	if r.Curve != nil {
		p, err := plotting.LearningCurvePlot(r.Curve)
		if err != nil {
			return err
		}
		if err := plotting.SavePNG(p, filepath.Join(dir, "learning_curve.png")); err != nil {
			return err
		}
	}
	if r.Baseline != nil {
		if err := modelFigures(r, r.Baseline, dir, "baseline"); err != nil {
			return err
		}
	}
	if r.Tuned != nil {
		if err := modelFigures(r, r.Tuned, dir, "tuned"); err != nil {
			return err
		}
	}
	if r.Test != nil {
		p, err := plotting.ROCPlot(r.Test.ROC, r.Test.AUC)
		if err != nil {
			return err
		}
		if err := plotting.SavePNG(p, filepath.Join(dir, "roc_test.png")); err != nil {
			return err
		}
	}
	log.GetLoggerWithName("cmd.winequality").Info("Figures rendered", "dir", dir)
	return nil
}

// modelFigures renders the importance bars and the validation ROC for one
// fitted model.
func modelFigures(r *pipeline.Report, m *pipeline.ModelReport, dir, tag string) error {
	p, err := plotting.ImportancePlot(r.Features, m.Importances)
	if err != nil {
		return err
	}
	if err := plotting.SavePNG(p, filepath.Join(dir, "importance_"+tag+".png")); err != nil {
		return err
	}
	if m.Validation == nil {
		return nil
	}
	roc, err := plotting.ROCPlot(m.Validation.ROC, m.Validation.AUC)
	if err != nil {
		return err
	}
	return plotting.SavePNG(roc, filepath.Join(dir, "roc_validation_"+tag+".png"))
}
