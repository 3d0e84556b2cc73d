// Package winequality is a Go walkthrough of binary classification on the
// UCI red wine quality data: can the physicochemical readings of a wine
// predict whether tasters scored it good?
//
// The module reproduces a complete small-data modeling study. It downloads
// the semicolon-separated CSV, recodes the 0-10 quality score into bad and
// good at a configurable cut, checks the predictors, sketches a learning
// curve, fits a baseline random forest, tunes it by cross-validated random
// search and scores the held-out test set exactly once.
//
// # Features
//
//   - Reproducible: every split, fit and search is seedable
//   - Honest evaluation: disjoint train/validation/test partitions, the test
//     set scored once per run under an explicit final-model policy
//   - Swappable learners: random forest and gradient boosting behind one
//     backend interface
//   - Figures: learning curve, variable importances and ROC curves as PNGs
//
// # Installation
//
// Install with go get:
//
//	go get github.com/oenolab/winequality
//
// # Quick Start
//
// Run the whole walkthrough and print the report:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/oenolab/winequality/pipeline"
//	)
//
//	func main() {
//	    wf, err := pipeline.New(pipeline.DefaultConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := wf.Run(context.Background()); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(wf.Report())
//	}
//
// Or use the command:
//
//	go run ./cmd/winequality -out figures
//
// # Packages
//
// The module is organized into several packages:
//
//   - dataset: fetch, parse, summarize and recode the red wine CSV
//   - modelselection: stratified splits, repeated k-fold CV, random search
//     and learning curves
//   - ensemble: random forest and gradient boosting classifiers
//   - metrics: confusion matrices and ROC/AUC
//   - pipeline: the walkthrough stages behind a swappable model backend
//   - plotting: the walkthrough figures
//   - core/model: estimator interfaces and fitted-state tracking
//   - core/parallel: worker pools for tree building
//   - pkg/errors, pkg/log: error types and structured logging
//
// # License
//
// Released under the MIT License.
package winequality
