// Package goeli5 explains trained machine learning models written in Go.
//
// Given a fitted estimator, goeli5 reports which features drive its
// predictions: normalized split or gain importances for LightGBM tree
// ensembles and signed coefficients for linear models. Explanations can be
// rendered as text, JSON, YAML or bar charts, from Go code, from the goeli5
// command or from its HTTP service.
//
// # Quick Start
//
//	import (
//	    "os"
//
//	    "github.com/YuminosukeSato/goeli5/explain"
//	    "github.com/YuminosukeSato/goeli5/explain/format"
//	    _ "github.com/YuminosukeSato/goeli5/explain/lgbm"
//	    "github.com/YuminosukeSato/goeli5/sklearn/lightgbm"
//	)
//
//	func main() {
//	    clf, err := lightgbm.LoadEstimator("model.txt")
//	    if err != nil {
//	        panic(err)
//	    }
//	    expl, err := explain.ExplainWeights(clf,
//	        explain.WithTop(10),
//	        explain.WithImportanceType("gain"),
//	    )
//	    if err != nil {
//	        panic(err)
//	    }
//	    format.Text(os.Stdout, expl, format.TextOptions{})
//	}
//
// # Packages
//
//   - explain: explanation types, feature naming and filtering, dispatch registry
//   - explain/lgbm, explain/linear: adapters registered on import
//   - explain/format, explain/plot: renderers
//   - sklearn/lightgbm: LightGBM model loading, prediction and training
//   - linear, preprocessing, metrics: supporting estimators and transformers
//   - pkg/errors, pkg/log, pkg/config, pkg/metrics, pkg/cli: ambient infrastructure
//
// # Command line
//
//	goeli5 explain --top 5 model.txt
//	goeli5 --format json explain --importance-type split a.txt b.json
//	goeli5 serve --addr :8080 --model-dir ./models
package goeli5
