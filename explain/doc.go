// Package explain builds feature weight explanations for trained estimators.
//
// Estimator packages register a WeightsFunc for their concrete types in a
// Registry; ExplainWeights dispatches on the dynamic type of the estimator.
// Adapters register themselves into Default when imported, in the same way
// database/sql drivers do:
//
//	import (
//	    "github.com/YuminosukeSato/goeli5/explain"
//	    _ "github.com/YuminosukeSato/goeli5/explain/lgbm"
//	)
//
//	expl, err := explain.ExplainWeights(clf, explain.WithTop(10))
//
// The shared engine (FeatureNames, GetFeatureImportanceExplanation,
// GetTopFeatures) resolves feature names, applies the feature filters and
// selects the top features, so adapters only need to extract coefficients.
package explain
