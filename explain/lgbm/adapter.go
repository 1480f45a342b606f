// Package lgbm explains LightGBM estimators by their normalized feature
// importances. Importing it registers LGBMClassifier and LGBMRegressor in
// explain.Default.
package lgbm

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/goeli5/core/model"
	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/sklearn/lightgbm"
)

// DescriptionLightGBM is attached to every LightGBM explanation.
const DescriptionLightGBM = "LightGBM feature importances; values are numbers 0 <= x <= 1;\nall values sum to 1."

func init() {
	Register(explain.Default)
}

// Register adds the LightGBM estimators to r.
func Register(r *explain.Registry) {
	explain.RegisterWeights(r, func(est *lightgbm.LGBMClassifier, req explain.Request) (*explain.Explanation, error) {
		return ExplainWeights(est, req)
	})
	explain.RegisterWeights(r, func(est *lightgbm.LGBMRegressor, req explain.Request) (*explain.Explanation, error) {
		return ExplainWeights(est, req)
	})
}

// ExplainWeights returns the importances of est's booster, normalized to
// sum to 1, as an explanation. TargetNames and Targets are ignored.
func ExplainWeights(est lightgbm.Estimator, req explain.Request) (*explain.Explanation, error) {
	coef, err := FeatureImportances(est, req.ImportanceType)
	if err != nil {
		return nil, err
	}
	return explain.GetFeatureImportanceExplanation(
		est,
		req.Vectorizer,
		coef,
		nil,
		req,
		DescriptionLightGBM,
		len(coef),
		model.IsRegressor(est),
	)
}

// FeatureImportances returns the booster's importances of the given type
// divided by their sum. An all-zero vector is returned unchanged.
func FeatureImportances(est lightgbm.Estimator, importanceType string) ([]float64, error) {
	booster, err := est.Booster()
	if err != nil {
		return nil, err
	}
	coef, err := booster.FeatureImportance(importanceType)
	if err != nil {
		return nil, err
	}
	if norm := floats.Sum(coef); norm != 0 {
		for i := range coef {
			coef[i] /= norm
		}
	}
	return coef, nil
}
