// Package lightgbm provides a pure Go LightGBM booster: model loading,
// prediction, a compact trainer and scikit-learn style estimators.
//
// # Loading Models
//
// Models saved by Python's LightGBM can be read in both formats:
//
//	// Text format (save_model / model_to_string)
//	model, err := lightgbm.LoadFromFile("model.txt")
//
//	// JSON format (dump_model)
//	model, err := lightgbm.LoadFromJSON(jsonData)
//
//	// Either format, wrapped in the matching estimator
//	est, err := lightgbm.LoadEstimator("model.txt")
//
// # scikit-learn Compatible API
//
//	clf := lightgbm.NewLGBMClassifier().WithNumIterations(50)
//	if err := clf.Fit(X, y); err != nil {
//	    return err
//	}
//	proba, _ := clf.PredictProba(X)
//	acc, _ := clf.Score(X, y)
//
// # Feature Importance
//
// Model.FeatureImportance returns raw totals over all trees: the number of
// splits per feature for "split" and the summed split gain for "gain". Only
// splits with positive gain count. Estimators expose the same values through
// FeatureImportances using their ImportanceType parameter.
//
//	booster, _ := clf.Booster()
//	gain, _ := booster.FeatureImportance("gain")
//
// # Training
//
// The trainer grows trees leaf-wise with exact greedy split finding and
// supports the regression (L2), binary and multiclass objectives. Bagging,
// GOSS, DART, feature bundling and histogram binning are not implemented.
//
// # Compatibility
//
// Prediction follows LightGBM's decision rules, including categorical
// bitsets and the None, Zero and NaN missing value types. Models trained here
// are saved in the LightGBM text format and can be loaded by LightGBM.
package lightgbm
