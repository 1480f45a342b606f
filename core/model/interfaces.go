// Package model provides the estimator interfaces shared by every model
// family and by the explanation registry.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Estimator roles, mirroring scikit-learn's _estimator_type.
const (
	ClassifierType = "classifier"
	RegressorType  = "regressor"
)

// Typed is implemented by estimators that declare their role.
type Typed interface {
	// EstimatorType returns ClassifierType or RegressorType.
	EstimatorType() string
}

// IsRegressor reports whether est declares itself a regressor.
func IsRegressor(est interface{}) bool {
	t, ok := est.(Typed)
	return ok && t.EstimatorType() == RegressorType
}

// IsClassifier reports whether est declares itself a classifier.
func IsClassifier(est interface{}) bool {
	t, ok := est.(Typed)
	return ok && t.EstimatorType() == ClassifierType
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns R^2 for regressors and accuracy for classifiers.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Estimator
	Scorer
	Typed
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Scorer
	Typed

	// PredictProba returns probability estimates for each class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the class labels seen during fitting.
	Classes() []float64
}

// FeatureNamer is implemented by estimators that remember the feature
// names they were trained or loaded with.
type FeatureNamer interface {
	FeatureNamesIn() []string
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}
