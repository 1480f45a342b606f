package lightgbm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/core/model"
	"github.com/YuminosukeSato/goeli5/metrics"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
)

// LGBMRegressor implements a LightGBM regressor with scikit-learn compatible API
type LGBMRegressor struct {
	model.StateManager
	Params

	Model  *Model
	logger log.Logger
}

// NewLGBMRegressor creates a new LightGBM regressor with default parameters
func NewLGBMRegressor() *LGBMRegressor {
	return &LGBMRegressor{
		Params: DefaultParams(),
		logger: log.GetLoggerWithName("lightgbm.regressor"),
	}
}

// WithNumLeaves sets the number of leaves
func (lgb *LGBMRegressor) WithNumLeaves(n int) *LGBMRegressor {
	lgb.NumLeaves = n
	return lgb
}

// WithMaxDepth sets the maximum depth
func (lgb *LGBMRegressor) WithMaxDepth(d int) *LGBMRegressor {
	lgb.MaxDepth = d
	return lgb
}

// WithLearningRate sets the learning rate
func (lgb *LGBMRegressor) WithLearningRate(lr float64) *LGBMRegressor {
	lgb.LearningRate = lr
	return lgb
}

// WithNumIterations sets the number of iterations
func (lgb *LGBMRegressor) WithNumIterations(n int) *LGBMRegressor {
	lgb.NumIterations = n
	return lgb
}

// WithMinChildSamples sets the minimum number of samples per leaf
func (lgb *LGBMRegressor) WithMinChildSamples(n int) *LGBMRegressor {
	lgb.MinChildSamples = n
	return lgb
}

// WithImportanceType sets the type used by FeatureImportances
func (lgb *LGBMRegressor) WithImportanceType(t string) *LGBMRegressor {
	lgb.ImportanceType = t
	return lgb
}

// WithFeatureNames sets the feature names stored in the model
func (lgb *LGBMRegressor) WithFeatureNames(names []string) *LGBMRegressor {
	lgb.FeatureNames = append([]string(nil), names...)
	return lgb
}

// Fit trains the LightGBM regressor
func (lgb *LGBMRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LGBMRegressor.Fit")

	objective := objectiveOr(lgb.Objective, RegressionL2)
	if ObjectiveType(objective).IsClassification() {
		return errors.NewValidationError("objective", "classification objective on a regressor", objective)
	}

	trained, err := NewTrainer(lgb.trainingParams(objective, 1)).Fit(X, y)
	if err != nil {
		return err
	}
	lgb.Model = trained
	rows, cols := X.Dims()
	lgb.SetDimensions(cols, rows)
	lgb.SetFitted()
	return nil
}

// LoadModel loads a pre-trained LightGBM model from a text or JSON file
func (lgb *LGBMRegressor) LoadModel(path string) error {
	m, err := LoadModel(path)
	if err != nil {
		return err
	}
	return lgb.setModel(m)
}

// LoadModelFromString loads a model from string format
func (lgb *LGBMRegressor) LoadModelFromString(modelStr string) error {
	m, err := LoadFromString(modelStr)
	if err != nil {
		return err
	}
	return lgb.setModel(m)
}

func (lgb *LGBMRegressor) setModel(m *Model) error {
	if m.Objective.IsClassification() {
		return errors.NewValidationError("objective", "classification model loaded into a regressor", string(m.Objective))
	}
	lgb.Model = m
	lgb.Objective = string(m.Objective)
	lgb.SetDimensions(m.NumFeatures, 0)
	lgb.SetFitted()
	lgb.logger.Debug("model loaded",
		log.OperationKey, log.OperationLoad,
		log.ObjectiveKey, string(m.Objective),
		log.TreesKey, len(m.Trees),
	)
	return nil
}

// Booster returns the trained model
func (lgb *LGBMRegressor) Booster() (*Model, error) {
	if lgb == nil || !lgb.IsFitted() || lgb.Model == nil {
		return nil, errors.NewNotFittedError("LGBMRegressor", "Booster")
	}
	return lgb.Model, nil
}

// Predict makes predictions for input samples
func (lgb *LGBMRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	booster, err := lgb.Booster()
	if err != nil {
		return nil, err
	}
	if err := checkFeatures("LGBMRegressor.Predict", booster, X); err != nil {
		return nil, err
	}
	return booster.Predict(X)
}

// Score returns the coefficient of determination R^2 of the prediction
func (lgb *LGBMRegressor) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lgb.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := metrics.ColumnVector("LGBMRegressor.Score", y)
	if err != nil {
		return 0, err
	}
	yPred, err := metrics.ColumnVector("LGBMRegressor.Score", predictions)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yTrue, yPred)
}

// FeatureImportances returns the raw importances of the configured ImportanceType
func (lgb *LGBMRegressor) FeatureImportances() ([]float64, error) {
	booster, err := lgb.Booster()
	if err != nil {
		return nil, err
	}
	return booster.FeatureImportance(lgb.ImportanceType)
}

// EstimatorType implements model.Typed.
func (lgb *LGBMRegressor) EstimatorType() string {
	return model.RegressorType
}

// FeatureNamesIn implements model.FeatureNamer.
func (lgb *LGBMRegressor) FeatureNamesIn() []string {
	return featureNamesIn(lgb.Model)
}

func (lgb *LGBMRegressor) String() string {
	return lgb.repr("LGBMRegressor")
}
