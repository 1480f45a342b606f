package lightgbm

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/core/model"
	"github.com/YuminosukeSato/goeli5/metrics"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
)

// LGBMClassifier implements a LightGBM classifier with scikit-learn
// compatible API. Binary problems use the "binary" objective and problems
// with more classes use "multiclass".
type LGBMClassifier struct {
	model.StateManager
	Params

	Model   *Model
	classes []float64
	logger  log.Logger
}

// NewLGBMClassifier creates a new LightGBM classifier with default parameters
func NewLGBMClassifier() *LGBMClassifier {
	return &LGBMClassifier{
		Params: DefaultParams(),
		logger: log.GetLoggerWithName("lightgbm.classifier"),
	}
}

// WithNumLeaves sets the number of leaves
func (lgb *LGBMClassifier) WithNumLeaves(n int) *LGBMClassifier {
	lgb.NumLeaves = n
	return lgb
}

// WithMaxDepth sets the maximum depth
func (lgb *LGBMClassifier) WithMaxDepth(d int) *LGBMClassifier {
	lgb.MaxDepth = d
	return lgb
}

// WithLearningRate sets the learning rate
func (lgb *LGBMClassifier) WithLearningRate(lr float64) *LGBMClassifier {
	lgb.LearningRate = lr
	return lgb
}

// WithNumIterations sets the number of iterations
func (lgb *LGBMClassifier) WithNumIterations(n int) *LGBMClassifier {
	lgb.NumIterations = n
	return lgb
}

// WithMinChildSamples sets the minimum number of samples per leaf
func (lgb *LGBMClassifier) WithMinChildSamples(n int) *LGBMClassifier {
	lgb.MinChildSamples = n
	return lgb
}

// WithImportanceType sets the type used by FeatureImportances
func (lgb *LGBMClassifier) WithImportanceType(t string) *LGBMClassifier {
	lgb.ImportanceType = t
	return lgb
}

// WithFeatureNames sets the feature names stored in the model
func (lgb *LGBMClassifier) WithFeatureNames(names []string) *LGBMClassifier {
	lgb.FeatureNames = append([]string(nil), names...)
	return lgb
}

// Fit trains the classifier. Labels may be any float values; they are
// mapped to 0..K-1 in sorted order.
func (lgb *LGBMClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LGBMClassifier.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows != yRows {
		return errors.NewDimensionError("LGBMClassifier.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LGBMClassifier.Fit", "y must be a column vector")
	}

	classes := uniqueSorted(y)
	if len(classes) < 2 {
		return errors.NewValueError("LGBMClassifier.Fit", "y must contain at least two classes")
	}
	index := make(map[float64]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		encoded.Set(i, 0, float64(index[y.At(i, 0)]))
	}

	objective, numClass := string(BinaryLogistic), 1
	if len(classes) > 2 {
		objective, numClass = string(MulticlassSoftmax), len(classes)
	}
	if lgb.Objective != "" && lgb.Objective != objective {
		return errors.NewValidationError("objective", "does not match the number of classes", lgb.Objective)
	}

	trained, err := NewTrainer(lgb.trainingParams(objective, numClass)).Fit(X, encoded)
	if err != nil {
		return err
	}
	lgb.Model = trained
	lgb.classes = classes
	lgb.SetDimensions(cols, rows)
	lgb.SetFitted()
	return nil
}

func uniqueSorted(y mat.Matrix) []float64 {
	rows, _ := y.Dims()
	seen := map[float64]struct{}{}
	var out []float64
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// LoadModel loads a pre-trained LightGBM model from a text or JSON file
func (lgb *LGBMClassifier) LoadModel(path string) error {
	m, err := LoadModel(path)
	if err != nil {
		return err
	}
	return lgb.setModel(m)
}

// LoadModelFromString loads a model from string format
func (lgb *LGBMClassifier) LoadModelFromString(modelStr string) error {
	m, err := LoadFromString(modelStr)
	if err != nil {
		return err
	}
	return lgb.setModel(m)
}

func (lgb *LGBMClassifier) setModel(m *Model) error {
	if !m.Objective.IsClassification() {
		return errors.NewValidationError("objective", "regression model loaded into a classifier", string(m.Objective))
	}
	numClass := m.NumClass
	if numClass < 2 {
		numClass = 2
	}
	lgb.classes = make([]float64, numClass)
	for i := range lgb.classes {
		lgb.classes[i] = float64(i)
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
func (lgb *LGBMClassifier) Booster() (*Model, error) {
	if lgb == nil || !lgb.IsFitted() || lgb.Model == nil {
		return nil, errors.NewNotFittedError("LGBMClassifier", "Booster")
	}
	return lgb.Model, nil
}

// Classes returns the class labels in the column order of PredictProba.
func (lgb *LGBMClassifier) Classes() []float64 {
	return append([]float64(nil), lgb.classes...)
}

// PredictProba returns one column of probabilities per class.
func (lgb *LGBMClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	booster, err := lgb.Booster()
	if err != nil {
		return nil, err
	}
	if err := checkFeatures("LGBMClassifier.PredictProba", booster, X); err != nil {
		return nil, err
	}
	scores, err := booster.Predict(X)
	if err != nil {
		return nil, err
	}

	rows, k := scores.Dims()
	if k > 1 {
		return scores, nil
	}
	proba := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		p := scores.At(i, 0)
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

// Predict returns the most probable class label for each sample.
func (lgb *LGBMClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lgb.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, k := proba.Dims()
	labels := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		best := 0
		for c := 1; c < k; c++ {
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		labels.Set(i, 0, lgb.classes[best])
	}
	return labels, nil
}

// Score returns the mean accuracy on the given data
func (lgb *LGBMClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lgb.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := metrics.ColumnVector("LGBMClassifier.Score", y)
	if err != nil {
		return 0, err
	}
	yPred, err := metrics.ColumnVector("LGBMClassifier.Score", predictions)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(yTrue, yPred)
}

// FeatureImportances returns the raw importances of the configured ImportanceType
func (lgb *LGBMClassifier) FeatureImportances() ([]float64, error) {
	booster, err := lgb.Booster()
	if err != nil {
		return nil, err
	}
	return booster.FeatureImportance(lgb.ImportanceType)
}

// EstimatorType implements model.Typed.
func (lgb *LGBMClassifier) EstimatorType() string {
	return model.ClassifierType
}

// FeatureNamesIn implements model.FeatureNamer.
func (lgb *LGBMClassifier) FeatureNamesIn() []string {
	return featureNamesIn(lgb.Model)
}

func (lgb *LGBMClassifier) String() string {
	return lgb.repr("LGBMClassifier")
}
