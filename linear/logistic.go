package linear

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/core/model"
	"github.com/YuminosukeSato/goeli5/core/parallel"
	"github.com/YuminosukeSato/goeli5/metrics"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
)

// LogisticRegression はL2正則化付きロジスティック回帰
//
// 2クラスでは係数は1行（classes[1] が正例）、3クラス以上では
// one-vs-rest でクラスごとに1行を持つ。
type LogisticRegression struct {
	model.StateManager

	c            float64
	fitIntercept bool
	maxIter      int
	tol          float64
	featureNames []string

	coef      [][]float64
	intercept []float64
	classes   []float64
	logger    log.Logger
}

// NewLogisticRegression creates a classifier with C=1, intercept on,
// max_iter=100 and tol=1e-4.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		c:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
		logger:       log.GetLoggerWithName("linear.logistic"),
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はバッチ勾配降下法で係数を推定する
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LogisticRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if lr.c <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.c)
	}
	if lr.featureNames != nil && len(lr.featureNames) != c {
		return errors.NewDimensionError("LogisticRegression.Fit", len(lr.featureNames), c, 1)
	}

	classes := uniqueLabels(y)
	if len(classes) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "y needs at least two classes")
	}

	positives := classes[1:]
	if len(classes) > 2 {
		positives = classes
	}
	coef := make([][]float64, len(positives))
	intercept := make([]float64, len(positives))
	parallel.Parallelize(len(positives), func(start, end int) {
		for k := start; k < end; k++ {
			target := make([]float64, r)
			for i := range target {
				if y.At(i, 0) == positives[k] {
					target[i] = 1
				}
			}
			coef[k], intercept[k] = lr.fitBinary(X, target)
		}
	})

	lr.coef, lr.intercept, lr.classes = coef, intercept, classes
	lr.SetDimensions(c, r)
	lr.SetFitted()
	lr.logger.Debug("fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		"classes", len(classes),
	)
	return nil
}

// fitBinary minimizes mean log loss + ||w||^2 / (2 C n).
func (lr *LogisticRegression) fitBinary(X mat.Matrix, target []float64) ([]float64, float64) {
	r, c := X.Dims()
	w := make([]float64, c)
	b := 0.0
	grad := make([]float64, c)
	lambda := 1.0 / (lr.c * float64(r))
	const baseRate = 1.0

	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range grad {
			grad[j] = lambda * w[j]
		}
		gradB := 0.0
		for i := 0; i < r; i++ {
			z := b
			for j := 0; j < c; j++ {
				z += X.At(i, j) * w[j]
			}
			diff := (sigmoid(z) - target[i]) / float64(r)
			gradB += diff
			for j := 0; j < c; j++ {
				grad[j] += diff * X.At(i, j)
			}
		}

		rate := baseRate / (1 + 0.01*float64(iter))
		maxGrad := 0.0
		for j := range w {
			w[j] -= rate * grad[j]
			maxGrad = math.Max(maxGrad, math.Abs(grad[j]))
		}
		if lr.fitIntercept {
			b -= rate * gradB
			maxGrad = math.Max(maxGrad, math.Abs(gradB))
		}
		if maxGrad < lr.tol {
			break
		}
	}
	return w, b
}

// DecisionFunction returns one column of scores per coefficient row.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "DecisionFunction")
	}
	r, c := X.Dims()
	if c != len(lr.coef[0]) {
		return nil, errors.NewDimensionError("LogisticRegression.DecisionFunction", len(lr.coef[0]), c, 1)
	}
	scores := mat.NewDense(r, len(lr.coef), nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for k, w := range lr.coef {
				z := lr.intercept[k]
				for j := 0; j < c; j++ {
					z += X.At(i, j) * w[j]
				}
				scores.Set(i, k, z)
			}
		}
	})
	return scores, nil
}

// PredictProba returns one column of probabilities per class. One-vs-rest
// scores are normalized to sum to 1 per row.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	r, _ := scores.Dims()
	proba := mat.NewDense(r, len(lr.classes), nil)
	for i := 0; i < r; i++ {
		if len(lr.coef) == 1 {
			p := sigmoid(scores.At(i, 0))
			proba.Set(i, 0, 1-p)
			proba.Set(i, 1, p)
			continue
		}
		sum := 0.0
		for k := range lr.classes {
			p := sigmoid(scores.At(i, k))
			proba.Set(i, k, p)
			sum += p
		}
		for k := range lr.classes {
			proba.Set(i, k, proba.At(i, k)/sum)
		}
	}
	return proba, nil
}

// Predict returns the most probable class label per row.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, k := proba.Dims()
	pred := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for j := 1; j < k; j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		pred.Set(i, 0, lr.classes[best])
	}
	return pred, nil
}

// Score returns the accuracy on (X, y).
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := metrics.ColumnVector("LogisticRegression.Score", y)
	if err != nil {
		return 0, err
	}
	yHat, err := metrics.ColumnVector("LogisticRegression.Score", pred)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(yTrue, yHat)
}

// Coef returns a copy of the coefficient rows.
func (lr *LogisticRegression) Coef() [][]float64 {
	out := make([][]float64, len(lr.coef))
	for k, row := range lr.coef {
		out[k] = append([]float64(nil), row...)
	}
	return out
}

// Intercept returns a copy of the intercepts, one per coefficient row.
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept...)
}

// Classes implements model.Classifier.
func (lr *LogisticRegression) Classes() []float64 {
	return append([]float64(nil), lr.classes...)
}

// EstimatorType implements model.Typed.
func (lr *LogisticRegression) EstimatorType() string {
	return model.ClassifierType
}

// FeatureNamesIn implements model.FeatureNamer.
func (lr *LogisticRegression) FeatureNamesIn() []string {
	return lr.featureNames
}

// GetParams implements model.ParameterGetter.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams implements model.ParameterSetter.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "C", "tol":
			v, ok := value.(float64)
			if !ok || v <= 0 {
				return errors.NewValidationError(key, "must be a positive float", value)
			}
			if key == "C" {
				lr.c = v
			} else {
				lr.tol = v
			}
		case "fit_intercept":
			v, ok := value.(bool)
			if !ok {
				return errors.NewValidationError(key, "must be a bool", value)
			}
			lr.fitIntercept = v
		case "max_iter":
			v, ok := value.(int)
			if !ok || v <= 0 {
				return errors.NewValidationError(key, "must be a positive int", value)
			}
			lr.maxIter = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(C=%g, fit_intercept=%t)", lr.c, lr.fitIntercept)
}

func uniqueLabels(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	seen := make(map[float64]struct{})
	for i := 0; i < r; i++ {
		seen[y.At(i, 0)] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for v := range seen {
		labels = append(labels, v)
	}
	sort.Float64s(labels)
	return labels
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

var _ model.Classifier = (*LogisticRegression)(nil)
