package lightgbm

import (
	"math"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

const probabilityEpsilon = 1e-15

// ObjectiveFunction computes first and second order gradients of a loss.
// Scores and gradients are laid out per model: scores[k][i] is the raw
// score of sample i for the k-th tree of an iteration.
type ObjectiveFunction interface {
	// Name returns the objective as written in model files
	Name() ObjectiveType

	// NumModels is the number of trees grown per iteration
	NumModels() int

	// ValidateLabels rejects labels the objective cannot handle
	ValidateLabels(y []float64) error

	// InitScores returns the boost-from-average starting score per model
	InitScores(y []float64) []float64

	// Gradients fills grad and hess for the current scores
	Gradients(y []float64, scores, grad, hess [][]float64)

	// Loss returns the mean training loss
	Loss(y []float64, scores [][]float64) float64
}

// NewObjective returns the objective registered under name.
func NewObjective(name string, numClass int) (ObjectiveFunction, error) {
	switch ObjectiveType(name) {
	case RegressionL2, "l2", "mse", "mean_squared_error", "regression_l2":
		return &L2Objective{}, nil
	case BinaryLogistic:
		return &BinaryObjective{}, nil
	case MulticlassSoftmax, "softmax":
		if numClass < 2 {
			return nil, errors.NewValidationError("num_class", "must be >= 2 for multiclass", numClass)
		}
		return &MulticlassObjective{numClass: numClass}, nil
	}
	return nil, errors.NewValidationError("objective", "unsupported objective", name)
}

// L2Objective implements L2 (Mean Squared Error) loss
type L2Objective struct{}

func (o *L2Objective) Name() ObjectiveType { return RegressionL2 }
func (o *L2Objective) NumModels() int      { return 1 }

func (o *L2Objective) ValidateLabels(y []float64) error {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError("label", "must be finite", v)
		}
	}
	return nil
}

func (o *L2Objective) InitScores(y []float64) []float64 {
	return []float64{mean(y)}
}

func (o *L2Objective) Gradients(y []float64, scores, grad, hess [][]float64) {
	for i, target := range y {
		grad[0][i] = scores[0][i] - target
		hess[0][i] = 1.0
	}
}

func (o *L2Objective) Loss(y []float64, scores [][]float64) float64 {
	var sum float64
	for i, target := range y {
		d := scores[0][i] - target
		sum += d * d
	}
	return sum / float64(len(y))
}

// BinaryObjective implements logistic loss for labels in {0, 1}.
type BinaryObjective struct{}

func (o *BinaryObjective) Name() ObjectiveType { return BinaryLogistic }
func (o *BinaryObjective) NumModels() int      { return 1 }

func (o *BinaryObjective) ValidateLabels(y []float64) error {
	for _, v := range y {
		if v != 0 && v != 1 {
			return errors.NewValidationError("label", "binary labels must be 0 or 1", v)
		}
	}
	return nil
}

func (o *BinaryObjective) InitScores(y []float64) []float64 {
	p := clipProbability(mean(y))
	return []float64{math.Log(p / (1 - p))}
}

func (o *BinaryObjective) Gradients(y []float64, scores, grad, hess [][]float64) {
	for i, target := range y {
		p := sigmoid(scores[0][i])
		grad[0][i] = p - target
		hess[0][i] = p * (1 - p)
	}
}

func (o *BinaryObjective) Loss(y []float64, scores [][]float64) float64 {
	var sum float64
	for i, target := range y {
		p := clipProbability(sigmoid(scores[0][i]))
		sum -= target*math.Log(p) + (1-target)*math.Log(1-p)
	}
	return sum / float64(len(y))
}

// MulticlassObjective implements softmax cross-entropy for labels
// 0..numClass-1. One tree per class is grown each iteration.
type MulticlassObjective struct {
	numClass int
}

func (o *MulticlassObjective) Name() ObjectiveType { return MulticlassSoftmax }
func (o *MulticlassObjective) NumModels() int      { return o.numClass }

func (o *MulticlassObjective) ValidateLabels(y []float64) error {
	for _, v := range y {
		if v != math.Trunc(v) || v < 0 || int(v) >= o.numClass {
			return errors.NewValidationError("label", "multiclass labels must be integers in [0, num_class)", v)
		}
	}
	return nil
}

// InitScores is zero for every class: softmax does not boost from average.
func (o *MulticlassObjective) InitScores(y []float64) []float64 {
	return make([]float64, o.numClass)
}

func (o *MulticlassObjective) Gradients(y []float64, scores, grad, hess [][]float64) {
	factor := float64(o.numClass) / float64(o.numClass-1)
	row := make([]float64, o.numClass)
	for i, target := range y {
		for k := range row {
			row[k] = scores[k][i]
		}
		softmaxInPlace(row)
		for k, p := range row {
			indicator := 0.0
			if int(target) == k {
				indicator = 1.0
			}
			grad[k][i] = p - indicator
			hess[k][i] = factor * p * (1 - p)
		}
	}
}

func (o *MulticlassObjective) Loss(y []float64, scores [][]float64) float64 {
	row := make([]float64, o.numClass)
	var sum float64
	for i, target := range y {
		for k := range row {
			row[k] = scores[k][i]
		}
		softmaxInPlace(row)
		sum -= math.Log(clipProbability(row[int(target)]))
	}
	return sum / float64(len(y))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clipProbability(p float64) float64 {
	return math.Min(math.Max(p, probabilityEpsilon), 1-probabilityEpsilon)
}
