package lightgbm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/core/parallel"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// NodeType represents the type of a tree node
type NodeType int

const (
	// LeafNode represents a terminal node with a value
	LeafNode NodeType = iota
	// NumericalNode represents a node with numerical split
	NumericalNode
	// CategoricalNode represents a node with categorical split
	CategoricalNode
)

// MissingType describes how a split routes missing values.
type MissingType int

const (
	MissingNone MissingType = iota // NaN is treated as 0
	MissingZero                    // 0 goes in the default direction
	MissingNaN                     // NaN goes in the default direction
)

func (m MissingType) String() string {
	switch m {
	case MissingZero:
		return "Zero"
	case MissingNaN:
		return "NaN"
	default:
		return "None"
	}
}

// Node represents a single node in a decision tree.
// LeftChild and RightChild index into Tree.Nodes; both are -1 for leaves.
type Node struct {
	LeftChild  int
	RightChild int
	NodeType   NodeType

	// Split information (for non-leaf nodes)
	SplitFeature int
	Threshold    float64
	Categories   []int
	DefaultLeft  bool
	MissingType  MissingType
	Gain         float64

	// Leaf information (for leaf nodes)
	LeafValue float64
	LeafCount int

	InternalCount int
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree represents a single decision tree in the ensemble. Nodes[0] is the
// root. Leaf values already include the shrinkage rate.
type Tree struct {
	TreeIndex     int
	NumLeaves     int
	ShrinkageRate float64
	Nodes         []Node
}

// Predict makes a prediction for a single sample using this tree
func (t *Tree) Predict(features []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	nodeID := 0
	for {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return node.LeafValue
		}
		if node.goLeft(features[node.SplitFeature]) {
			nodeID = node.LeftChild
		} else {
			nodeID = node.RightChild
		}
	}
}

const zeroThreshold = 1e-35

func isZero(v float64) bool {
	return v >= -zeroThreshold && v <= zeroThreshold
}

func (n *Node) goLeft(fval float64) bool {
	if n.NodeType == CategoricalNode {
		if math.IsNaN(fval) || fval < 0 {
			return false
		}
		iv := int(fval)
		for _, c := range n.Categories {
			if c == iv {
				return true
			}
		}
		return false
	}

	if math.IsNaN(fval) && n.MissingType != MissingNaN {
		fval = 0
	}
	if (n.MissingType == MissingZero && isZero(fval)) || (n.MissingType == MissingNaN && math.IsNaN(fval)) {
		return n.DefaultLeft
	}
	return fval <= n.Threshold
}

// ObjectiveType represents the objective function type
type ObjectiveType string

const (
	RegressionL2      ObjectiveType = "regression"
	RegressionL1      ObjectiveType = "regression_l1"
	RegressionHuber   ObjectiveType = "huber"
	RegressionPoisson ObjectiveType = "poisson"
	RegressionGamma   ObjectiveType = "gamma"
	RegressionTweedie ObjectiveType = "tweedie"

	BinaryLogistic     ObjectiveType = "binary"
	BinaryCrossEntropy ObjectiveType = "cross_entropy"

	MulticlassSoftmax ObjectiveType = "multiclass"
	MulticlassOVA     ObjectiveType = "multiclassova"

	LambdaRank ObjectiveType = "lambdarank"
)

// IsClassification reports whether the objective produces class scores.
func (o ObjectiveType) IsClassification() bool {
	switch o {
	case BinaryLogistic, BinaryCrossEntropy, MulticlassSoftmax, MulticlassOVA:
		return true
	}
	return false
}

// Importance types accepted by Model.FeatureImportance.
const (
	ImportanceSplit = "split"
	ImportanceGain  = "gain"
)

const predictParallelThreshold = 256

// Model is a LightGBM booster: an ensemble of trees plus the metadata needed
// to turn raw scores into predictions.
type Model struct {
	Objective           ObjectiveType
	Sigmoid             float64
	NumClass            int
	NumTreePerIteration int
	NumFeatures         int
	FeatureNames        []string

	Trees []Tree

	// BestIteration limits prediction and importance to the first
	// BestIteration iterations. Zero means all.
	BestIteration int

	Version    string
	Parameters map[string]string
}

// NewModel creates a new empty LightGBM model
func NewModel() *Model {
	return &Model{
		Objective:           RegressionL2,
		Sigmoid:             1.0,
		NumClass:            1,
		NumTreePerIteration: 1,
		Parameters:          make(map[string]string),
	}
}

// NumIterations returns the number of boosting rounds stored in the model.
func (m *Model) NumIterations() int {
	k := m.treesPerIteration()
	return len(m.Trees) / k
}

func (m *Model) treesPerIteration() int {
	if m.NumTreePerIteration < 1 {
		return 1
	}
	return m.NumTreePerIteration
}

func (m *Model) numTrees(iteration int) int {
	total := len(m.Trees)
	if iteration <= 0 {
		return total
	}
	if n := iteration * m.treesPerIteration(); n < total {
		return n
	}
	return total
}

// FeatureImportance returns the raw per-feature importance totals, using
// BestIteration when it is set.
//
// "split" counts how many times each feature is used in a split and "gain"
// sums the gains of those splits. Only splits with positive gain are
// counted. The values are not normalized.
func (m *Model) FeatureImportance(importanceType string) ([]float64, error) {
	return m.FeatureImportanceAt(importanceType, m.BestIteration)
}

// FeatureImportanceAt is FeatureImportance restricted to the first
// iteration rounds. iteration <= 0 uses every tree.
func (m *Model) FeatureImportanceAt(importanceType string, iteration int) ([]float64, error) {
	if importanceType != ImportanceSplit && importanceType != ImportanceGain {
		return nil, errors.NewValidationError("importance_type", "must be 'split' or 'gain'", importanceType)
	}

	importance := make([]float64, m.NumFeatures)
	for t := 0; t < m.numTrees(iteration); t++ {
		for _, node := range m.Trees[t].Nodes {
			if node.IsLeaf() || node.Gain <= 0 {
				continue
			}
			if node.SplitFeature < 0 || node.SplitFeature >= m.NumFeatures {
				return nil, errors.NewModelError("Model.FeatureImportance", "split feature out of range", nil)
			}
			if importanceType == ImportanceSplit {
				importance[node.SplitFeature]++
			} else {
				importance[node.SplitFeature] += node.Gain
			}
		}
	}
	return importance, nil
}

// PredictRaw returns untransformed scores, one column per tree in an
// iteration.
func (m *Model) PredictRaw(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != m.NumFeatures {
		return nil, errors.NewDimensionError("Model.PredictRaw", m.NumFeatures, cols, 1)
	}
	if rows == 0 {
		return nil, errors.NewValueError("Model.PredictRaw", "empty input")
	}

	k := m.treesPerIteration()
	nTrees := m.numTrees(m.BestIteration)
	out := mat.NewDense(rows, k, nil)

	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		features := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(features, i, X)
			for t := 0; t < nTrees; t++ {
				c := t % k
				out.Set(i, c, out.At(i, c)+m.Trees[t].Predict(features))
			}
		}
	})
	return out, nil
}

// Predict returns transformed scores: probabilities for classification
// objectives and the response for regression objectives.
func (m *Model) Predict(X mat.Matrix) (*mat.Dense, error) {
	raw, err := m.PredictRaw(X)
	if err != nil {
		return nil, err
	}

	rows, k := raw.Dims()
	for i := 0; i < rows; i++ {
		row := raw.RawRowView(i)
		switch m.Objective {
		case BinaryLogistic, BinaryCrossEntropy, MulticlassOVA:
			for c := range row {
				row[c] = sigmoid(m.Sigmoid * row[c])
			}
		case MulticlassSoftmax:
			softmaxInPlace(row)
		case RegressionPoisson, RegressionGamma, RegressionTweedie:
			for c := 0; c < k; c++ {
				row[c] = math.Exp(row[c])
			}
		}
	}
	return raw, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func softmaxInPlace(x []float64) {
	maxVal := x[0]
	for _, v := range x[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	sum := 0.0
	for i, v := range x {
		x[i] = math.Exp(v - maxVal)
		sum += x[i]
	}
	for i := range x {
		x[i] /= sum
	}
}
