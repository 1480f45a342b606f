package lightgbm

import (
	"context"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/core/parallel"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
)

// TrainingParams contains the training hyperparameters, named as in
// LightGBM's parameter reference.
type TrainingParams struct {
	NumIterations int     `json:"num_iterations"`
	LearningRate  float64 `json:"learning_rate"`
	NumLeaves     int     `json:"num_leaves"`
	MaxDepth      int     `json:"max_depth"` // <= 0 means no limit
	MinDataInLeaf int     `json:"min_data_in_leaf"`

	MinSumHessianInLeaf float64 `json:"min_sum_hessian_in_leaf"`
	Lambda              float64 `json:"lambda_l2"`
	MinGainToSplit      float64 `json:"min_gain_to_split"`

	Objective string `json:"objective"`
	NumClass  int    `json:"num_class"`

	// FeatureNames are stored in the model. Column_i is used when empty.
	FeatureNames []string `json:"-"`
}

// DefaultTrainingParams returns LightGBM's defaults.
func DefaultTrainingParams() TrainingParams {
	return TrainingParams{
		NumIterations:       100,
		LearningRate:        0.1,
		NumLeaves:           31,
		MaxDepth:            -1,
		MinDataInLeaf:       20,
		MinSumHessianInLeaf: 1e-3,
		Objective:           string(RegressionL2),
		NumClass:            1,
	}
}

// splitInfo describes the best split found for a leaf.
type splitInfo struct {
	feature    int
	threshold  float64
	gain       float64
	leftCount  int
	rightCount int
	leftGrad   float64
	leftHess   float64
	rightGrad  float64
	rightHess  float64
}

func (s splitInfo) valid() bool {
	return s.gain > 0
}

// leafState is a leaf that may still be split.
type leafState struct {
	node    int
	depth   int
	count   int
	sumGrad float64
	sumHess float64
	best    splitInfo
}

// Trainer grows gradient boosted trees leaf-wise with exact greedy splits.
type Trainer struct {
	params    TrainingParams
	objective ObjectiveFunction
	logger    log.Logger

	X         *mat.Dense
	nRows     int
	nCols     int
	sortedIdx [][]int // row indices sorted by each feature
}

// NewTrainer creates a new LightGBM trainer
func NewTrainer(params TrainingParams) *Trainer {
	defaults := DefaultTrainingParams()
	if params.NumIterations == 0 {
		params.NumIterations = defaults.NumIterations
	}
	if params.LearningRate == 0 {
		params.LearningRate = defaults.LearningRate
	}
	if params.NumLeaves == 0 {
		params.NumLeaves = defaults.NumLeaves
	}
	if params.MinDataInLeaf == 0 {
		params.MinDataInLeaf = defaults.MinDataInLeaf
	}
	if params.Objective == "" {
		params.Objective = defaults.Objective
	}

	return &Trainer{
		params: params,
		logger: log.GetLoggerWithName("lightgbm.trainer"),
	}
}

func (t *Trainer) validateParams() error {
	p := t.params
	switch {
	case p.NumIterations < 1:
		return errors.NewValidationError("num_iterations", "must be >= 1", p.NumIterations)
	case p.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be > 0", p.LearningRate)
	case p.NumLeaves < 2:
		return errors.NewValidationError("num_leaves", "must be >= 2", p.NumLeaves)
	case p.MinDataInLeaf < 1:
		return errors.NewValidationError("min_data_in_leaf", "must be >= 1", p.MinDataInLeaf)
	case p.MinSumHessianInLeaf < 0:
		return errors.NewValidationError("min_sum_hessian_in_leaf", "must be >= 0", p.MinSumHessianInLeaf)
	case p.Lambda < 0:
		return errors.NewValidationError("lambda_l2", "must be >= 0", p.Lambda)
	case p.MinGainToSplit < 0:
		return errors.NewValidationError("min_gain_to_split", "must be >= 0", p.MinGainToSplit)
	}
	return nil
}

// Fit trains a model on X and the column vector y.
func (t *Trainer) Fit(X, y mat.Matrix) (*Model, error) {
	if err := t.validateParams(); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewModelError("Trainer.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != rows {
		return nil, errors.NewDimensionError("Trainer.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewValueError("Trainer.Fit", "y must be a column vector")
	}
	if len(t.params.FeatureNames) > 0 && len(t.params.FeatureNames) != cols {
		return nil, errors.NewDimensionError("Trainer.Fit", cols, len(t.params.FeatureNames), 1)
	}

	objective, err := NewObjective(t.params.Objective, t.params.NumClass)
	if err != nil {
		return nil, err
	}
	t.objective = objective

	labels := make([]float64, rows)
	for i := range labels {
		labels[i] = y.At(i, 0)
	}
	if err := objective.ValidateLabels(labels); err != nil {
		return nil, err
	}

	t.prepareData(X)

	start := time.Now()
	k := objective.NumModels()
	initScores := objective.InitScores(labels)
	scores := make([][]float64, k)
	grad := make([][]float64, k)
	hess := make([][]float64, k)
	for c := 0; c < k; c++ {
		scores[c] = make([]float64, rows)
		for i := range scores[c] {
			scores[c][i] = initScores[c]
		}
		grad[c] = make([]float64, rows)
		hess[c] = make([]float64, rows)
	}

	m := NewModel()
	m.Objective = objective.Name()
	m.NumClass = t.params.NumClass
	if m.NumClass < 1 || objective.Name() != MulticlassSoftmax {
		m.NumClass = 1
	}
	m.NumTreePerIteration = k
	m.NumFeatures = cols
	m.FeatureNames = append([]string(nil), t.params.FeatureNames...)
	if len(m.FeatureNames) == 0 {
		m.FeatureNames = defaultColumnNames(cols)
	}
	m.Parameters = t.modelParameters()

	for iter := 0; iter < t.params.NumIterations; iter++ {
		objective.Gradients(labels, scores, grad, hess)

		trees := make([]Tree, k)
		anySplit := false
		for c := 0; c < k; c++ {
			tree, leafOf := t.growTree(grad[c], hess[c])
			for i := 0; i < rows; i++ {
				scores[c][i] += tree.Nodes[leafOf[i]].LeafValue
			}
			if iter == 0 {
				// boost from average: the first trees carry the init score
				for n := range tree.Nodes {
					if tree.Nodes[n].IsLeaf() {
						tree.Nodes[n].LeafValue += initScores[c]
					}
				}
			}
			if tree.NumLeaves > 1 {
				anySplit = true
			}
			trees[c] = tree
		}

		if !anySplit && iter > 0 {
			errors.Warn(errors.NewTrainingWarning("LightGBM", iter, "no further splits with positive gain"))
			break
		}
		for c := range trees {
			trees[c].TreeIndex = len(m.Trees)
			m.Trees = append(m.Trees, trees[c])
		}
		if !anySplit {
			errors.Warn(errors.NewTrainingWarning("LightGBM", iter, "no further splits with positive gain"))
			break
		}

		if t.logger.Enabled(context.Background(), log.LevelDebug) {
			t.logger.Debug("iteration finished",
				log.IterationKey, iter,
				"loss", objective.Loss(labels, scores),
			)
		}
	}

	t.logger.Info("training finished",
		log.OperationKey, log.OperationFit,
		log.ObjectiveKey, string(m.Objective),
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.TreesKey, len(m.Trees),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return m, nil
}

// prepareData copies X, maps NaN to 0 the way prediction does for splits
// without a missing type, and pre-sorts rows by every feature.
func (t *Trainer) prepareData(X mat.Matrix) {
	t.X = mat.DenseCopyOf(X)
	t.nRows, t.nCols = t.X.Dims()
	for i := 0; i < t.nRows; i++ {
		row := t.X.RawRowView(i)
		for j, v := range row {
			if math.IsNaN(v) {
				row[j] = 0
			}
		}
	}

	t.sortedIdx = make([][]int, t.nCols)
	parallel.Parallelize(t.nCols, func(start, end int) {
		for f := start; f < end; f++ {
			idx := make([]int, t.nRows)
			for i := range idx {
				idx[i] = i
			}
			sort.SliceStable(idx, func(a, b int) bool {
				return t.X.At(idx[a], f) < t.X.At(idx[b], f)
			})
			t.sortedIdx[f] = idx
		}
	})
}

func (t *Trainer) modelParameters() map[string]string {
	p := t.params
	return map[string]string{
		"boosting":                "gbdt",
		"objective":               p.Objective,
		"num_iterations":          formatFloat(float64(p.NumIterations)),
		"learning_rate":           formatFloat(p.LearningRate),
		"num_leaves":              formatFloat(float64(p.NumLeaves)),
		"max_depth":               formatFloat(float64(p.MaxDepth)),
		"min_data_in_leaf":        formatFloat(float64(p.MinDataInLeaf)),
		"min_sum_hessian_in_leaf": formatFloat(p.MinSumHessianInLeaf),
		"lambda_l2":               formatFloat(p.Lambda),
		"min_gain_to_split":       formatFloat(p.MinGainToSplit),
	}
}

// growTree builds one tree and returns it together with the leaf node each
// training row ends in. Leaves are split in order of decreasing gain until
// NumLeaves is reached or no leaf has a valid split.
func (t *Trainer) growTree(grad, hess []float64) (Tree, []int) {
	leafOf := make([]int, t.nRows)
	root := leafState{count: t.nRows}
	for i := 0; i < t.nRows; i++ {
		root.sumGrad += grad[i]
		root.sumHess += hess[i]
	}

	tree := Tree{ShrinkageRate: t.params.LearningRate}
	tree.Nodes = append(tree.Nodes, Node{LeftChild: -1, RightChild: -1, NodeType: LeafNode, LeafCount: t.nRows})
	root.best = t.findBestSplit(&root, leafOf, grad, hess)

	leaves := []*leafState{&root}
	for len(leaves) < t.params.NumLeaves {
		bestIdx := -1
		for i, leaf := range leaves {
			if leaf.best.valid() && (bestIdx < 0 || leaf.best.gain > leaves[bestIdx].best.gain) {
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		leaf := leaves[bestIdx]
		split := leaf.best
		leftNode, rightNode := len(tree.Nodes), len(tree.Nodes)+1
		tree.Nodes[leaf.node] = Node{
			LeftChild:     leftNode,
			RightChild:    rightNode,
			NodeType:      NumericalNode,
			SplitFeature:  split.feature,
			Threshold:     split.threshold,
			Gain:          split.gain,
			InternalCount: leaf.count,
		}
		tree.Nodes = append(tree.Nodes,
			Node{LeftChild: -1, RightChild: -1, NodeType: LeafNode, LeafCount: split.leftCount},
			Node{LeftChild: -1, RightChild: -1, NodeType: LeafNode, LeafCount: split.rightCount},
		)
		for i := 0; i < t.nRows; i++ {
			if leafOf[i] != leaf.node {
				continue
			}
			if t.X.At(i, split.feature) <= split.threshold {
				leafOf[i] = leftNode
			} else {
				leafOf[i] = rightNode
			}
		}

		left := &leafState{node: leftNode, depth: leaf.depth + 1, count: split.leftCount, sumGrad: split.leftGrad, sumHess: split.leftHess}
		right := &leafState{node: rightNode, depth: leaf.depth + 1, count: split.rightCount, sumGrad: split.rightGrad, sumHess: split.rightHess}
		left.best = t.findBestSplit(left, leafOf, grad, hess)
		right.best = t.findBestSplit(right, leafOf, grad, hess)
		leaves[bestIdx] = left
		leaves = append(leaves, right)
	}

	for _, leaf := range leaves {
		tree.Nodes[leaf.node].LeafValue = t.leafOutput(leaf.sumGrad, leaf.sumHess)
	}
	tree.NumLeaves = len(leaves)
	return tree, leafOf
}

func (t *Trainer) leafOutput(sumGrad, sumHess float64) float64 {
	return -sumGrad / (sumHess + t.params.Lambda) * t.params.LearningRate
}

func (t *Trainer) leafGain(sumGrad, sumHess float64) float64 {
	return sumGrad * sumGrad / (sumHess + t.params.Lambda)
}

// findBestSplit scans every feature of the leaf. Ties keep the lowest
// feature index and the lowest threshold.
func (t *Trainer) findBestSplit(leaf *leafState, leafOf []int, grad, hess []float64) splitInfo {
	if t.params.MaxDepth > 0 && leaf.depth >= t.params.MaxDepth {
		return splitInfo{}
	}
	if leaf.count < 2*t.params.MinDataInLeaf || leaf.sumHess < 2*t.params.MinSumHessianInLeaf {
		return splitInfo{}
	}

	perFeature := make([]splitInfo, t.nCols)
	parallel.ParallelizeWithThreshold(t.nCols, 4, func(start, end int) {
		for f := start; f < end; f++ {
			perFeature[f] = t.findBestSplitForFeature(leaf, f, leafOf, grad, hess)
		}
	})

	var best splitInfo
	for _, s := range perFeature {
		if s.valid() && s.gain > best.gain {
			best = s
		}
	}
	return best
}

func (t *Trainer) findBestSplitForFeature(leaf *leafState, feature int, leafOf []int, grad, hess []float64) splitInfo {
	minGainShift := t.leafGain(leaf.sumGrad, leaf.sumHess) + t.params.MinGainToSplit
	best := splitInfo{feature: feature}

	var leftGrad, leftHess float64
	leftCount := 0
	prev := -1
	for _, i := range t.sortedIdx[feature] {
		if leafOf[i] != leaf.node {
			continue
		}
		if prev >= 0 {
			lo, hi := t.X.At(prev, feature), t.X.At(i, feature)
			if lo != hi {
				rightCount := leaf.count - leftCount
				rightGrad := leaf.sumGrad - leftGrad
				rightHess := leaf.sumHess - leftHess
				if leftCount >= t.params.MinDataInLeaf && rightCount >= t.params.MinDataInLeaf &&
					leftHess >= t.params.MinSumHessianInLeaf && rightHess >= t.params.MinSumHessianInLeaf {
					gain := t.leafGain(leftGrad, leftHess) + t.leafGain(rightGrad, rightHess) - minGainShift
					if gain > best.gain {
						best = splitInfo{
							feature:    feature,
							threshold:  lo + (hi-lo)/2,
							gain:       gain,
							leftCount:  leftCount,
							rightCount: rightCount,
							leftGrad:   leftGrad,
							leftHess:   leftHess,
							rightGrad:  rightGrad,
							rightHess:  rightHess,
						}
					}
				}
			}
		}
		leftGrad += grad[i]
		leftHess += hess[i]
		leftCount++
		prev = i
	}
	return best
}
