package lightgbm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// stepData returns y = 10 for x0 > 0.5 and 0 otherwise; x1 is noise.
func stepData(rows int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(rows, 2, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		x0 := float64(i) / float64(rows)
		X.Set(i, 0, x0)
		X.Set(i, 1, float64((i*7)%11))
		if x0 > 0.5 {
			y.Set(i, 0, 10)
		}
	}
	return X, y
}

func smallParams(objective string) TrainingParams {
	return TrainingParams{
		NumIterations:       20,
		LearningRate:        0.3,
		NumLeaves:           4,
		MaxDepth:            -1,
		MinDataInLeaf:       2,
		MinSumHessianInLeaf: 1e-3,
		Objective:           objective,
	}
}

func TestTrainerRegression(t *testing.T) {
	X, y := stepData(40)

	m, err := NewTrainer(smallParams(string(RegressionL2))).Fit(X, y)
	require.NoError(t, err)

	assert.Equal(t, RegressionL2, m.Objective)
	assert.Equal(t, 2, m.NumFeatures)
	assert.Equal(t, []string{"Column_0", "Column_1"}, m.FeatureNames)
	assert.NotEmpty(t, m.Trees)

	pred, err := m.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		assert.InDelta(t, y.At(i, 0), pred.At(i, 0), 0.1, "row %d", i)
	}

	gain, err := m.FeatureImportance(ImportanceGain)
	require.NoError(t, err)
	assert.Greater(t, gain[0], gain[1])
}

func TestTrainerFirstSplitGain(t *testing.T) {
	// With lambda = 0 the root split of the first tree separates the two
	// groups exactly: gain = GL^2/HL + GR^2/HR - G^2/H.
	X, y := stepData(40)
	params := smallParams(string(RegressionL2))
	params.NumIterations = 1
	params.NumLeaves = 2

	m, err := NewTrainer(params).Fit(X, y)
	require.NoError(t, err)
	require.Len(t, m.Trees, 1)

	root := m.Trees[0].Nodes[0]
	assert.Equal(t, 0, root.SplitFeature)
	// 21 rows below the threshold with residual -mean, 19 above with 10-mean.
	meanY := 10.0 * 19.0 / 40.0
	gl := 21 * meanY
	gr := -19 * (10 - meanY)
	assert.InDelta(t, gl*gl/21+gr*gr/19, root.Gain, 1e-9)
	assert.True(t, root.Threshold > 20.0/40.0 && root.Threshold < 21.0/40.0)

	// Leaves hold lr * -G/H plus the folded init score.
	left := m.Trees[0].Nodes[root.LeftChild]
	assert.InDelta(t, meanY-0.3*meanY, left.LeafValue, 1e-9)
}

func TestTrainerBinary(t *testing.T) {
	X, y := stepData(40)
	for i := 0; i < 40; i++ {
		y.Set(i, 0, y.At(i, 0)/10)
	}

	m, err := NewTrainer(smallParams(string(BinaryLogistic))).Fit(X, y)
	require.NoError(t, err)
	assert.Equal(t, BinaryLogistic, m.Objective)

	proba, err := m.Predict(X)
	require.NoError(t, err)
	assert.Less(t, proba.At(0, 0), 0.2)
	assert.Greater(t, proba.At(39, 0), 0.8)
}

func TestTrainerMulticlass(t *testing.T) {
	rows := 60
	X := mat.NewDense(rows, 1, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i/20))
	}
	params := smallParams(string(MulticlassSoftmax))
	params.NumClass = 3

	m, err := NewTrainer(params).Fit(X, y)
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumTreePerIteration)
	assert.Equal(t, 0, len(m.Trees)%3)

	proba, err := m.Predict(X)
	require.NoError(t, err)
	for _, i := range []int{5, 30, 55} {
		row := mat.Row(nil, i, proba)
		assert.InDelta(t, 1.0, row[0]+row[1]+row[2], 1e-9)
		best := 0
		for k := range row {
			if row[k] > row[best] {
				best = k
			}
		}
		assert.Equal(t, i/20, best, "row %d", i)
	}
}

func TestTrainerConstantTargetStopsWithWarning(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetZerologWarnFunc(nil) })

	X, _ := stepData(20)
	y := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		y.Set(i, 0, 3)
	}

	m, err := NewTrainer(smallParams(string(RegressionL2))).Fit(X, y)
	require.NoError(t, err)
	require.Len(t, m.Trees, 1)
	assert.Equal(t, 1, m.Trees[0].NumLeaves)
	assert.InDelta(t, 3.0, m.Trees[0].Predict([]float64{0, 0}), 1e-12)

	gain, err := m.FeatureImportance(ImportanceGain)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, gain)

	require.Len(t, warnings, 1)
	var tw *errors.TrainingWarning
	require.True(t, errors.As(warnings[0], &tw))
	assert.Equal(t, 0, tw.Iteration)
}

func TestTrainerConstraints(t *testing.T) {
	X, y := stepData(40)

	t.Run("max depth", func(t *testing.T) {
		params := smallParams(string(RegressionL2))
		params.NumLeaves = 16
		params.MaxDepth = 1
		m, err := NewTrainer(params).Fit(X, y)
		require.NoError(t, err)
		for _, tree := range m.Trees {
			assert.LessOrEqual(t, tree.NumLeaves, 2)
		}
	})

	t.Run("num leaves", func(t *testing.T) {
		params := smallParams(string(RegressionL2))
		params.NumLeaves = 3
		m, err := NewTrainer(params).Fit(X, y)
		require.NoError(t, err)
		for _, tree := range m.Trees {
			assert.LessOrEqual(t, tree.NumLeaves, 3)
		}
	})

	t.Run("min data in leaf", func(t *testing.T) {
		params := smallParams(string(RegressionL2))
		params.MinDataInLeaf = 15
		m, err := NewTrainer(params).Fit(X, y)
		require.NoError(t, err)
		for _, tree := range m.Trees {
			for _, node := range tree.Nodes {
				if node.IsLeaf() && tree.NumLeaves > 1 {
					assert.GreaterOrEqual(t, node.LeafCount, 15)
				}
			}
		}
	})

	t.Run("min gain to split", func(t *testing.T) {
		params := smallParams(string(RegressionL2))
		params.MinGainToSplit = math.Inf(1)
		m, err := NewTrainer(params).Fit(X, y)
		require.NoError(t, err)
		require.Len(t, m.Trees, 1)
		assert.Equal(t, 1, m.Trees[0].NumLeaves)
	})
}

func TestTrainerValidation(t *testing.T) {
	X, y := stepData(10)

	tests := []struct {
		name   string
		mutate func(p *TrainingParams)
		param  string
	}{
		{"negative learning rate", func(p *TrainingParams) { p.LearningRate = -1 }, "learning_rate"},
		{"single leaf", func(p *TrainingParams) { p.NumLeaves = 1 }, "num_leaves"},
		{"negative lambda", func(p *TrainingParams) { p.Lambda = -1 }, "lambda_l2"},
		{"unknown objective", func(p *TrainingParams) { p.Objective = "lambdarank" }, "objective"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := smallParams(string(RegressionL2))
			tt.mutate(&params)
			_, err := NewTrainer(params).Fit(X, y)
			var validationErr *errors.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
			assert.Equal(t, tt.param, validationErr.ParamName)
		})
	}

	t.Run("binary labels", func(t *testing.T) {
		_, err := NewTrainer(smallParams(string(BinaryLogistic))).Fit(X, y)
		var validationErr *errors.ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "label", validationErr.ParamName)
	})

	t.Run("row mismatch", func(t *testing.T) {
		_, err := NewTrainer(smallParams(string(RegressionL2))).Fit(X, mat.NewDense(3, 1, nil))
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})
}
