package lightgbm

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

const (
	binaryModelText = "testdata/binary_model.txt"
	binaryModelJSON = "testdata/binary_model.json"
)

func fixtureSamples() *mat.Dense {
	return mat.NewDense(4, 3, []float64{
		30, 40, 2, // 0.1 + 0.05
		40, 0, 1, // 0.3 - 0.05
		30, 60, math.NaN(), // -0.2 - 0.05
		35.5, 50, 0, // boundary values go left: 0.1 + 0.05
	})
}

var fixtureRaw = []float64{0.15, 0.25, -0.25, 0.15}

func assertFixtureModel(t *testing.T, m *Model) {
	t.Helper()

	assert.Equal(t, BinaryLogistic, m.Objective)
	assert.Equal(t, 1.0, m.Sigmoid)
	assert.Equal(t, 3, m.NumFeatures)
	assert.Equal(t, []string{"age", "income", "city"}, m.FeatureNames)
	require.Len(t, m.Trees, 2)
	assert.Equal(t, 3, m.Trees[0].NumLeaves)
	assert.Equal(t, CategoricalNode, m.Trees[1].Nodes[0].NodeType)
	assert.Equal(t, []int{0, 2}, m.Trees[1].Nodes[0].Categories)

	raw, err := m.PredictRaw(fixtureSamples())
	require.NoError(t, err)
	for i, want := range fixtureRaw {
		assert.InDelta(t, want, raw.At(i, 0), 1e-12, "row %d", i)
	}

	proba, err := m.Predict(fixtureSamples())
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(0.15), proba.At(0, 0), 1e-12)

	gain, err := m.FeatureImportance(ImportanceGain)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 10, 5}, gain)

	split, err := m.FeatureImportance(ImportanceSplit)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, split)
}

func TestLoadFromFile(t *testing.T) {
	m, err := LoadFromFile(binaryModelText)
	require.NoError(t, err)
	assertFixtureModel(t, m)

	assert.Equal(t, "v4", m.Version)
	assert.Equal(t, "gbdt", m.Parameters["boosting"])
	assert.Equal(t, 2, m.NumIterations())
}

func TestLoadFromJSONFile(t *testing.T) {
	m, err := LoadFromJSONFile(binaryModelJSON)
	require.NoError(t, err)
	assertFixtureModel(t, m)
}

func TestLoadModelDetectsFormat(t *testing.T) {
	for _, path := range []string{binaryModelText, binaryModelJSON} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			m, err := LoadModel(path)
			require.NoError(t, err)
			assertFixtureModel(t, m)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	original, err := LoadFromFile(binaryModelText)
	require.NoError(t, err)

	text, err := original.SaveToString()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "tree\n"))
	assert.Contains(t, text, "objective=binary sigmoid:1")
	assert.Contains(t, text, "cat_threshold=5")

	reloaded, err := LoadFromString(text)
	require.NoError(t, err)
	assertFixtureModel(t, reloaded)

	path := filepath.Join(t.TempDir(), "model.txt")
	require.NoError(t, original.SaveToFile(path))
	fromFile, err := LoadFromFile(path)
	require.NoError(t, err)
	assertFixtureModel(t, fromFile)
}

func TestSaveRoundTripKeepsMissingType(t *testing.T) {
	m := NewModel()
	m.NumFeatures = 1
	m.Trees = []Tree{{
		NumLeaves:     2,
		ShrinkageRate: 0.1,
		Nodes: []Node{
			{LeftChild: 1, RightChild: 2, NodeType: NumericalNode, Threshold: 3, Gain: 1, DefaultLeft: true, MissingType: MissingNaN},
			leaf(-1), leaf(1),
		},
	}}

	text, err := m.SaveToString()
	require.NoError(t, err)
	assert.Contains(t, text, "decision_type=10")

	reloaded, err := LoadFromString(text)
	require.NoError(t, err)
	node := reloaded.Trees[0].Nodes[0]
	assert.Equal(t, MissingNaN, node.MissingType)
	assert.True(t, node.DefaultLeft)
	assert.Equal(t, -1.0, reloaded.Trees[0].Predict([]float64{math.NaN()}))
}

func TestLoadSingleLeafTree(t *testing.T) {
	text := `tree
version=v4
num_class=1
num_tree_per_iteration=1
max_feature_idx=1
objective=regression

Tree=0
num_leaves=1
num_cat=0
leaf_value=2.5
is_linear=0
shrinkage=1

end of trees
`
	m, err := LoadFromString(text)
	require.NoError(t, err)
	require.Len(t, m.Trees, 1)
	assert.Equal(t, 2.5, m.Trees[0].Predict([]float64{0, 0}))

	gain, err := m.FeatureImportance(ImportanceGain)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, gain)
}

func TestLoadFromStringErrors(t *testing.T) {
	valid, err := os.ReadFile(binaryModelText)
	require.NoError(t, err)

	tests := []struct {
		name    string
		replace [2]string
	}{
		{"missing max_feature_idx", [2]string{"max_feature_idx=2\n", ""}},
		{"bad num_class", [2]string{"num_class=1", "num_class=x"}},
		{"leaf_value length", [2]string{"leaf_value=0.050000000000000003 -0.050000000000000003", "leaf_value=0.05"}},
		{"split_feature length", [2]string{"split_feature=0 1", "split_feature=0"}},
		{"split feature out of range", [2]string{"split_feature=0 1", "split_feature=0 7"}},
		{"child out of range", [2]string{"left_child=1 -1", "left_child=1 -9"}},
		{"categorical without bitset", [2]string{"cat_boundaries=0 1\n", ""}},
		{"bad threshold", [2]string{"threshold=35.5 50", "threshold=abc 50"}},
		{"feature names mismatch", [2]string{"feature_names=age income city", "feature_names=age income"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := strings.Replace(string(valid), tt.replace[0], tt.replace[1], 1)
			require.NotEqual(t, string(valid), broken)

			_, err := LoadFromString(broken)
			require.Error(t, err)
			var modelErr *errors.ModelError
			assert.True(t, errors.As(err, &modelErr), "got %v", err)
		})
	}
}

func TestLoadFromJSONErrors(t *testing.T) {
	_, err := LoadFromJSON([]byte("{not json"))
	var modelErr *errors.ModelError
	assert.True(t, errors.As(err, &modelErr))

	_, err = LoadFromJSON([]byte(`{"max_feature_idx": 0, "objective": "regression", "tree_info": [
		{"tree_structure": {"split_feature": 0, "split_gain": 1, "threshold": "a||b", "decision_type": "==",
		 "left_child": {"leaf_value": 1}, "right_child": {"leaf_value": 2}}}]}`))
	assert.True(t, errors.As(err, &modelErr))
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
