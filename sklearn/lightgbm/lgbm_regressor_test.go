package lightgbm

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/core/model"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

func TestLGBMRegressorFitPredict(t *testing.T) {
	X, y := stepData(60)

	reg := NewLGBMRegressor().
		WithNumIterations(30).
		WithLearningRate(0.3).
		WithNumLeaves(4).
		WithMaxDepth(2).
		WithMinChildSamples(5).
		WithFeatureNames([]string{"signal", "noise"})
	require.NoError(t, reg.Fit(X, y))

	pred, err := reg.Predict(X)
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, 60, r)
	assert.Equal(t, 1, c)

	score, err := reg.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.99)

	assert.Equal(t, []string{"signal", "noise"}, reg.FeatureNamesIn())
	nFeatures, nSamples := reg.GetDimensions()
	assert.Equal(t, 2, nFeatures)
	assert.Equal(t, 60, nSamples)
}

func TestLGBMRegressorErrors(t *testing.T) {
	reg := NewLGBMRegressor()

	_, err := reg.Predict(mat.NewDense(1, 2, nil))
	var notFitted *errors.NotFittedError
	require.True(t, errors.As(err, &notFitted))

	X, y := stepData(20)
	reg.Objective = string(BinaryLogistic)
	err = reg.Fit(X, y)
	var validationErr *errors.ValidationError
	assert.True(t, errors.As(err, &validationErr))

	reg.Objective = ""
	reg.MinChildSamples = 2
	require.NoError(t, reg.Fit(X, y))
	_, err = reg.Predict(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestLGBMRegressorParams(t *testing.T) {
	reg := NewLGBMRegressor()
	assert.Equal(t, model.RegressorType, reg.EstimatorType())
	assert.True(t, model.IsRegressor(reg))
	assert.Equal(t, "LGBMRegressor()", reg.String())

	require.NoError(t, reg.SetParams(map[string]interface{}{
		"n_estimators":  50.0,
		"learning_rate": 1,
		"reg_lambda":    0.5,
	}))
	params := reg.GetParams()
	assert.Equal(t, 50, params["n_estimators"])
	assert.Equal(t, 1.0, params["learning_rate"])
	assert.Equal(t, 0.5, params["reg_lambda"])
	assert.Equal(t, "LGBMRegressor(learning_rate=1, n_estimators=50, reg_lambda=0.5)", reg.String())

	var validationErr *errors.ValidationError
	err := reg.SetParams(map[string]interface{}{"num_leaves": 1.5})
	assert.True(t, errors.As(err, &validationErr))
	err = reg.SetParams(map[string]interface{}{"subsample": 0.8})
	assert.True(t, errors.As(err, &validationErr))
}

func TestLoadEstimatorPicksWrapper(t *testing.T) {
	est, err := LoadEstimator(binaryModelJSON)
	require.NoError(t, err)
	_, ok := est.(*LGBMClassifier)
	assert.True(t, ok)

	X, y := stepData(30)
	reg := NewLGBMRegressor().WithNumIterations(3).WithMinChildSamples(5)
	require.NoError(t, reg.Fit(X, y))
	booster, err := reg.Booster()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "regressor.txt")
	require.NoError(t, booster.SaveToFile(path))

	est, err = LoadEstimator(path)
	require.NoError(t, err)
	loaded, ok := est.(*LGBMRegressor)
	require.True(t, ok)
	assert.Nil(t, loaded.FeatureNamesIn())

	want, err := reg.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		assert.InDelta(t, want.At(i, 0), got.At(i, 0), 1e-12)
	}

	_, err = FromModel(nil)
	assert.Error(t, err)
}
