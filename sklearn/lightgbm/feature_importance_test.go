package lightgbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

func TestFeatureImportanceGain(t *testing.T) {
	// Feature 0 carries the signal, feature 1 a weak one, feature 2 is noise.
	rows := 100
	X := mat.NewDense(rows, 3, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		f0 := float64(i) / float64(rows)
		f1 := float64(i%10) / 10.0
		f2 := float64((i*7)%13) / 13.0
		X.Set(i, 0, f0)
		X.Set(i, 1, f1)
		X.Set(i, 2, f2)
		y.Set(i, 0, 2.0*f0+0.5*f1+0.1*f2)
	}

	reg := NewLGBMRegressor().WithImportanceType(ImportanceGain)
	require.NoError(t, reg.SetParams(map[string]interface{}{
		"n_estimators":  10,
		"num_leaves":    15,
		"learning_rate": 0.1,
	}))
	require.NoError(t, reg.Fit(X, y))

	importance, err := reg.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, importance, 3)

	assert.Greater(t, importance[0], importance[1])
	assert.Greater(t, importance[0], importance[2])
	for _, imp := range importance {
		assert.GreaterOrEqual(t, imp, 0.0)
	}
}

func TestFeatureImportanceSplitCountsSplits(t *testing.T) {
	X := mat.NewDense(50, 4, nil)
	y := mat.NewDense(50, 1, nil)
	for i := 0; i < 50; i++ {
		for j := 0; j < 4; j++ {
			X.Set(i, j, float64(i*j)*0.1)
		}
		y.Set(i, 0, float64(i))
	}

	reg := NewLGBMRegressor()
	require.NoError(t, reg.SetParams(map[string]interface{}{
		"n_estimators": 5,
		"num_leaves":   10,
	}))
	require.NoError(t, reg.Fit(X, y))

	importance, err := reg.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, importance, 4)

	booster, err := reg.Booster()
	require.NoError(t, err)
	internal := 0
	for _, tree := range booster.Trees {
		internal += tree.NumLeaves - 1
	}
	sum := 0.0
	for _, imp := range importance {
		assert.Equal(t, float64(int(imp)), imp, "split importance is a count")
		sum += imp
	}
	assert.Equal(t, float64(internal), sum)
}

func TestFeatureImportanceUnfittedModel(t *testing.T) {
	reg := NewLGBMRegressor()

	importance, err := reg.FeatureImportances()
	assert.Nil(t, importance)
	var notFitted *errors.NotFittedError
	require.True(t, errors.As(err, &notFitted))
	assert.Equal(t, "Booster", notFitted.Method)
}

func TestFeatureImportanceClassification(t *testing.T) {
	X := mat.NewDense(60, 3, nil)
	y := mat.NewDense(60, 1, nil)
	for i := 0; i < 60; i++ {
		f0 := float64(i) / 60.0
		X.Set(i, 0, f0)
		X.Set(i, 1, float64(i%5)/5.0)
		X.Set(i, 2, float64((i*3)%7)/7.0)
		if f0 > 0.5 {
			y.Set(i, 0, 1.0)
		}
	}

	clf := NewLGBMClassifier().WithImportanceType(ImportanceGain)
	require.NoError(t, clf.SetParams(map[string]interface{}{
		"n_estimators": 5,
		"num_leaves":   8,
	}))
	require.NoError(t, clf.Fit(X, y))

	importance, err := clf.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, importance, 3)
	assert.Greater(t, importance[0], importance[1])
	assert.Greater(t, importance[0], importance[2])
}

func TestFeatureImportanceInvalidType(t *testing.T) {
	X := mat.NewDense(20, 2, nil)
	y := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i)*0.5)
		y.Set(i, 0, float64(i))
	}

	reg := NewLGBMRegressor().WithImportanceType("invalid_type").WithMinChildSamples(2)
	require.NoError(t, reg.Fit(X, y))

	importance, err := reg.FeatureImportances()
	assert.Nil(t, importance)
	var validationErr *errors.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestFeatureImportanceConsistency(t *testing.T) {
	X := mat.NewDense(40, 3, nil)
	y := mat.NewDense(40, 1, nil)
	for i := 0; i < 40; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i)*0.5)
		X.Set(i, 2, float64(i)*0.1)
		y.Set(i, 0, float64(i)*2.0)
	}
	params := map[string]interface{}{
		"n_estimators":      5,
		"num_leaves":        10,
		"min_child_samples": 5,
		"importance_type":   "gain",
	}

	reg1 := NewLGBMRegressor()
	require.NoError(t, reg1.SetParams(params))
	require.NoError(t, reg1.Fit(X, y))

	reg2 := NewLGBMRegressor()
	require.NoError(t, reg2.SetParams(params))
	require.NoError(t, reg2.Fit(X, y))

	importance1, err := reg1.FeatureImportances()
	require.NoError(t, err)
	importance2, err := reg2.FeatureImportances()
	require.NoError(t, err)
	assert.Equal(t, importance1, importance2)
}

func BenchmarkFeatureImportance(b *testing.B) {
	rows, cols := 1000, 50
	X := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, float64(i*j)*0.01)
		}
		y.Set(i, 0, float64(i))
	}

	reg := NewLGBMRegressor().WithNumIterations(20)
	_ = reg.Fit(X, y)
	booster, err := reg.Booster()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = booster.FeatureImportance(ImportanceGain)
	}
}
