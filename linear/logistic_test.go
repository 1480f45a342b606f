package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// blobs puts class k around (3k, -3k) with a small deterministic jitter.
func blobs(perClass int, classes ...float64) (*mat.Dense, *mat.Dense) {
	n := perClass * len(classes)
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for k, label := range classes {
		for i := 0; i < perClass; i++ {
			row := k*perClass + i
			jitter := float64(i%5)/5 - 0.4
			X.Set(row, 0, 3*float64(k)+jitter)
			X.Set(row, 1, -3*float64(k)-jitter)
			y.Set(row, 0, label)
		}
	}
	return X, y
}

func TestLogisticRegressionBinary(t *testing.T) {
	X, y := blobs(20, 0, 1)
	lr := NewLogisticRegression(WithMaxIter(300))
	require.NoError(t, lr.Fit(X, y))

	assert.Equal(t, []float64{0, 1}, lr.Classes())
	require.Len(t, lr.Coef(), 1)
	assert.Greater(t, lr.Coef()[0][0], 0.0)
	assert.Less(t, lr.Coef()[0][1], 0.0)
	assert.Len(t, lr.Intercept(), 1)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 40, r)
	assert.Equal(t, 2, c)
	assert.InDelta(t, 1.0, proba.At(3, 0)+proba.At(3, 1), 1e-12)
}

func TestLogisticRegressionMulticlass(t *testing.T) {
	X, y := blobs(20, 2, 5, 9)
	lr := NewLogisticRegression(WithMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	assert.Equal(t, []float64{2, 5, 9}, lr.Classes())
	assert.Len(t, lr.Coef(), 3)

	pred, err := lr.Predict(mat.NewDense(2, 2, []float64{0, 0, 6, -6}))
	require.NoError(t, err)
	assert.Equal(t, 2.0, pred.At(0, 0))
	assert.Equal(t, 9.0, pred.At(1, 0))

	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mat.Sum(proba.(*mat.Dense).RowView(0)), 1e-12)
}

func TestLogisticRegressionErrors(t *testing.T) {
	lr := NewLogisticRegression()
	_, err := lr.Predict(mat.NewDense(1, 2, nil))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	err = lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{1, 1, 1}))
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	var validation *errors.ValidationError
	assert.True(t, errors.As(NewLogisticRegression(WithC(0)).Fit(mat.NewDense(2, 1, []float64{0, 1}), mat.NewDense(2, 1, []float64{0, 1})), &validation))

	X, y := blobs(5, 0, 1)
	require.NoError(t, lr.Fit(X, y))
	_, err = lr.Predict(mat.NewDense(1, 3, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestLogisticRegressionParams(t *testing.T) {
	lr := NewLogisticRegression()
	require.NoError(t, lr.SetParams(map[string]interface{}{"C": 0.5, "max_iter": 10, "fit_intercept": false}))
	params := lr.GetParams()
	assert.Equal(t, 0.5, params["C"])
	assert.Equal(t, 10, params["max_iter"])
	assert.Equal(t, "LogisticRegression(C=0.5, fit_intercept=false)", lr.String())
	assert.Equal(t, "classifier", lr.EstimatorType())

	var validation *errors.ValidationError
	assert.True(t, errors.As(lr.SetParams(map[string]interface{}{"penalty": "l1"}), &validation))
	assert.True(t, errors.As(lr.SetParams(map[string]interface{}{"C": -1.0}), &validation))
}
