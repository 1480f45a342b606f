// Package preprocessing provides feature transformers that also act as
// explain.Vectorizer, carrying feature names from raw data to explanations.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goeli5/core/model"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// 標準偏差がこれ未満の列はスケーリングしない
const minScale = 1e-8

// StandardScaler は各列を平均0、標準偏差1に変換する
type StandardScaler struct {
	model.StateManager

	WithMean bool
	WithStd  bool

	Mean  []float64
	Scale []float64

	names []string
}

// NewStandardScaler creates a scaler. names, when given, must match the
// number of columns passed to Fit.
func NewStandardScaler(withMean, withStd bool, names ...string) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
		names:    names,
	}
}

// Fit は各列の平均と母標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(s.names) > 0 && len(s.names) != c {
		return errors.NewDimensionError("StandardScaler.Fit", len(s.names), c, 1)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, variance := stat.PopMeanVariance(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if std := math.Sqrt(variance); s.WithStd && std >= minScale {
			s.Scale[j] = std
		}
	}

	s.SetDimensions(c, r)
	s.SetFitted()
	return nil
}

// Transform は学習済みの統計量でデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("StandardScaler.Transform", X, func(v float64, j int) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	})
}

// FitTransform fits on X and returns X standardized.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化を元に戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("StandardScaler.InverseTransform", X, func(v float64, j int) float64 {
		return v*s.Scale[j] + s.Mean[j]
	})
}

func (s *StandardScaler) apply(op string, X mat.Matrix, fn func(v float64, j int) float64) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", op)
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError(op, len(s.Mean), c, 1)
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 { return fn(v, j) }, X)
	return out, nil
}

// FeatureNames implements explain.Vectorizer. Columns keep their input
// names; unnamed columns are called x0, x1, ...
func (s *StandardScaler) FeatureNames() []string {
	if len(s.names) > 0 {
		return append([]string(nil), s.names...)
	}
	n := len(s.Mean)
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return names
}

// GetParams implements model.ParameterGetter.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
}
