package explain

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// MethodFeatureImportances is the Method of explanations built from
// unsigned per-feature importances.
const MethodFeatureImportances = "feature importances"

// GetFeatureImportanceExplanation builds an Explanation from unsigned
// importances. coef must have numFeatures entries; std is optional and,
// when given, must have the same length.
func GetFeatureImportanceExplanation(
	estimator interface{},
	vec Vectorizer,
	coef, std []float64,
	req Request,
	description string,
	numFeatures int,
	isRegression bool,
) (*Explanation, error) {
	if len(coef) != numFeatures {
		return nil, errors.NewDimensionError("GetFeatureImportanceExplanation", numFeatures, len(coef), 1)
	}
	if std != nil && len(std) != len(coef) {
		return nil, errors.NewDimensionError("GetFeatureImportanceExplanation", len(coef), len(std), 1)
	}
	if vec != nil {
		req.Vectorizer = vec
	}

	fn, err := ResolveFeatureNames(estimator, req, numFeatures, "")
	if err != nil {
		return nil, err
	}
	names, indices := fn.Filter(req.FeatureFilter, req.FeatureRe)
	if indices != nil {
		coef = pick(coef, indices)
		if std != nil {
			std = pick(std, indices)
		}
	}

	order := argsortLargestPositive(coef, req.Top)
	importances := make([]FeatureWeight, len(order))
	for i, idx := range order {
		importances[i] = FeatureWeight{Feature: names[idx], Weight: coef[idx]}
		if std != nil {
			s := std[idx]
			importances[i].Std = &s
		}
	}

	return &Explanation{
		Estimator:    EstimatorRepr(estimator),
		Description:  description,
		Method:       MethodFeatureImportances,
		IsRegression: isRegression,
		FeatureImportances: &FeatureImportances{
			Importances: importances,
			Remaining:   countNonZero(coef) - len(importances),
		},
	}, nil
}

// EstimatorRepr is the Estimator field of an Explanation: the String()
// of est when it has one, else its Go type.
func EstimatorRepr(est interface{}) string {
	if s, ok := est.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", est)
}

// argsortLargestPositive returns the indices of the strictly positive
// values of x, largest first, at most top of them (all when top < 0).
// Ties keep their input order.
func argsortLargestPositive(x []float64, top int) []int {
	idx := make([]int, 0, len(x))
	for i, v := range x {
		if v > 0 {
			idx = append(idx, i)
		}
	}
	return argsortDesc(idx, x, top)
}

// argsortDesc sorts idx by x[idx] descending, stable, then truncates.
func argsortDesc(idx []int, x []float64, top int) []int {
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] > x[idx[b]] })
	if top >= 0 && top < len(idx) {
		idx = idx[:top]
	}
	return idx
}

func pick(x []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = x[idx]
	}
	return out
}

func countNonZero(x []float64) int {
	n := 0
	for _, v := range x {
		if v != 0 {
			n++
		}
	}
	return n
}
