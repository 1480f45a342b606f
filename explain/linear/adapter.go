// Package linear explains linear models by their signed coefficients.
// Importing it registers *linear.LinearRegression and
// *linear.LogisticRegression in explain.Default.
package linear

import (
	"fmt"
	"strconv"

	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/linear"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// DescriptionRegression is attached to linear regression explanations.
const DescriptionRegression = "Features with largest coefficients.\n" +
	"Weights of features which are not independent don't show their importance,\n" +
	"and coefficients of features on different scales are not comparable."

// DescriptionClassification is attached to linear classifier explanations.
const DescriptionClassification = "Features with largest coefficients per class.\n" +
	"Weights of features which are not independent don't show their importance,\n" +
	"and coefficients of features on different scales are not comparable."

// MethodLinearModel is the Method of linear model explanations.
const MethodLinearModel = "linear model"

// DefaultTargetName names the single output of a regressor when no target
// names are given.
const DefaultTargetName = "y"

func init() {
	Register(explain.Default)
}

// Register adds the linear estimators to r.
func Register(r *explain.Registry) {
	explain.RegisterWeights(r, ExplainWeights)
	explain.RegisterWeights(r, ExplainClassifierWeights)
}

// ExplainWeights lists the top coefficients of a linear regression, with
// the intercept shown as <BIAS> when the model fits one.
func ExplainWeights(est *linear.LinearRegression, req explain.Request) (*explain.Explanation, error) {
	if est == nil || !est.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "ExplainWeights")
	}
	target, err := regressionTarget(req.TargetNames)
	if err != nil {
		return nil, err
	}

	expl := newExplanation(est, DescriptionRegression, true)
	if !selected(req.Targets, target) {
		return expl, nil
	}
	fw, err := topFeatures(est, req, est.Coef(), est.Intercept(), fitsIntercept(est.GetParams()))
	if err != nil {
		return nil, err
	}
	expl.Targets = append(expl.Targets, explain.TargetExplanation{Target: target, FeatureWeights: fw})
	return expl, nil
}

// ExplainClassifierWeights lists the top coefficients per class. A binary
// classifier has one coefficient row, explained as its positive class.
func ExplainClassifierWeights(est *linear.LogisticRegression, req explain.Request) (*explain.Explanation, error) {
	if est == nil || !est.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "ExplainWeights")
	}
	classes := est.Classes()
	names, err := classNames(classes, req.TargetNames)
	if err != nil {
		return nil, err
	}
	if err := checkTargets(req.Targets, classes, names); err != nil {
		return nil, err
	}

	coef, intercept := est.Coef(), est.Intercept()
	if len(coef) == 1 {
		// The single row scores classes[1].
		names = names[1:]
		classes = classes[1:]
	}

	expl := newExplanation(est, DescriptionClassification, false)
	bias := fitsIntercept(est.GetParams())
	for k := range coef {
		if !selected(req.Targets, names[k], formatLabel(classes[k])) {
			continue
		}
		fw, err := topFeatures(est, req, coef[k], intercept[k], bias)
		if err != nil {
			return nil, err
		}
		expl.Targets = append(expl.Targets, explain.TargetExplanation{Target: names[k], FeatureWeights: fw})
	}
	return expl, nil
}

func newExplanation(est interface{}, description string, isRegression bool) *explain.Explanation {
	return &explain.Explanation{
		Estimator:    explain.EstimatorRepr(est),
		Description:  description,
		Method:       MethodLinearModel,
		IsRegression: isRegression,
		Targets:      []explain.TargetExplanation{},
	}
}

// topFeatures resolves and filters feature names, then selects the top
// weights of coef with the intercept appended as <BIAS> when bias is set.
func topFeatures(est interface{}, req explain.Request, coef []float64, intercept float64, bias bool) (*explain.FeatureWeights, error) {
	numFeatures := len(coef)
	biasName := ""
	if bias {
		biasName = explain.BiasName
		coef = append(coef, intercept)
	}
	fn, err := explain.ResolveFeatureNames(est, req, numFeatures, biasName)
	if err != nil {
		return nil, err
	}
	names, indices := fn.Filter(req.FeatureFilter, req.FeatureRe)
	if indices != nil {
		kept := make([]float64, len(indices))
		for i, idx := range indices {
			kept[i] = coef[idx]
		}
		coef = kept
	}
	return explain.GetTopFeatures(names, coef, req.Top), nil
}

func fitsIntercept(params map[string]interface{}) bool {
	v, ok := params["fit_intercept"].(bool)
	return ok && v
}

func regressionTarget(names []string) (string, error) {
	switch len(names) {
	case 0:
		return DefaultTargetName, nil
	case 1:
		return names[0], nil
	default:
		return "", errors.NewValueError("target_names",
			fmt.Sprintf("target_names has a wrong length: expected=1, got=%d", len(names)))
	}
}

// classNames returns the display name of every class.
func classNames(classes []float64, targetNames []string) ([]string, error) {
	if targetNames != nil {
		if len(targetNames) != len(classes) {
			return nil, errors.NewValueError("target_names",
				fmt.Sprintf("target_names has a wrong length: expected=%d, got=%d", len(classes), len(targetNames)))
		}
		return append([]string(nil), targetNames...), nil
	}
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = formatLabel(c)
	}
	return names, nil
}

// checkTargets rejects targets that name no class.
func checkTargets(targets []string, classes []float64, names []string) error {
	for _, t := range targets {
		found := false
		for i := range classes {
			if t == names[i] || t == formatLabel(classes[i]) {
				found = true
				break
			}
		}
		if !found {
			return errors.NewValueError("targets", fmt.Sprintf("unknown target %q", t))
		}
	}
	return nil
}

// selected reports whether any of aliases is in targets. A nil targets
// selects everything.
func selected(targets []string, aliases ...string) bool {
	if targets == nil {
		return true
	}
	for _, t := range targets {
		for _, a := range aliases {
			if t == a {
				return true
			}
		}
	}
	return false
}

func formatLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
