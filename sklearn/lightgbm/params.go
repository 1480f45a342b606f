package lightgbm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// Params holds the scikit-learn style hyperparameters shared by
// LGBMClassifier and LGBMRegressor.
type Params struct {
	NumLeaves       int     // Maximum number of leaves in one tree
	MaxDepth        int     // Maximum tree depth, <= 0 means no limit
	LearningRate    float64 // Boosting learning rate
	NumIterations   int     // Number of boosting iterations (n_estimators)
	MinChildSamples int     // Minimum number of data in one leaf
	MinChildWeight  float64 // Minimum sum of hessians in one leaf
	RegLambda       float64 // L2 regularization
	MinSplitGain    float64 // Minimum gain required to split
	Objective       string  // Empty selects the estimator's default

	// ImportanceType is used by FeatureImportances: "split" or "gain".
	ImportanceType string

	// FeatureNames are stored in the trained model.
	FeatureNames []string
}

// DefaultParams returns the defaults of the Python LightGBM estimators.
func DefaultParams() Params {
	return Params{
		NumLeaves:       31,
		MaxDepth:        -1,
		LearningRate:    0.1,
		NumIterations:   100,
		MinChildSamples: 20,
		MinChildWeight:  1e-3,
		ImportanceType:  ImportanceSplit,
	}
}

func (p *Params) trainingParams(objective string, numClass int) TrainingParams {
	return TrainingParams{
		NumIterations:       p.NumIterations,
		LearningRate:        p.LearningRate,
		NumLeaves:           p.NumLeaves,
		MaxDepth:            p.MaxDepth,
		MinDataInLeaf:       p.MinChildSamples,
		MinSumHessianInLeaf: p.MinChildWeight,
		Lambda:              p.RegLambda,
		MinGainToSplit:      p.MinSplitGain,
		Objective:           objective,
		NumClass:            numClass,
		FeatureNames:        p.FeatureNames,
	}
}

// GetParams returns the hyperparameters keyed by their scikit-learn names.
func (p *Params) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"num_leaves":        p.NumLeaves,
		"max_depth":         p.MaxDepth,
		"learning_rate":     p.LearningRate,
		"n_estimators":      p.NumIterations,
		"min_child_samples": p.MinChildSamples,
		"min_child_weight":  p.MinChildWeight,
		"reg_lambda":        p.RegLambda,
		"min_split_gain":    p.MinSplitGain,
		"objective":         p.Objective,
		"importance_type":   p.ImportanceType,
	}
}

// SetParams sets hyperparameters by their scikit-learn names. Integer
// parameters accept int or integral float64 values.
func (p *Params) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "num_leaves":
			p.NumLeaves, err = toInt(key, value)
		case "max_depth":
			p.MaxDepth, err = toInt(key, value)
		case "learning_rate":
			p.LearningRate, err = toFloat(key, value)
		case "n_estimators", "num_iterations":
			p.NumIterations, err = toInt(key, value)
		case "min_child_samples":
			p.MinChildSamples, err = toInt(key, value)
		case "min_child_weight":
			p.MinChildWeight, err = toFloat(key, value)
		case "reg_lambda":
			p.RegLambda, err = toFloat(key, value)
		case "min_split_gain":
			p.MinSplitGain, err = toFloat(key, value)
		case "objective":
			p.Objective, err = toString(key, value)
		case "importance_type":
			p.ImportanceType, err = toString(key, value)
		default:
			err = errors.NewValidationError(key, "unknown parameter", value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// repr formats the parameters that differ from the defaults, the way
// scikit-learn prints an estimator.
func (p *Params) repr(name string) string {
	defaults := DefaultParams()
	current := p.GetParams()
	base := defaults.GetParams()

	var parts []string
	for key, value := range current {
		if base[key] == value {
			continue
		}
		if s, ok := value.(string); ok {
			parts = append(parts, fmt.Sprintf("%s='%s'", key, s))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	sort.Strings(parts)
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func toInt(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, errors.NewValidationError(key, "must be an integer", value)
}

func toFloat(key string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, errors.NewValidationError(key, "must be a number", value)
}

func toString(key string, value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", errors.NewValidationError(key, "must be a string", value)
}
