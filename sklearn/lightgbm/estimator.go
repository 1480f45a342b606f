package lightgbm

import (
	"bytes"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goeli5/core/model"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// Estimator is the behavior shared by LGBMClassifier and LGBMRegressor.
type Estimator interface {
	model.Estimator
	model.Typed
	model.FeatureNamer

	// Booster returns the underlying model or a NotFittedError.
	Booster() (*Model, error)
}

var (
	_ Estimator = (*LGBMClassifier)(nil)
	_ Estimator = (*LGBMRegressor)(nil)
)

// LoadModel reads a model file, detecting the dump_model() JSON format by
// its leading brace and falling back to the text format.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model file %s", path)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return LoadFromJSON(trimmed)
	}
	return LoadFromReader(bytes.NewReader(data))
}

// LoadEstimator loads a model file and wraps it in the estimator matching
// its objective.
func LoadEstimator(path string) (Estimator, error) {
	m, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	return FromModel(m)
}

// FromModel wraps a booster in an LGBMClassifier for classification
// objectives and in an LGBMRegressor otherwise.
func FromModel(m *Model) (Estimator, error) {
	if m == nil {
		return nil, errors.NewValueError("FromModel", "nil model")
	}
	if m.Objective.IsClassification() {
		clf := NewLGBMClassifier()
		if err := clf.setModel(m); err != nil {
			return nil, err
		}
		return clf, nil
	}
	reg := NewLGBMRegressor()
	if err := reg.setModel(m); err != nil {
		return nil, err
	}
	return reg, nil
}

// featureNamesIn hides the Column_i names LightGBM generates when no names
// were given.
func featureNamesIn(m *Model) []string {
	if m == nil || len(m.FeatureNames) == 0 {
		return nil
	}
	generated := true
	for i, name := range defaultColumnNames(len(m.FeatureNames)) {
		if m.FeatureNames[i] != name {
			generated = false
			break
		}
	}
	if generated {
		return nil
	}
	return append([]string(nil), m.FeatureNames...)
}

func checkFeatures(op string, m *Model, X mat.Matrix) error {
	_, cols := X.Dims()
	if cols != m.NumFeatures {
		return errors.NewDimensionError(op, m.NumFeatures, cols, 1)
	}
	return nil
}

func objectiveOr(objective string, fallback ObjectiveType) string {
	if strings.TrimSpace(objective) == "" {
		return string(fallback)
	}
	return objective
}

var (
	_ model.Classifier = (*LGBMClassifier)(nil)
	_ model.Regressor  = (*LGBMRegressor)(nil)
)
