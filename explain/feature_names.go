package explain

import (
	"fmt"
	"regexp"

	"github.com/YuminosukeSato/goeli5/core/model"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// BiasName is the display name of the intercept term of linear models.
const BiasName = "<BIAS>"

// FeatureNames is an ordered list of feature names, optionally followed by
// a bias entry at index Len().
type FeatureNames struct {
	names []string
	bias  string
}

// NewFeatureNames returns names without a bias entry. The slice is copied.
func NewFeatureNames(names []string) *FeatureNames {
	return &FeatureNames{names: append([]string(nil), names...)}
}

// DefaultFeatureNames returns x0 .. x{n-1}.
func DefaultFeatureNames(n int) *FeatureNames {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return &FeatureNames{names: names}
}

// Len is the number of features, not counting the bias.
func (fn *FeatureNames) Len() int { return len(fn.names) }

// HasBias reports whether a bias name is attached.
func (fn *FeatureNames) HasBias() bool { return fn.bias != "" }

// Name returns the name at index i. Index Len() is the bias when present.
func (fn *FeatureNames) Name(i int) string {
	if i == len(fn.names) && fn.bias != "" {
		return fn.bias
	}
	return fn.names[i]
}

// All returns every name including the bias, if any.
func (fn *FeatureNames) All() []string {
	out := append([]string(nil), fn.names...)
	if fn.bias != "" {
		out = append(out, fn.bias)
	}
	return out
}

// WithBias returns a copy with bias appended at index Len().
func (fn *FeatureNames) WithBias(bias string) *FeatureNames {
	return &FeatureNames{names: fn.names, bias: bias}
}

// Filter keeps the names matching re AND accepted by filter. A nil re or
// filter accepts everything. It returns the kept names and their indices
// into All(); indices is nil when neither filter is set.
func (fn *FeatureNames) Filter(filter func(string) bool, re *regexp.Regexp) ([]string, []int) {
	all := fn.All()
	if filter == nil && re == nil {
		return all, nil
	}
	names := make([]string, 0, len(all))
	indices := make([]int, 0, len(all))
	for i, name := range all {
		if re != nil && !re.MatchString(name) {
			continue
		}
		if filter != nil && !filter(name) {
			continue
		}
		names = append(names, name)
		indices = append(indices, i)
	}
	return names, indices
}

// ResolveFeatureNames picks the feature names for an estimator with
// numFeatures inputs. Explicit names win over the vectorizer, which wins
// over names the estimator remembers; x0.. is the fallback. A non-empty
// bias is attached at index numFeatures.
func ResolveFeatureNames(estimator interface{}, req Request, numFeatures int, bias string) (*FeatureNames, error) {
	var fn *FeatureNames
	switch {
	case req.FeatureNames != nil:
		if len(req.FeatureNames) != numFeatures {
			return nil, wrongLength(numFeatures, len(req.FeatureNames))
		}
		fn = NewFeatureNames(req.FeatureNames)
	case req.Vectorizer != nil:
		names := req.Vectorizer.FeatureNames()
		if len(names) != numFeatures {
			return nil, wrongLength(numFeatures, len(names))
		}
		fn = NewFeatureNames(names)
	default:
		if namer, ok := estimator.(model.FeatureNamer); ok {
			if names := namer.FeatureNamesIn(); len(names) == numFeatures {
				fn = NewFeatureNames(names)
			}
		}
		if fn == nil {
			fn = DefaultFeatureNames(numFeatures)
		}
	}
	if bias != "" {
		fn = fn.WithBias(bias)
	}
	return fn, nil
}

func wrongLength(expected, got int) error {
	return errors.NewValueError("feature_names",
		fmt.Sprintf("feature_names has a wrong length: expected=%d, got=%d", expected, got))
}
