package explain

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

type namedEstimator struct{ names []string }

func (e namedEstimator) FeatureNamesIn() []string { return e.names }

type staticVectorizer []string

func (v staticVectorizer) FeatureNames() []string { return v }

func TestResolveFeatureNames(t *testing.T) {
	tests := []struct {
		name      string
		estimator interface{}
		req       Request
		bias      string
		want      []string
	}{
		{"defaults", struct{}{}, Request{}, "", []string{"x0", "x1", "x2"}},
		{"explicit", struct{}{}, Request{FeatureNames: []string{"a", "b", "c"}}, "", []string{"a", "b", "c"}},
		{"vectorizer", struct{}{}, Request{Vectorizer: staticVectorizer{"u", "v", "w"}}, "", []string{"u", "v", "w"}},
		{
			"explicit wins over vectorizer",
			struct{}{},
			Request{FeatureNames: []string{"a", "b", "c"}, Vectorizer: staticVectorizer{"u", "v", "w"}},
			"",
			[]string{"a", "b", "c"},
		},
		{"estimator names", namedEstimator{[]string{"age", "income", "city"}}, Request{}, "", []string{"age", "income", "city"}},
		{"estimator names with wrong length ignored", namedEstimator{[]string{"age"}}, Request{}, "", []string{"x0", "x1", "x2"}},
		{"bias", struct{}{}, Request{}, BiasName, []string{"x0", "x1", "x2", "<BIAS>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := ResolveFeatureNames(tt.estimator, tt.req, 3, tt.bias)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fn.All())
			assert.Equal(t, 3, fn.Len())
			assert.Equal(t, tt.bias != "", fn.HasBias())
		})
	}
}

func TestResolveFeatureNamesWrongLength(t *testing.T) {
	for _, req := range []Request{
		{FeatureNames: []string{"a", "b"}},
		{Vectorizer: staticVectorizer{"a", "b"}},
	} {
		_, err := ResolveFeatureNames(nil, req, 3, "")
		require.Error(t, err)
		var valueErr *errors.ValueError
		require.True(t, errors.As(err, &valueErr))
		assert.Contains(t, err.Error(), "feature_names has a wrong length: expected=3, got=2")
	}
}

func TestFeatureNamesFilter(t *testing.T) {
	fn := NewFeatureNames([]string{"age", "income", "city_a", "city_b"}).WithBias(BiasName)

	names, indices := fn.Filter(nil, nil)
	assert.Equal(t, []string{"age", "income", "city_a", "city_b", "<BIAS>"}, names)
	assert.Nil(t, indices)

	names, indices = fn.Filter(nil, regexp.MustCompile("city"))
	assert.Equal(t, []string{"city_a", "city_b"}, names)
	assert.Equal(t, []int{2, 3}, indices)

	names, indices = fn.Filter(func(n string) bool { return !strings.HasSuffix(n, "_b") }, nil)
	assert.Equal(t, []string{"age", "income", "city_a", "<BIAS>"}, names)
	assert.Equal(t, []int{0, 1, 2, 4}, indices)

	names, indices = fn.Filter(func(n string) bool { return !strings.HasSuffix(n, "_b") }, regexp.MustCompile("^c"))
	assert.Equal(t, []string{"city_a"}, names)
	assert.Equal(t, []int{2}, indices)

	names, indices = fn.Filter(nil, regexp.MustCompile("nothing"))
	assert.Empty(t, names)
	assert.Empty(t, indices)
}

func TestFeatureNamesName(t *testing.T) {
	fn := DefaultFeatureNames(2).WithBias(BiasName)
	assert.Equal(t, "x1", fn.Name(1))
	assert.Equal(t, "<BIAS>", fn.Name(2))
}
