package explain

import "regexp"

const (
	// DefaultTop is the number of features shown when WithTop is not used.
	DefaultTop = 20

	// DefaultImportanceType is the importance metric requested from tree
	// ensembles when WithImportanceType is not used.
	DefaultImportanceType = "gain"

	// Unlimited passed to WithTop shows every feature.
	Unlimited = -1
)

// Vectorizer is a fitted feature extractor that knows the names of the
// columns it produces.
type Vectorizer interface {
	FeatureNames() []string
}

// Request carries the parameters shared by every WeightsFunc. Adapters use
// the fields that apply to their estimator and ignore the rest.
type Request struct {
	Vectorizer     Vectorizer
	Top            int // negative means unlimited
	TargetNames    []string
	Targets        []string
	FeatureNames   []string
	FeatureRe      *regexp.Regexp
	FeatureFilter  func(name string) bool
	ImportanceType string
}

// Option configures a Request.
type Option func(*Request)

// NewRequest returns a Request with defaults applied, then opts.
func NewRequest(opts ...Option) Request {
	req := Request{
		Top:            DefaultTop,
		ImportanceType: DefaultImportanceType,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// WithVectorizer supplies feature names through a fitted vectorizer.
func WithVectorizer(vec Vectorizer) Option {
	return func(r *Request) { r.Vectorizer = vec }
}

// WithTop limits the number of features shown. Use Unlimited to show all.
func WithTop(top int) Option {
	return func(r *Request) { r.Top = top }
}

// WithTargetNames names the targets of multi-output models.
func WithTargetNames(names []string) Option {
	return func(r *Request) { r.TargetNames = names }
}

// WithTargets restricts the explanation to the named targets.
func WithTargets(targets []string) Option {
	return func(r *Request) { r.Targets = targets }
}

// WithFeatureNames sets explicit feature names. The length must match the
// number of features of the estimator.
func WithFeatureNames(names []string) Option {
	return func(r *Request) { r.FeatureNames = names }
}

// WithFeatureRe keeps only features whose name matches re.
func WithFeatureRe(re *regexp.Regexp) Option {
	return func(r *Request) { r.FeatureRe = re }
}

// WithFeatureFilter keeps only features for which filter returns true.
func WithFeatureFilter(filter func(name string) bool) Option {
	return func(r *Request) { r.FeatureFilter = filter }
}

// WithImportanceType selects the importance metric of tree ensembles.
func WithImportanceType(importanceType string) Option {
	return func(r *Request) { r.ImportanceType = importanceType }
}
