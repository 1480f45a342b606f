package explain

// Explanation is the result of explaining an estimator. Exactly one of
// FeatureImportances and Targets is set for weight explanations.
type Explanation struct {
	Estimator          string              `json:"estimator" yaml:"estimator"`
	Description        string              `json:"description,omitempty" yaml:"description,omitempty"`
	Error              string              `json:"error,omitempty" yaml:"error,omitempty"`
	Method             string              `json:"method,omitempty" yaml:"method,omitempty"`
	IsRegression       bool                `json:"is_regression" yaml:"is_regression"`
	Targets            []TargetExplanation `json:"targets,omitempty" yaml:"targets,omitempty"`
	FeatureImportances *FeatureImportances `json:"feature_importances,omitempty" yaml:"feature_importances,omitempty"`
}

// FeatureImportances lists the top features of a model without a sign,
// such as tree ensembles. Remaining counts non-zero features not shown.
type FeatureImportances struct {
	Importances []FeatureWeight `json:"importances" yaml:"importances"`
	Remaining   int             `json:"remaining" yaml:"remaining"`
}

// FeatureWeight is a single feature with its weight and optional standard
// deviation.
type FeatureWeight struct {
	Feature string   `json:"feature" yaml:"feature"`
	Weight  float64  `json:"weight" yaml:"weight"`
	Std     *float64 `json:"std,omitempty" yaml:"std,omitempty"`
}

// TargetExplanation holds the weights for one target of a linear model.
type TargetExplanation struct {
	Target         string          `json:"target" yaml:"target"`
	FeatureWeights *FeatureWeights `json:"feature_weights,omitempty" yaml:"feature_weights,omitempty"`
}

// FeatureWeights splits signed weights into positive (descending) and
// negative (ascending) lists.
type FeatureWeights struct {
	Pos          []FeatureWeight `json:"pos" yaml:"pos"`
	Neg          []FeatureWeight `json:"neg" yaml:"neg"`
	PosRemaining int             `json:"pos_remaining" yaml:"pos_remaining"`
	NegRemaining int             `json:"neg_remaining" yaml:"neg_remaining"`
}
