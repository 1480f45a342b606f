// Standard attribute keys shared by every component that logs.
//
// Keys follow a dotted, hierarchical convention ("model.name",
// "data.features") so log pipelines can filter by prefix.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LGBMClassifier", "LinearRegression"
	ModelNameKey = "model.name"

	// OperationKey names the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	// Examples: "explain", "lightgbm.trainer", "cli"
	ComponentKey = "ml.component"

	// ObjectiveKey records the boosting objective of a model.
	ObjectiveKey = "model.objective"
)

// Data Shape
const (
	// SamplesKey is the number of rows processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns).
	FeaturesKey = "data.features"

	// TreesKey is the number of trees in an ensemble.
	TreesKey = "model.trees"
)

// Training Progress and Performance
const (
	// IterationKey is the boosting iteration.
	IterationKey = "training.iteration"

	// GainKey is the split gain of the most recent tree.
	GainKey = "training.gain"

	// DurationMsKey is the wall time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Explanation Context
const (
	// ImportanceTypeKey is the requested importance metric ("gain" or "split").
	ImportanceTypeKey = "explain.importance_type"

	// TopKey is the number of features requested for display.
	TopKey = "explain.top"

	// EstimatorKindKey is the Go type used for dispatch.
	EstimatorKindKey = "explain.estimator_kind"

	// RemainingKey is the number of non-zero features not shown.
	RemainingKey = "explain.remaining"
)

// Error Context
const (
	// ErrorKey carries the error value. Stack traces are extracted from it.
	ErrorKey = "error"

	// StacktraceKey holds the stack trace extracted from ErrorKey.
	StacktraceKey = "error.stacktrace"

	// ErrorCodeKey provides a structured error code.
	ErrorCodeKey = "error.code"
)

// Standard values.
const (
	OperationFit            = "fit"
	OperationPredict        = "predict"
	OperationLoad           = "load"
	OperationExplainWeights = "explain_weights"
	OperationFormat         = "format"

	ErrorNotFitted   = "NOT_FITTED"
	ErrorUnsupported = "UNSUPPORTED_ESTIMATOR"
	ErrorInvalidArg  = "INVALID_ARGUMENT"
)
