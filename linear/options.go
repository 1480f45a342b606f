package linear

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// WithFeatureNames records the column names of the training data.
func WithFeatureNames(names []string) Option {
	return func(lr *LinearRegression) {
		lr.featureNames = append([]string(nil), names...)
	}
}

// LogisticOption configures LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithC sets the inverse L2 regularization strength.
func WithC(c float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithLogisticFitIntercept sets whether to fit intercepts.
func WithLogisticFitIntercept(fit bool) LogisticOption {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithMaxIter caps the gradient descent iterations per class.
func WithMaxIter(n int) LogisticOption {
	return func(lr *LogisticRegression) { lr.maxIter = n }
}

// WithTol sets the gradient norm at which fitting stops.
func WithTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithLogisticFeatureNames records the column names of the training data.
func WithLogisticFeatureNames(names []string) LogisticOption {
	return func(lr *LogisticRegression) {
		lr.featureNames = append([]string(nil), names...)
	}
}
