package explain

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
)

// WeightsFunc explains the weights of one concrete estimator type.
type WeightsFunc func(estimator interface{}, req Request) (*Explanation, error)

// Observer is notified after every dispatch. kind is the Go type of the
// estimator.
type Observer interface {
	ObserveExplanation(kind string, duration time.Duration, err error)
}

// Registry maps estimator types to WeightsFuncs. It is safe for concurrent
// use.
type Registry struct {
	mu       sync.RWMutex
	weights  map[reflect.Type]WeightsFunc
	observer Observer
	logger   log.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		weights: make(map[reflect.Type]WeightsFunc),
		logger:  log.GetLoggerWithName("explain"),
	}
}

// Default is the registry used by the package-level ExplainWeights.
// Adapter packages register into it from init.
var Default = NewRegistry()

// Register binds fn to the dynamic type t. A later call for the same type
// replaces the earlier one.
func (r *Registry) Register(t reflect.Type, fn WeightsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weights[t] = fn
}

// RegisterWeights registers fn for estimators of type T.
func RegisterWeights[T any](r *Registry, fn func(est T, req Request) (*Explanation, error)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	r.Register(t, func(est interface{}, req Request) (*Explanation, error) {
		return fn(est.(T), req)
	})
}

// SetObserver installs o; nil removes it.
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// SetLogger replaces the registry's logger.
func (r *Registry) SetLogger(l log.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l
}

// Kinds lists the registered estimator types, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.weights))
	for t := range r.weights {
		kinds = append(kinds, t.String())
	}
	sort.Strings(kinds)
	return kinds
}

// Supports reports whether a WeightsFunc is registered for est.
func (r *Registry) Supports(est interface{}) bool {
	if est == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.weights[reflect.TypeOf(est)]
	return ok
}

// ExplainWeights builds a Request from opts and dispatches on the type of est.
func (r *Registry) ExplainWeights(est interface{}, opts ...Option) (*Explanation, error) {
	return r.Explain(est, NewRequest(opts...))
}

// Explain dispatches req on the type of est.
func (r *Registry) Explain(est interface{}, req Request) (expl *Explanation, err error) {
	kind := "<nil>"
	var fn WeightsFunc
	r.mu.RLock()
	if est != nil {
		t := reflect.TypeOf(est)
		kind = t.String()
		fn = r.weights[t]
	}
	observer, logger := r.observer, r.logger
	r.mu.RUnlock()

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if observer != nil {
			observer.ObserveExplanation(kind, elapsed, err)
		}
		if err != nil {
			logger.Warn("explain weights failed",
				log.OperationKey, log.OperationExplainWeights,
				log.EstimatorKindKey, kind,
				log.ErrorKey, err,
			)
			return
		}
		if logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("explained weights",
				log.OperationKey, log.OperationExplainWeights,
				log.EstimatorKindKey, kind,
				log.DurationMsKey, float64(elapsed.Microseconds())/1000,
			)
		}
	}()

	if fn == nil {
		return nil, errors.NewUnsupportedEstimatorError("ExplainWeights", kind)
	}
	logger.Debug("dispatch",
		log.EstimatorKindKey, kind,
		log.TopKey, req.Top,
		log.ImportanceTypeKey, req.ImportanceType,
	)

	defer errors.Recover(&err, fmt.Sprintf("ExplainWeights(%s)", kind))
	return fn(est, req)
}

// ExplainWeights explains est using the Default registry.
func ExplainWeights(est interface{}, opts ...Option) (*Explanation, error) {
	return Default.ExplainWeights(est, opts...)
}
