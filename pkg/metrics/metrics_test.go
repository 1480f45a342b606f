package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

var _ explain.Observer = (*Metrics)(nil)

func TestObserveExplanation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	m.ObserveExplanation("*lightgbm.LGBMClassifier", 2*time.Millisecond, nil)
	m.ObserveExplanation("*lightgbm.LGBMClassifier", time.Millisecond, errors.New("boom"))
	m.ObserveExplanation("*linear.LinearRegression", time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExplanationsTotal.WithLabelValues("*lightgbm.LGBMClassifier")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExplanationFailures.WithLabelValues("*lightgbm.LGBMClassifier")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ExplanationFailures.WithLabelValues("*linear.LinearRegression")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ExplanationLatency))
}

func TestObserveModelLoadAndCache(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveModelLoad(nil)
	m.ObserveModelLoad(errors.New("missing"))
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ModelLoads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelLoadFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses))
}

func TestRegistryWiring(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	r := explain.NewRegistry()
	r.SetObserver(m)
	_, err := r.ExplainWeights(struct{}{})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExplanationFailures.WithLabelValues("struct {}")))
	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
