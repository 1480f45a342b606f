package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/pkg/config"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
	"github.com/YuminosukeSato/goeli5/pkg/metrics"
)

func newTestServer(t *testing.T) (*httptest.Server, *app) {
	t.Helper()
	dir := t.TempDir()
	data, err := os.ReadFile(textModel)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "binary.txt"), data, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.txt"), []byte("not a model"), 0o600))

	cfg := config.Default()
	cfg.Server.ModelDir = dir
	cfg.Server.CacheSize = 2
	promRegistry := prometheus.NewRegistry()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	a := &app{
		cfg:      cfg,
		registry: newRegistry(),
		metrics:  metrics.NewWithRegistry(promRegistry),
		gatherer: promRegistry,
		stdout:   &bytes.Buffer{},
		logger:   logger,
	}
	a.registry.SetObserver(a.metrics)
	handler, err := a.newHandler()
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, a
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status     string   `json:"status"`
		Estimators []string `json:"estimators"`
	}
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Contains(t, health.Estimators, "*lightgbm.LGBMClassifier")
	assert.Contains(t, health.Estimators, "*linear.LinearRegression")
}

func TestExplainEndpoint(t *testing.T) {
	srv, a := newTestServer(t)

	resp, body := get(t, srv.URL+"/explain?model=binary.txt&top=2")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var expl explain.Explanation
	require.NoError(t, json.Unmarshal(body, &expl))
	require.Len(t, expl.FeatureImportances.Importances, 2)
	assert.Equal(t, "age", expl.FeatureImportances.Importances[0].Feature)
	assert.Equal(t, 1, expl.FeatureImportances.Remaining)

	resp, _ = get(t, srv.URL+"/explain?model=binary.txt&importance_type=split&feature_re=^c")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.ModelLoads))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.CacheHits))
}

func TestExplainEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		query  string
		status int
	}{
		{"", http.StatusBadRequest},
		{"model=../binary.txt", http.StatusBadRequest},
		{"model=missing.txt", http.StatusNotFound},
		{"model=binary.txt&top=x", http.StatusBadRequest},
		{"model=binary.txt&feature_re=(", http.StatusBadRequest},
		{"model=binary.txt&importance_type=cover", http.StatusBadRequest},
		{"model=binary.txt&feature_names=a", http.StatusBadRequest},
		{"model=broken.txt", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := get(t, srv.URL+"/explain?"+tt.query)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			var payload map[string]string
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestPlotEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := get(t, srv.URL+"/explain/plot?model=binary.txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	resp, _ = get(t, srv.URL+"/explain/plot?model=binary.txt&feature_re=nothing")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	get(t, srv.URL+"/explain?model=binary.txt")

	resp, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "goeli5_model_loads_total 1")
}

func TestAppsCountOwnExplanations(t *testing.T) {
	first, a := newTestServer(t)
	_, b := newTestServer(t)

	resp, _ := get(t, first.URL+"/explain?model=binary.txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, testutil.CollectAndCount(a.metrics.ExplanationsTotal))
	assert.Equal(t, 0, testutil.CollectAndCount(b.metrics.ExplanationsTotal))
	assert.NotSame(t, a.registry, b.registry)
	assert.NotSame(t, explain.Default, a.registry)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusOf(errors.Wrap(errModelNotFound, "x")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(errors.NewNotFittedError("LGBMClassifier", "Booster")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(errors.NewUnsupportedEstimatorError("ExplainWeights", "int")))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom")))
}
