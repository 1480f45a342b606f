package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
	"github.com/YuminosukeSato/goeli5/pkg/metrics"
	"github.com/YuminosukeSato/goeli5/sklearn/lightgbm"
)

// errModelNotFound marks a model name that does not resolve to a file.
var errModelNotFound = errors.New("model not found")

// loadModel reads a LightGBM text or JSON dump and counts the attempt.
func loadModel(m *metrics.Metrics, path string) (lightgbm.Estimator, error) {
	est, err := lightgbm.LoadEstimator(path)
	m.ObserveModelLoad(err)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return est, nil
}

// loadModels loads every path concurrently and returns the estimators in
// argument order. The first failure cancels the rest.
func loadModels(ctx context.Context, m *metrics.Metrics, paths []string) ([]lightgbm.Estimator, error) {
	out := make([]lightgbm.Estimator, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			est, err := loadModel(m, path)
			if err != nil {
				return err
			}
			out[i] = est
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// modelStore resolves model names inside a directory and keeps the most
// recently used estimators in memory.
type modelStore struct {
	dir     string
	cache   *lru.Cache[string, lightgbm.Estimator]
	metrics *metrics.Metrics
	logger  log.Logger
}

func newModelStore(dir string, size int, m *metrics.Metrics) (*modelStore, error) {
	cache, err := lru.New[string, lightgbm.Estimator](size)
	if err != nil {
		return nil, errors.Wrap(err, "creating model cache")
	}
	return &modelStore{
		dir:     dir,
		cache:   cache,
		metrics: m,
		logger:  log.GetLoggerWithName("cli.models"),
	}, nil
}

// Get returns the estimator stored under name, a path relative to the
// model directory.
func (s *modelStore) Get(name string) (lightgbm.Estimator, error) {
	if name == "" || !filepath.IsLocal(name) {
		return nil, errors.NewValidationError("model", "must be a relative path inside the model directory", name)
	}
	key := filepath.Clean(name)
	if est, ok := s.cache.Get(key); ok {
		s.metrics.ObserveCache(true)
		return est, nil
	}
	s.metrics.ObserveCache(false)

	path := filepath.Join(s.dir, key)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(errModelNotFound, "%s", name)
	}
	est, err := loadModel(s.metrics, path)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, est)
	s.logger.Debug("model cached", log.ModelNameKey, key, "cache.len", s.cache.Len())
	return est, nil
}
