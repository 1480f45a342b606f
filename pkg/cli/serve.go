package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/goeli5/explain/format"
	"github.com/YuminosukeSato/goeli5/explain/plot"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
)

const (
	serverReadTimeout    = 30 * time.Second
	serverWriteTimeout   = 60 * time.Second
	serverMaxHeaderBytes = 1 << 20
)

const (
	addrFlagName     = "addr"
	modelDirFlagName = "model-dir"
)

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve explanations of model files over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  addrFlagName,
				Usage: "Address the server listens on",
			},
			&cli.StringFlag{
				Name:  modelDirFlagName,
				Usage: "Directory holding the model files",
			},
		},
		Action: a.runServe,
	}
}

func (a *app) runServe(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet(addrFlagName) {
		a.cfg.Server.Addr = cmd.String(addrFlagName)
	}
	if cmd.IsSet(modelDirFlagName) {
		a.cfg.Server.ModelDir = cmd.String(modelDirFlagName)
	}

	handler, err := a.newHandler()
	if err != nil {
		return err
	}
	s := &http.Server{
		Addr:           a.cfg.Server.Addr,
		Handler:        handler,
		ReadTimeout:    serverReadTimeout,
		WriteTimeout:   serverWriteTimeout,
		MaxHeaderBytes: serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.logger.Info("server started", "addr", a.cfg.Server.Addr, "model_dir", a.cfg.Server.ModelDir)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down server")
	}
	a.logger.Info("server stopped")
	return nil
}

func (a *app) newHandler() (http.Handler, error) {
	store, err := newModelStore(a.cfg.Server.ModelDir, a.cfg.Server.CacheSize, a.metrics)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.healthHandler)
	mux.HandleFunc("GET /explain", a.explainHandler(store, false))
	mux.HandleFunc("GET /explain/plot", a.explainHandler(store, true))
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	return mux, nil
}

func (a *app) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"estimators": a.registry.Kinds(),
	})
}

func (a *app) explainHandler(store *modelStore, asPlot bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := requestParams{
			Top:            a.cfg.Explain.Top,
			ImportanceType: a.cfg.Explain.ImportanceType,
			FeatureNames:   q.Get("feature_names"),
			FeatureRe:      q.Get("feature_re"),
		}
		if v := q.Get("top"); v != "" {
			top, err := strconv.Atoi(v)
			if err != nil {
				a.writeError(w, errors.NewValidationError("top", "must be an integer", v))
				return
			}
			params.Top = top
		}
		if v := q.Get("importance_type"); v != "" {
			params.ImportanceType = v
		}

		opts, err := params.options()
		if err != nil {
			a.writeError(w, err)
			return
		}
		est, err := store.Get(q.Get("model"))
		if err != nil {
			a.writeError(w, err)
			return
		}
		expl, err := a.registry.ExplainWeights(est, opts...)
		if err != nil {
			a.writeError(w, err)
			return
		}

		if asPlot {
			var buf bytes.Buffer
			if err := plot.Write(&buf, expl, plot.Options{Format: format.FormatPNG}); err != nil {
				a.writeError(w, err)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
			return
		}
		writeJSON(w, http.StatusOK, expl)
	}
}

// statusOf maps errors to HTTP status codes.
func statusOf(err error) int {
	var (
		validation  *errors.ValidationError
		value       *errors.ValueError
		notFitted   *errors.NotFittedError
		unsupported *errors.UnsupportedEstimatorError
	)
	switch {
	case errors.Is(err, errModelNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &value):
		return http.StatusBadRequest
	case errors.As(err, &notFitted), errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (a *app) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", log.ErrorKey, err)
	} else {
		a.logger.Debug("request rejected", log.ErrorKey, err, "status", status)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

