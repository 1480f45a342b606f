// Package cli implements the goeli5 command line: explaining model files
// and serving explanations over HTTP.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/explain/format"
	"github.com/YuminosukeSato/goeli5/explain/lgbm"
	"github.com/YuminosukeSato/goeli5/explain/linear"
	"github.com/YuminosukeSato/goeli5/pkg/config"
	"github.com/YuminosukeSato/goeli5/pkg/log"
	"github.com/YuminosukeSato/goeli5/pkg/metrics"
)

var (
	version = "v0.1.0-dev"
	commit  = ""
)

const (
	configFlagName = "config"
	debugFlagName  = "debug"
	formatFlagName = "format"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg      *config.Config
	registry *explain.Registry
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	stdout   io.Writer
	logger   log.Logger
}

// newRegistry returns a registry holding every adapter of the binary.
// Each app owns one so its metrics observe only its own explanations.
func newRegistry() *explain.Registry {
	r := explain.NewRegistry()
	lgbm.Register(r)
	linear.Register(r)
	return r
}

// New returns the root command writing results to stdout. Every call
// builds fresh flags, so commands from separate calls share no parse state.
func New(stdout io.Writer) *cli.Command {
	promRegistry := prometheus.NewRegistry()
	a := &app{
		cfg:      config.Default(),
		registry: newRegistry(),
		metrics:  metrics.NewWithRegistry(promRegistry),
		gatherer: promRegistry,
		stdout:   stdout,
		logger:   log.GetLoggerWithName("cli"),
	}
	a.registry.SetObserver(a.metrics)

	return &cli.Command{
		Name:    "goeli5",
		Usage:   "Explain the feature weights of trained models",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlagName,
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				Sources: cli.EnvVars(config.EnvPrefix + "CONFIG"),
			},
			&cli.BoolFlag{
				Name:  debugFlagName,
				Usage: "Log at debug level",
			},
			&cli.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [" + strings.Join(format.Formats, ", ") + "]",
			},
		},
		Commands: []*cli.Command{
			a.explainCommand(),
			a.serveCommand(),
		},
		Before: a.before,
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String(configFlagName))
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet(formatFlagName) {
		cfg.Explain.Format = strings.ToLower(cmd.String(formatFlagName))
	}
	level := log.ParseLevel(cfg.Log.Level)
	if cmd.Bool(debugFlagName) {
		level = log.LevelDebug
	}
	log.SetLevel(level)

	a.cfg = cfg
	a.logger.Debug("configured",
		"format", cfg.Explain.Format,
		log.TopKey, cfg.Explain.Top,
		log.ImportanceTypeKey, cfg.Explain.ImportanceType,
	)
	return ctx, nil
}

// Execute runs the command line with os.Args and exits on failure.
func Execute() {
	if err := New(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.GetLoggerWithName("cli").Error("fatal error", log.ErrorKey, err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
