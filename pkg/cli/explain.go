package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/goeli5/explain/format"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
	"github.com/YuminosukeSato/goeli5/pkg/log"
)

const (
	importanceTypeFlagName = "importance-type"
	topFlagName            = "top"
	featureNamesFlagName   = "feature-names"
	featureReFlagName      = "feature-re"
	outputFlagName         = "output"
)

func (a *app) explainCommand() *cli.Command {
	return &cli.Command{
		Name:      "explain",
		Usage:     "Explain the feature weights of model files",
		ArgsUsage: "MODEL [MODEL...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  importanceTypeFlagName,
				Usage: "Importance metric of tree ensembles [gain, split]",
			},
			&cli.IntFlag{
				Name:  topFlagName,
				Usage: "Number of features to show, negative for all",
			},
			&cli.StringFlag{
				Name:  featureNamesFlagName,
				Usage: "Comma separated feature names overriding the model's",
			},
			&cli.StringFlag{
				Name:  featureReFlagName,
				Usage: "Only show features matching this regular expression",
			},
			&cli.StringFlag{
				Name:    outputFlagName,
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: a.runExplain,
	}
}

func (a *app) paramsFrom(cmd *cli.Command) requestParams {
	p := requestParams{
		Top:            a.cfg.Explain.Top,
		ImportanceType: a.cfg.Explain.ImportanceType,
		FeatureNames:   cmd.String(featureNamesFlagName),
		FeatureRe:      cmd.String(featureReFlagName),
	}
	if cmd.IsSet(topFlagName) {
		p.Top = cmd.Int(topFlagName)
	}
	if cmd.IsSet(importanceTypeFlagName) {
		p.ImportanceType = cmd.String(importanceTypeFlagName)
	}
	return p
}

func (a *app) runExplain(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errors.NewValueError("explain", "at least one model file is required")
	}
	outFormat := a.cfg.Explain.Format
	if format.IsBinary(outFormat) && len(paths) > 1 {
		return errors.NewValueError("explain", fmt.Sprintf("format %s accepts a single model", outFormat))
	}
	opts, err := a.paramsFrom(cmd).options()
	if err != nil {
		return err
	}

	estimators, err := loadModels(ctx, a.metrics, paths)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for i, est := range estimators {
		expl, err := a.registry.ExplainWeights(est, opts...)
		if err != nil {
			return errors.Wrapf(err, "explaining %s", paths[i])
		}
		if len(paths) > 1 && outFormat == format.FormatText {
			fmt.Fprintf(&buf, "== %s ==\n", paths[i])
		}
		if err := format.Write(&buf, expl, outFormat); err != nil {
			return err
		}
		if len(paths) > 1 && outFormat == format.FormatYAML && i < len(paths)-1 {
			buf.WriteString("---\n")
		}
		a.logger.Info("explained",
			log.OperationKey, log.OperationExplainWeights,
			log.ModelNameKey, paths[i],
			log.RemainingKey, remaining(expl.FeatureImportances),
		)
	}
	return a.writeOutput(cmd.String(outputFlagName), buf.Bytes())
}

func (a *app) writeOutput(path string, data []byte) error {
	var w io.Writer = a.stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "creating %s", path)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "writing output")
	}
	return nil
}
