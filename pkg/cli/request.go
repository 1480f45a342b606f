package cli

import (
	"regexp"
	"strings"

	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// requestParams are the explanation parameters shared by the explain
// command and the HTTP handlers.
type requestParams struct {
	Top            int
	ImportanceType string
	FeatureNames   string // comma separated
	FeatureRe      string
}

func (p requestParams) options() ([]explain.Option, error) {
	opts := []explain.Option{
		explain.WithTop(p.Top),
		explain.WithImportanceType(p.ImportanceType),
	}
	if p.FeatureNames != "" {
		names := strings.Split(p.FeatureNames, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		opts = append(opts, explain.WithFeatureNames(names))
	}
	if p.FeatureRe != "" {
		re, err := regexp.Compile(p.FeatureRe)
		if err != nil {
			return nil, errors.NewValidationError("feature_re", err.Error(), p.FeatureRe)
		}
		opts = append(opts, explain.WithFeatureRe(re))
	}
	return opts, nil
}

func remaining(fi *explain.FeatureImportances) int {
	if fi == nil {
		return 0
	}
	return fi.Remaining
}
