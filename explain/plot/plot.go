// Package plot draws explanations as horizontal bar charts.
package plot

import (
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// Options controls the chart. Zero fields take defaults.
type Options struct {
	Format string // "png" (default) or "svg"
	Width  vg.Length
	Title  string
}

var (
	positiveColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	negativeColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

const (
	defaultWidth = 6 * vg.Inch
	rowHeight    = 0.3 * vg.Inch
	minHeight    = 2 * vg.Inch
)

// Write draws the features of expl, largest at the top, and encodes the
// image to w. Feature importances are drawn as they are; for linear
// models the first target's positive and negative weights are drawn.
func Write(w io.Writer, expl *explain.Explanation, opts Options) error {
	p, n, err := New(expl, opts.Title)
	if err != nil {
		return err
	}
	format := opts.Format
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "svg" {
		return errors.NewValidationError("format", "must be png or svg", format)
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	height := rowHeight * vg.Length(n+2)
	if height < minHeight {
		height = minHeight
	}

	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return errors.Wrap(err, "failed to render chart")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write chart")
	}
	return nil
}

// New builds the chart for expl and returns it with the number of bars.
func New(expl *explain.Explanation, title string) (*plot.Plot, int, error) {
	if expl == nil {
		return nil, 0, errors.NewValueError("plot.New", "nil explanation")
	}
	weights := bars(expl)
	if len(weights) == 0 {
		return nil, 0, errors.NewValueError("plot.New", "explanation has no features to plot")
	}

	p := plot.New()
	p.Title.Text = title
	if title == "" {
		p.Title.Text = expl.Estimator
	}
	p.X.Label.Text = "Weight"

	// plotter draws the first value at the bottom.
	n := len(weights)
	names := make([]string, n)
	pos := make(plotter.Values, n)
	neg := make(plotter.Values, n)
	for i, fw := range weights {
		j := n - 1 - i
		names[j] = fw.Feature
		if fw.Weight >= 0 {
			pos[j] = fw.Weight
		} else {
			neg[j] = fw.Weight
		}
	}

	for _, series := range []struct {
		values plotter.Values
		color  color.Color
	}{{pos, positiveColor}, {neg, negativeColor}} {
		chart, err := plotter.NewBarChart(series.values, rowHeight*0.8)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to build bar chart")
		}
		chart.Horizontal = true
		chart.Color = series.color
		chart.LineStyle.Width = 0
		p.Add(chart)
	}
	p.NominalY(names...)
	return p, n, nil
}

func bars(expl *explain.Explanation) []explain.FeatureWeight {
	if expl.FeatureImportances != nil {
		return expl.FeatureImportances.Importances
	}
	for _, t := range expl.Targets {
		if t.FeatureWeights == nil {
			continue
		}
		out := append([]explain.FeatureWeight(nil), t.FeatureWeights.Pos...)
		// Neg is ascending, so the largest magnitude ends up last.
		for i := len(t.FeatureWeights.Neg) - 1; i >= 0; i-- {
			out = append(out, t.FeatureWeights.Neg[i])
		}
		return out
	}
	return nil
}
