package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// TextOptions tunes the text renderer. The zero value prints everything
// with 4 decimal places.
type TextOptions struct {
	HideDescription bool
	HideMethod      bool
	Precision       int
}

const defaultPrecision = 4

// Text renders expl as a plain-text table.
func Text(w io.Writer, expl *explain.Explanation, opts TextOptions) error {
	if expl == nil {
		return errors.NewValueError("format.Text", "nil explanation")
	}
	prec := opts.Precision
	if prec <= 0 {
		prec = defaultPrecision
	}

	var b strings.Builder
	if expl.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", expl.Error)
	}
	if !opts.HideMethod && expl.Method != "" {
		fmt.Fprintf(&b, "Explained as: %s\n", expl.Method)
	}
	if !opts.HideDescription && expl.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(expl.Description))
	}
	if fi := expl.FeatureImportances; fi != nil {
		b.WriteString("\n")
		writeImportances(&b, fi, prec)
	}
	for _, target := range expl.Targets {
		b.WriteString("\n")
		writeTarget(&b, target, expl.IsRegression, prec)
	}

	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "failed to write text explanation")
}

func writeImportances(b *strings.Builder, fi *explain.FeatureImportances, prec int) {
	rows := make([][2]string, 0, len(fi.Importances))
	for _, fw := range fi.Importances {
		weight := fmt.Sprintf("%.*f", prec, fw.Weight)
		if fw.Std != nil {
			weight += fmt.Sprintf(" ± %.*f", prec, 2*(*fw.Std))
		}
		rows = append(rows, [2]string{weight, fw.Feature})
	}
	writeTable(b, rows)
	if fi.Remaining > 0 {
		fmt.Fprintf(b, "… %d more …\n", fi.Remaining)
	}
}

func writeTarget(b *strings.Builder, t explain.TargetExplanation, isRegression bool, prec int) {
	if isRegression && t.Target == "y" {
		b.WriteString("y top features\n")
	} else {
		fmt.Fprintf(b, "y=%s top features\n", t.Target)
	}
	fw := t.FeatureWeights
	if fw == nil {
		return
	}

	var rows [][2]string
	for _, w := range fw.Pos {
		rows = append(rows, [2]string{fmt.Sprintf("%+.*f", prec, w.Weight), w.Feature})
	}
	if fw.PosRemaining > 0 {
		rows = append(rows, [2]string{"", fmt.Sprintf("… %d more positive …", fw.PosRemaining)})
	}
	if fw.NegRemaining > 0 {
		rows = append(rows, [2]string{"", fmt.Sprintf("… %d more negative …", fw.NegRemaining)})
	}
	for _, w := range fw.Neg {
		rows = append(rows, [2]string{fmt.Sprintf("%+.*f", prec, w.Weight), w.Feature})
	}
	writeTable(b, rows)
}

// writeTable writes a Weight/Feature table with the weight column padded
// to its widest entry.
func writeTable(b *strings.Builder, rows [][2]string) {
	width := len([]rune("Weight"))
	for _, r := range rows {
		if n := len([]rune(r[0])); n > width {
			width = n
		}
	}
	fmt.Fprintf(b, "%-*s  %s\n", width, "Weight", "Feature")
	for _, r := range rows {
		if r[0] == "" {
			fmt.Fprintf(b, "%*s  %s\n", width, "", r[1])
			continue
		}
		pad := width - len([]rune(r[0]))
		fmt.Fprintf(b, "%s%s  %s\n", r[0], strings.Repeat(" ", pad), r[1])
	}
}
