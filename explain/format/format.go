// Package format renders explanations as text, JSON, YAML or charts.
package format

import (
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/goeli5/explain"
	"github.com/YuminosukeSato/goeli5/explain/plot"
	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatPNG  = "png"
	FormatSVG  = "svg"
)

// Formats lists every format accepted by Write.
var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatPNG, FormatSVG}

// Write renders expl to w in the named format.
func Write(w io.Writer, expl *explain.Explanation, format string) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return Text(w, expl, TextOptions{})
	case FormatJSON:
		return JSON(w, expl)
	case FormatYAML:
		return YAML(w, expl)
	case FormatPNG, FormatSVG:
		return plot.Write(w, expl, plot.Options{Format: strings.ToLower(format)})
	default:
		return errors.NewValidationError("format", "must be one of "+strings.Join(Formats, ", "), format)
	}
}

// IsBinary reports whether format produces image bytes rather than text.
func IsBinary(format string) bool {
	f := strings.ToLower(format)
	return f == FormatPNG || f == FormatSVG
}

// JSON writes expl as indented JSON followed by a newline.
func JSON(w io.Writer, expl *explain.Explanation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(expl); err != nil {
		return errors.Wrap(err, "failed to encode explanation as JSON")
	}
	return nil
}

// YAML writes expl as a YAML document.
func YAML(w io.Writer, expl *explain.Explanation) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(expl); err != nil {
		return errors.Wrap(err, "failed to encode explanation as YAML")
	}
	return errors.Wrap(enc.Close(), "failed to flush YAML")
}
