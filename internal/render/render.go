// Package render handles CLI output: YAML/JSON dumps of entity graphs and
// unified diffs for ambiguous-match review.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// Format represents an output format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Renderer handles output rendering
type Renderer struct {
	writer io.Writer
	format Format
}

// NewRenderer creates a new renderer
func NewRenderer(writer io.Writer, format Format) *Renderer {
	return &Renderer{writer: writer, format: format}
}

// Render writes data in the renderer's format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML, "":
		encoder := yaml.NewEncoder(r.writer)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", r.format)
	}
}

// CandidateDiff renders a unified diff between the incoming record and one
// stored candidate, both as YAML, for ambiguous-match review.
func CandidateDiff(incoming, candidate any, candidateLabel string) (string, error) {
	incomingYAML, err := yaml.Marshal(incoming)
	if err != nil {
		return "", fmt.Errorf("failed to marshal incoming record: %w", err)
	}
	candidateYAML, err := yaml.Marshal(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to marshal candidate: %w", err)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(candidateYAML)),
		B:        difflib.SplitLines(string(incomingYAML)),
		FromFile: candidateLabel,
		ToFile:   "incoming",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
