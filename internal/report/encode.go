package report

import (
	"encoding/json"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// JSONReporter encodes the Result as JSON, one document per run.
type JSONReporter struct {
	Indent bool
}

func (r *JSONReporter) Format() string { return "json" }

func (r *JSONReporter) Generate(result *Result) (string, error) {
	return render(r, result)
}

func (r *JSONReporter) Write(result *Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

// YAMLReporter encodes the Result as YAML with two-space indentation.
type YAMLReporter struct{}

func (r *YAMLReporter) Format() string { return "yaml" }

func (r *YAMLReporter) Generate(result *Result) (string, error) {
	return render(r, result)
}

func (r *YAMLReporter) Write(result *Result, w io.Writer) (err error) {
	enc := yaml.NewEncoder(w)
	defer func() {
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	}()
	enc.SetIndent(2)
	return enc.Encode(result)
}

// render runs a streaming reporter into memory.
func render(r Reporter, result *Result) (string, error) {
	var sb strings.Builder
	if err := r.Write(result, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
