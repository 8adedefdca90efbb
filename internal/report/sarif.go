package report

import (
	"encoding/json"
	"io"
)

// Rule IDs reported in SARIF output.
const (
	RuleParseError         = "diffparse/parse-error"
	RuleCrosscheckMismatch = "diffparse/crosscheck-mismatch"
)

// ToolVersion is reported as the SARIF driver version.
var ToolVersion = "dev"

// SARIFReporter generates SARIF 2.1.0 reports listing parse failures and
// cross-check mismatches, so that CI can annotate broken patch files.
type SARIFReporter struct{}

func (r *SARIFReporter) Format() string { return "sarif" }

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID          string       `json:"id"`
	Description sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func (r *SARIFReporter) Generate(result *Result) (string, error) {
	data, err := json.MarshalIndent(r.buildReport(result), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *SARIFReporter) Write(result *Result, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.buildReport(result))
}

func (r *SARIFReporter) buildReport(result *Result) *sarifReport {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    "diffparse",
			Version: ToolVersion,
			Rules: []sarifRule{
				{ID: RuleParseError, Description: sarifMessage{Text: "The diff could not be parsed"}},
				{ID: RuleCrosscheckMismatch, Description: sarifMessage{Text: "go-gitdiff disagrees with the parse result"}},
			},
		}},
		Results: []sarifResult{},
	}

	for _, d := range result.Diffs {
		if d.Error != "" {
			loc := sarifLocation{PhysicalLocation: sarifPhysicalLocation{ArtifactLocation: sarifArtifact{URI: d.Source}}}
			if d.ErrorLine > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: d.ErrorLine}
			}
			run.Results = append(run.Results, sarifResult{
				RuleID:    RuleParseError,
				Level:     "error",
				Message:   sarifMessage{Text: d.Error},
				Locations: []sarifLocation{loc},
			})
		}

		if d.Crosscheck == nil {
			continue
		}
		for _, m := range d.Crosscheck.Mismatches {
			run.Results = append(run.Results, sarifResult{
				RuleID:  RuleCrosscheckMismatch,
				Level:   "warning",
				Message: sarifMessage{Text: m.String()},
				Locations: []sarifLocation{{PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifact{URI: d.Source},
				}}},
			})
		}
	}

	return &sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
}
