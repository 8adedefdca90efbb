package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JNZader/diffparse/internal/report"
	"github.com/JNZader/diffparse/internal/worker"
)

// readInput reads a diff from path, or from stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	limit := appCfg.Parser.MaxDiffSize
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (%d bytes)", displayName(path), worker.ErrTooLarge, limit)
	}
	return data, nil
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}

// WriteOutput writes content to the configured output file or to stdout.
func WriteOutput(cmd *cobra.Command, content []byte) error {
	outputPath := appCfg.Output.File
	if outputPath == "" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	if !appCfg.Output.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Output written to: %s\n", outputPath)
	}
	return nil
}

// DetectFormatFromPath infers the report format from file extension.
func DetectFormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".sarif":
		return "sarif"
	case ".md", ".markdown":
		return "markdown"
	default:
		return ""
	}
}

// writeReport renders res in the configured format. An output file with a
// known extension picks the format unless --output-format is given.
func writeReport(cmd *cobra.Command, res *report.Result) error {
	format := appCfg.Output.Format
	if appCfg.Output.File != "" && !changedFlag(cmd, "output-format") {
		if detected := DetectFormatFromPath(appCfg.Output.File); detected != "" {
			format = detected
		}
	}

	reporter, err := report.NewReporter(format)
	if err != nil {
		return err
	}

	out, err := reporter.Generate(res)
	if err != nil {
		return fmt.Errorf("generating %s report: %w", reporter.Format(), err)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return WriteOutput(cmd, []byte(out))
}

// newResult starts a report tagged with the current run ID.
func newResult() *report.Result {
	res := report.NewResult()
	res.RunID = runID
	return res
}
