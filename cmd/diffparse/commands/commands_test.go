package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JNZader/diffparse/internal/report"
	"github.com/JNZader/diffparse/internal/worker"
)

const unifiedDiff = "--- README\t2024-01-01\n" +
	"+++ README\t2024-01-02\n" +
	"@@ -1,2 +1,2 @@\n" +
	" title\n" +
	"-old line\n" +
	"+new line\n"

const gitDiff = "diff --git a/main.go b/main.go\n" +
	"index 1234567..abcdef0 100644\n" +
	"--- a/main.go\n" +
	"+++ b/main.go\n" +
	"@@ -1 +1,3 @@\n" +
	" package main\n" +
	"+\n" +
	"+func main() {}\n"

// resetFlags restores every flag of cmd and its subcommands to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI in an empty working directory and home so that no
// config file is picked up.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeReport(t *testing.T, out string) report.Result {
	t.Helper()
	var res report.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON report: %v\n%s", err, out)
	}
	return res
}

func TestVersionCommand(t *testing.T) {
	origVersion := Version
	Version = "1.2.3"
	defer func() { Version = origVersion }()

	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{name: "default output", args: []string{"version"}, contains: []string{"diffparse version 1.2.3", "Go version:"}},
		{name: "short flag", args: []string{"version", "--short"}, contains: []string{"1.2.3\n"}},
		{name: "json flag", args: []string{"version", "--json"}, contains: []string{`"version": "1.2.3"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "", tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output %q does not contain %q", out, want)
				}
			}
		})
	}
}

func TestParseStdin(t *testing.T) {
	out, _, err := execute(t, unifiedDiff, "parse")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	res := decodeReport(t, out)
	if res.Totals.Files != 1 || res.Totals.Insertions != 1 || res.Totals.Deletions != 1 {
		t.Errorf("Totals = %+v", res.Totals)
	}
	if res.Diffs[0].Source != "<stdin>" || res.Diffs[0].Format != "unified" {
		t.Errorf("Diff = %+v", res.Diffs[0])
	}
	if res.RunID == "" {
		t.Error("missing run id")
	}
}

func TestParseFilesYAMLWithStrip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fix.patch", gitDiff)

	out, _, err := execute(t, "", "parse", "-F", "yaml", "--strip-prefix", "main", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if !strings.Contains(out, "modified_filename: .go") {
		t.Errorf("expected stripped filename in YAML:\n%s", out)
	}
	if !strings.Contains(out, "format: git") {
		t.Errorf("expected git format in YAML:\n%s", out)
	}
}

func TestParseCrosscheck(t *testing.T) {
	out, _, err := execute(t, gitDiff, "parse", "--crosscheck")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	res := decodeReport(t, out)
	if res.Diffs[0].Crosscheck == nil || !res.Diffs[0].Crosscheck.OK() {
		t.Errorf("Crosscheck = %+v", res.Diffs[0].Crosscheck)
	}
}

func TestParseFailureIsReported(t *testing.T) {
	out, _, err := execute(t, "just some text\n", "parse", "-f", "git")
	if err == nil {
		t.Fatal("expected an error")
	}

	res := decodeReport(t, out)
	if res.Totals.Failed != 1 || res.Diffs[0].ErrorLine != 1 {
		t.Errorf("report = %+v", res.Diffs[0])
	}
	if !strings.Contains(res.Diffs[0].Error, "This does not appear to be a git diff") {
		t.Errorf("Error = %q", res.Diffs[0].Error)
	}
}

func TestParseMaxSize(t *testing.T) {
	out, _, err := execute(t, unifiedDiff, "parse", "--max-size", "10")
	if err == nil {
		t.Fatal("expected an error")
	}
	res := decodeReport(t, out)
	if !strings.Contains(res.Diffs[0].Error, worker.ErrTooLarge.Error()) {
		t.Errorf("Error = %q", res.Diffs[0].Error)
	}
}

func TestParseOutputFileDetectsFormat(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out", "report.md")

	_, stderr, err := execute(t, unifiedDiff, "parse", "-o", outPath)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Diff Report") {
		t.Errorf("expected markdown report, got:\n%s", data)
	}
	if !strings.Contains(stderr, "Output written to: "+outPath) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRawRoundTrip(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.diff", gitDiff)

	out, _, err := execute(t, "", "raw", path)
	if err != nil {
		t.Fatalf("raw error = %v", err)
	}
	if out != gitDiff {
		t.Errorf("raw output differs:\n%q\nwant\n%q", out, gitDiff)
	}

	out, _, err = execute(t, "", "raw", "--verify", path)
	if err != nil {
		t.Fatalf("raw --verify error = %v", err)
	}
	if !strings.HasPrefix(out, "OK: ") {
		t.Errorf("verify output = %q", out)
	}
}

func TestRawChangeOutOfRange(t *testing.T) {
	_, _, err := execute(t, unifiedDiff, "raw", "--change", "3", "-")
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("error = %v", err)
	}
}

func TestCheck(t *testing.T) {
	out, _, err := execute(t, gitDiff, "check", "-")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	res := decodeReport(t, out)
	if res.Diffs[0].Crosscheck == nil || res.Diffs[0].Crosscheck.Compared != 1 {
		t.Errorf("Crosscheck = %+v", res.Diffs[0].Crosscheck)
	}

	_, _, err = execute(t, unifiedDiff, "check", "-")
	if err == nil || !strings.Contains(err.Error(), "could not be checked") {
		t.Errorf("unified check error = %v", err)
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b/second.patch", gitDiff)
	writeFile(t, dir, "a/first.diff", unifiedDiff)
	writeFile(t, dir, "notes.txt", "not a diff")
	metricsPath := filepath.Join(t.TempDir(), "metrics.txt")

	out, _, err := execute(t, "", "batch", "--workers", "2", "--metrics", "prometheus", "--metrics-file", metricsPath, dir)
	if err != nil {
		t.Fatalf("batch error = %v", err)
	}

	res := decodeReport(t, out)
	if len(res.Diffs) != 2 {
		t.Fatalf("expected 2 diffs, got %d", len(res.Diffs))
	}
	if !strings.HasSuffix(res.Diffs[0].Source, "first.diff") || !strings.HasSuffix(res.Diffs[1].Source, "second.patch") {
		t.Errorf("unexpected order: %s, %s", res.Diffs[0].Source, res.Diffs[1].Source)
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# TYPE diffparse_parses_total counter") {
		t.Errorf("metrics output:\n%s", data)
	}
}

func TestBatchFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.diff", unifiedDiff)
	bad := writeFile(t, dir, "bad.diffx", "#diffx: version=1.0\n")

	out, _, err := execute(t, "", "batch", good, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 diffs failed") {
		t.Fatalf("error = %v", err)
	}
	res := decodeReport(t, out)
	if res.Diffs[1].Error == "" {
		t.Errorf("expected error for %s", bad)
	}

	if _, _, err := execute(t, "", "batch", "--metrics", "xml", good); err == nil {
		t.Error("expected invalid --metrics error")
	}
	if _, _, err := execute(t, "", "batch", t.TempDir()); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestConfigShow(t *testing.T) {
	t.Setenv("DIFFPARSE_BATCH_WORKERS", "5")

	out, _, err := execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"format: auto", "workers: 5", "level: warn"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q:\n%s", want, out)
		}
	}

	out, _, err = execute(t, "", "config", "show", "--json", "-f", "cvs")
	if err != nil {
		t.Fatalf("config show --json error = %v", err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["parser"]["format"] != "cvs" {
		t.Errorf("parser.format = %v, want cvs", decoded["parser"]["format"])
	}
}

func TestConfigFileAndPath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", "output:\n  format: markdown\n")

	out, _, err := execute(t, unifiedDiff, "--config", path, "parse")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if !strings.HasPrefix(out, "# Diff Report") {
		t.Errorf("expected markdown from config file:\n%s", out)
	}

	out, _, err = execute(t, "", "--config", path, "config", "path")
	if err != nil || strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, %v", out, err)
	}

	_, _, err = execute(t, "", "config", "path")
	if err == nil {
		t.Error("expected no config file error")
	}
}

func TestInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "", "-F", "html", "version")
	if err == nil || !strings.Contains(err.Error(), "output.format") {
		t.Errorf("error = %v", err)
	}
}

func TestDetectFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"report.json":  "json",
		"report.YML":   "yaml",
		"report.sarif": "sarif",
		"report.md":    "markdown",
		"report.txt":   "",
	}
	for path, want := range tests {
		if got := DetectFormatFromPath(path); got != want {
			t.Errorf("DetectFormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestReadInputMissingFile(t *testing.T) {
	_, _, err := execute(t, "", "raw", filepath.Join(t.TempDir(), "missing.diff"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want not exist", err)
	}
}
