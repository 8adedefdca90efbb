package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JNZader/diffparse/internal/crosscheck"
	"github.com/JNZader/diffparse/internal/diffparser"
	"github.com/JNZader/diffparse/internal/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse [FILE...]",
	Short: "Parse diffs and report their files",
	Long: `Parse one or more diffs and report every file they change: names,
revisions, line counts and flags such as binary, deleted or moved.

With no FILE, or when FILE is -, the diff is read from stdin.

Examples:
  # JSON report for a patch
  diffparse parse fix.patch

  # Markdown report for two diffs, written to a file
  diffparse parse a.diff b.diff -o report.md

  # Cross-check Git diffs against go-gitdiff while parsing
  diffparse parse --crosscheck fix.patch`,

	RunE: runParse,
}

var parseCrosscheck bool

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&parseCrosscheck, "crosscheck", false, "compare Git diffs with go-gitdiff")
}

func runParse(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}

	opts, err := parserOptions()
	if err != nil {
		return err
	}

	start := time.Now()
	res := newResult()
	for _, path := range args {
		parseOne(cmd, res, path, opts)
	}
	res.Finish(time.Since(start))

	if err := writeReport(cmd, res); err != nil {
		return err
	}

	if res.Totals.Failed > 0 {
		return fmt.Errorf("%d of %d diffs failed to parse", res.Totals.Failed, res.Totals.Diffs)
	}
	return nil
}

// parseOne parses path and appends its outcome to res.
func parseOne(cmd *cobra.Command, res *report.Result, path string, opts []diffparser.Option) {
	name := displayName(path)
	log := appLog.WithField("source", name)

	data, err := readInput(cmd, path)
	if err != nil {
		log.Warn("read failed: %v", err)
		res.AddError(name, err)
		return
	}

	diff, err := diffparser.NewParser(data, opts...).ParseDiff()
	if err != nil {
		log.Warn("parse failed: %v", err)
		res.AddError(name, err)
		return
	}

	dr := res.Add(name, diff, appCfg.StripPath)
	log.Info("parsed %d files as %s", len(dr.Files), diff.Format)

	if !parseCrosscheck {
		return
	}
	cc, err := crosscheck.Git(data, diff)
	switch {
	case errors.Is(err, crosscheck.ErrUnsupportedFormat):
		log.Debug("skipping cross-check for %s diff", diff.Format)
	case err != nil:
		log.Warn("cross-check failed: %v", err)
	default:
		dr.Crosscheck = cc
	}
}
