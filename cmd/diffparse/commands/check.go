package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JNZader/diffparse/internal/crosscheck"
	"github.com/JNZader/diffparse/internal/diffparser"
	"github.com/JNZader/diffparse/internal/metrics"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Cross-check Git diffs against go-gitdiff",
	Long: `Parse Git diffs with diffparse and with github.com/bluekeyes/go-gitdiff
and report every file on which they disagree. Exits non-zero on any mismatch.

Examples:
  diffparse check fix.patch
  git format-patch -1 --stdout | diffparse check -`,

	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := parserOptions()
	if err != nil {
		return err
	}

	start := time.Now()
	res := newResult()
	mismatches := 0

	for _, path := range args {
		name := displayName(path)

		data, err := readInput(cmd, path)
		if err != nil {
			res.AddError(name, err)
			continue
		}

		diff, err := diffparser.NewParser(data, opts...).ParseDiff()
		if err != nil {
			res.AddError(name, err)
			continue
		}

		cc, err := crosscheck.Git(data, diff)
		if err != nil {
			res.AddError(name, err)
			continue
		}

		dr := res.Add(name, diff, appCfg.StripPath)
		dr.Crosscheck = cc
		mismatches += len(cc.Mismatches)
		metrics.AddCounter(metrics.MetricCrosscheckDiff, int64(len(cc.Mismatches)))

		appLog.WithField("source", name).Info("compared %d files, %d mismatches", cc.Compared, len(cc.Mismatches))
	}
	res.Finish(time.Since(start))

	if err := writeReport(cmd, res); err != nil {
		return err
	}

	switch {
	case res.Totals.Failed > 0:
		return fmt.Errorf("%d of %d diffs could not be checked", res.Totals.Failed, res.Totals.Diffs)
	case mismatches > 0:
		return fmt.Errorf("cross-check found %d mismatches", mismatches)
	}
	return nil
}
