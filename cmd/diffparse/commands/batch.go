package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JNZader/diffparse/internal/metrics"
	"github.com/JNZader/diffparse/internal/profiler"
	"github.com/JNZader/diffparse/internal/worker"
)

// diffExtensions are the files picked up when batch walks a directory.
var diffExtensions = map[string]bool{
	".diff":  true,
	".patch": true,
	".diffx": true,
}

var batchCmd = &cobra.Command{
	Use:   "batch PATH...",
	Short: "Parse many diffs concurrently",
	Long: `Parse every diff named on the command line, plus every .diff, .patch
and .diffx file found under directory arguments, using a pool of workers.
The report lists the diffs in argument order.

Examples:
  # Parse a directory with 8 workers and stop at the first failure
  diffparse batch --workers 8 --fail-fast patches/

  # Print Prometheus metrics and write a CPU profile
  diffparse batch --metrics prometheus --cpuprofile cpu.prof patches/`,

	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

var (
	batchMetrics     string
	batchMetricsFile string
)

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("workers", 0, "number of concurrent parsers (0 = number of CPUs)")
	batchCmd.Flags().Bool("fail-fast", false, "stop at the first diff that fails to parse")
	batchCmd.Flags().String("cpuprofile", "", "write a CPU profile to file")
	batchCmd.Flags().String("memprofile", "", "write a heap profile to file")
	batchCmd.Flags().StringVar(&batchMetrics, "metrics", "", "print metrics after the run: json or prometheus")
	batchCmd.Flags().StringVar(&batchMetricsFile, "metrics-file", "", "write metrics to file instead of stderr")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchMetrics != "" && batchMetrics != "json" && batchMetrics != "prometheus" {
		return fmt.Errorf("invalid --metrics %q: must be json or prometheus", batchMetrics)
	}

	paths, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no diff files found")
	}

	opts, err := parserOptions()
	if err != nil {
		return err
	}

	prof, err := profiler.New(appCfg.Profile, appLog)
	if err != nil {
		return err
	}

	collector := metrics.Global()
	taskOpts := []worker.ParseTaskOption{
		worker.WithMaxSize(appCfg.Parser.MaxDiffSize),
		worker.WithParserOptions(opts...),
		worker.WithMetrics(collector),
	}

	tasks := make([]worker.Task, len(paths))
	parseTasks := make([]*worker.ParseTask, len(paths))
	for i, path := range paths {
		parseTasks[i] = worker.NewParseTask(path, taskOpts...)
		tasks[i] = parseTasks[i]
	}

	pool := worker.NewPool(worker.Config{
		Workers:  appCfg.Batch.Workers,
		FailFast: appCfg.Batch.FailFast,
		Metrics:  collector,
	})

	log := appLog.WithPrefix("batch")
	log.Info("parsing %d diffs", len(paths))

	start := time.Now()
	outcomes, runErr := pool.Run(cmd.Context(), tasks)
	elapsed := time.Since(start)

	if err := prof.Stop(); err != nil {
		log.Warn("profiler: %v", err)
	}

	res := newResult()
	for i, r := range outcomes {
		switch {
		case r.Skipped:
			res.AddError(paths[i], fmt.Errorf("skipped: %w", r.Error))
		case r.Error != nil:
			res.AddError(paths[i], r.Error)
		default:
			res.Add(paths[i], parseTasks[i].Diff(), appCfg.StripPath)
		}
	}
	res.Finish(elapsed)

	log.Info("done in %s: %s", elapsed.Round(time.Millisecond), pool.Stats())

	if err := writeReport(cmd, res); err != nil {
		return err
	}
	if err := writeMetrics(cmd, collector); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("batch stopped: %w", runErr)
	}
	if res.Totals.Failed > 0 {
		return fmt.Errorf("%d of %d diffs failed to parse", res.Totals.Failed, res.Totals.Diffs)
	}
	return nil
}

// expandInputs replaces directory arguments by the diff files beneath them,
// sorted by path. File arguments are kept as given.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && diffExtensions[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

func writeMetrics(cmd *cobra.Command, c *metrics.Collector) error {
	if batchMetrics == "" {
		return nil
	}

	var data []byte
	if batchMetrics == "prometheus" {
		data = []byte(c.ExportPrometheus())
	} else {
		var err error
		if data, err = c.Export(); err != nil {
			return fmt.Errorf("exporting metrics: %w", err)
		}
		data = append(data, '\n')
	}

	if batchMetricsFile == "" {
		_, err := cmd.ErrOrStderr().Write(data)
		return err
	}
	if err := os.WriteFile(batchMetricsFile, data, 0o600); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
