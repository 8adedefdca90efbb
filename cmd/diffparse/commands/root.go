// Package commands contains all CLI commands for diffparse.
//
// This package uses the Cobra library for CLI management.
// Each command is defined in its own file and registered in init().
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JNZader/diffparse/internal/config"
	"github.com/JNZader/diffparse/internal/diffparser"
	"github.com/JNZader/diffparse/internal/logger"
)

var (
	// cfgFile holds the path to the config file (from --config flag)
	cfgFile string

	// appCfg is the configuration loaded before every command runs
	appCfg *config.Config

	// appLog writes to stderr at the configured level
	appLog *logger.Logger

	// runID identifies one invocation in logs and reports
	runID string
)

// flagKeys maps flag names to the config keys they override. Flags are
// bound only when the running command defines them.
var flagKeys = map[string]string{
	"diff-format":   "parser.format",
	"commit-ids":    "parser.commit_ids_as_revisions",
	"cvs-root":      "parser.cvs_root",
	"max-size":      "parser.max_diff_size",
	"strip-prefix":  "parser.strip_prefixes",
	"output":        "output.file",
	"output-format": "output.format",
	"verbose":       "output.verbose",
	"quiet":         "output.quiet",
	"log-level":     "log.level",
	"workers":       "batch.workers",
	"fail-fast":     "batch.fail_fast",
	"cpuprofile":    "profile.cpu",
	"memprofile":    "profile.mem",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "diffparse",
	Short: "Parse unified, Git, Mercurial, CVS and DiffX diffs",
	Long: `diffparse reads diff files and reports the files, revisions and
line counts they contain. Every parsed diff can be regenerated byte for byte.

Examples:
  # Summarize a patch
  diffparse parse fix.patch

  # Read from stdin, force the Git format, write YAML
  git diff | diffparse parse -f git -F yaml

  # Verify that a diff regenerates exactly
  diffparse raw --verify changes.diffx

  # Parse a directory of patches concurrently
  diffparse batch --workers 8 patches/

  # Compare a Git diff against go-gitdiff
  diffparse check fix.patch`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command with a background context.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command. Errors are printed to stderr.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is .diffparse.yaml)")
	pf.BoolP("verbose", "v", false, "enable verbose output")
	pf.BoolP("quiet", "q", false, "suppress all output except errors")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	pf.StringP("diff-format", "f", "", "diff format: "+strings.Join(diffparser.FormatNames(), ", "))
	pf.Bool("commit-ids", false, "treat file revisions as commit identifiers")
	pf.String("cvs-root", "", "CVS repository root for RCS file paths")
	pf.Int64("max-size", 0, "largest diff accepted, in bytes (0 = unlimited)")
	pf.StringSlice("strip-prefix", nil, "path prefix removed from reported filenames (repeatable)")

	pf.StringP("output", "o", "", "write output to file instead of stdout")
	pf.StringP("output-format", "F", "", "report format: json, yaml, markdown, sarif")
}

// initializeConfig loads configuration from file, environment and flags and
// sets up logging for the running command.
func initializeConfig(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	v := loader.GetViper()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	appCfg = cfg

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	switch {
	case cfg.Output.Quiet:
		level = logger.LevelError
	case cfg.Output.Verbose && level > logger.LevelInfo:
		level = logger.LevelInfo
	}

	runID = uuid.NewString()
	appLog = logger.New(level, cmd.ErrOrStderr()).WithField("run", runID)

	if used := loader.ConfigFileUsed(); used != "" {
		appLog.Info("using config file %s", used)
	}
	return nil
}

// parserOptions returns the parser options for the loaded configuration.
func parserOptions() ([]diffparser.Option, error) {
	opts, err := appCfg.ParserOptions()
	if err != nil {
		return nil, err
	}
	return append(opts, diffparser.WithLogger(appLog)), nil
}

// changedFlag reports whether the user set name on the command line.
func changedFlag(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
