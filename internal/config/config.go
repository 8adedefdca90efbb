// Package config handles all configuration management for diffparse.
//
// Configuration is loaded from multiple sources in order of precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (DIFFPARSE_*)
// 3. Configuration file (.diffparse.yaml)
// 4. Default values (lowest priority)
package config

import (
	"strings"

	"github.com/JNZader/diffparse/internal/diffparser"
	"github.com/JNZader/diffparse/internal/logger"
)

// Config is the main configuration structure for diffparse.
type Config struct {
	// Parser configures how diffs are read
	Parser ParserConfig `mapstructure:"parser" yaml:"parser" json:"parser"`

	// Output configures report formatting
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch configures concurrent parsing of many diffs
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Log configures the logger
	Log LogConfig `mapstructure:"log" yaml:"log" json:"log"`

	// Profile configures pprof output for batch runs
	Profile ProfileConfig `mapstructure:"profile" yaml:"profile" json:"profile"`
}

// ParserConfig configures the diff parser.
type ParserConfig struct {
	// Format is the diff format: "auto", "unified", "git", "hg", "hg-git", "cvs", "diffx"
	Format string `mapstructure:"format" yaml:"format" json:"format"`

	// CommitIDsAsRevisions marks file revisions as commit identifiers
	CommitIDsAsRevisions bool `mapstructure:"commit_ids_as_revisions" yaml:"commit_ids_as_revisions" json:"commit_ids_as_revisions"`

	// CVSRoot is the repository root prefixing "RCS file:" paths
	CVSRoot string `mapstructure:"cvs_root" yaml:"cvs_root" json:"cvs_root"`

	// MaxDiffSize is the largest diff accepted, in bytes (0 = unlimited)
	MaxDiffSize int64 `mapstructure:"max_diff_size" yaml:"max_diff_size" json:"max_diff_size"`

	// StripPrefixes are extra path prefixes removed when normalizing
	// filenames for reports
	StripPrefixes []string `mapstructure:"strip_prefixes" yaml:"strip_prefixes" json:"strip_prefixes"`
}

// OutputConfig configures output formatting.
type OutputConfig struct {
	// Format is the output format: "json", "yaml", "markdown", "sarif"
	Format string `mapstructure:"format" yaml:"format" json:"format"`

	// File is the output file path (empty = stdout)
	File string `mapstructure:"file" yaml:"file" json:"file"`

	// Verbose enables verbose output
	Verbose bool `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Quiet suppresses all output except errors
	Quiet bool `mapstructure:"quiet" yaml:"quiet" json:"quiet"`
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	// Workers is the number of concurrent parsers (0 = number of CPUs)
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`

	// FailFast stops the batch at the first parse error
	FailFast bool `mapstructure:"fail_fast" yaml:"fail_fast" json:"fail_fast"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level logged: "debug", "info", "warn", "error"
	Level string `mapstructure:"level" yaml:"level" json:"level"`
}

// ProfileConfig configures profiling.
type ProfileConfig struct {
	// CPU is the CPU profile output path (empty = disabled)
	CPU string `mapstructure:"cpu" yaml:"cpu" json:"cpu"`

	// Mem is the heap profile output path (empty = disabled)
	Mem string `mapstructure:"mem" yaml:"mem" json:"mem"`
}

// ParserOptions converts the parser section into parser options.
func (c *Config) ParserOptions() ([]diffparser.Option, error) {
	format, err := diffparser.ParseFormat(c.Parser.Format)
	if err != nil {
		return nil, &ValidationError{Field: "parser.format", Message: err.Error()}
	}

	opts := []diffparser.Option{
		diffparser.WithFormat(format),
		diffparser.WithCommitIDsAsRevisions(c.Parser.CommitIDsAsRevisions),
	}
	if c.Parser.CVSRoot != "" {
		opts = append(opts, diffparser.WithCVSRepositoryRoot(c.Parser.CVSRoot))
	}
	return opts, nil
}

// StripPath removes the first matching configured prefix from name.
func (c *Config) StripPath(name string) string {
	for _, prefix := range c.Parser.StripPrefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return name
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if _, err := diffparser.ParseFormat(c.Parser.Format); err != nil {
		return &ValidationError{
			Field:   "parser.format",
			Message: "invalid format, must be one of: " + strings.Join(diffparser.FormatNames(), ", "),
		}
	}

	if c.Parser.MaxDiffSize < 0 {
		return &ValidationError{Field: "parser.max_diff_size", Message: "must not be negative"}
	}

	validFormats := map[string]bool{"json": true, "yaml": true, "markdown": true, "sarif": true}
	if !validFormats[c.Output.Format] {
		return &ValidationError{Field: "output.format", Message: "invalid format, must be one of: json, yaml, markdown, sarif"}
	}

	if c.Output.Verbose && c.Output.Quiet {
		return &ValidationError{Field: "output.quiet", Message: "verbose and quiet are mutually exclusive"}
	}

	if c.Batch.Workers < 0 {
		return &ValidationError{Field: "batch.workers", Message: "must not be negative"}
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Field: "log.level", Message: "invalid level, must be one of: debug, info, warn, error"}
	}

	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Field + ": " + e.Message
}
