// Package report renders parse results for one or more diffs.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JNZader/diffparse/internal/crosscheck"
	"github.com/JNZader/diffparse/internal/diffparser"
)

// Reporter defines the interface for generating parse reports.
type Reporter interface {
	// Generate creates a report from parse results.
	Generate(result *Result) (string, error)

	// Write writes the report to a writer.
	Write(result *Result, w io.Writer) error

	// Format returns the format name.
	Format() string
}

// NewReporter creates a reporter for the given format.
func NewReporter(format string) (Reporter, error) {
	switch format {
	case "markdown", "md":
		return &MarkdownReporter{}, nil
	case "json":
		return &JSONReporter{Indent: true}, nil
	case "yaml", "yml":
		return &YAMLReporter{}, nil
	case "sarif":
		return &SARIFReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// AvailableFormats returns the list of supported formats.
func AvailableFormats() []string {
	return []string{"json", "yaml", "markdown", "sarif"}
}

// Result is the report for one run over any number of diffs.
type Result struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Duration    string        `json:"duration,omitempty" yaml:"duration,omitempty"`
	Diffs       []*DiffReport `json:"diffs" yaml:"diffs"`
	Totals      Totals        `json:"totals" yaml:"totals"`
}

// Totals sums the diffs of a Result.
type Totals struct {
	Diffs      int `json:"diffs" yaml:"diffs"`
	Failed     int `json:"failed" yaml:"failed"`
	Files      int `json:"files" yaml:"files"`
	Insertions int `json:"insertions" yaml:"insertions"`
	Deletions  int `json:"deletions" yaml:"deletions"`
}

// DiffReport describes one parsed diff or the error that stopped it.
type DiffReport struct {
	Source         string             `json:"source" yaml:"source"`
	Format         string             `json:"format,omitempty" yaml:"format,omitempty"`
	CommitID       string             `json:"commit_id,omitempty" yaml:"commit_id,omitempty"`
	ParentCommitID string             `json:"parent_commit_id,omitempty" yaml:"parent_commit_id,omitempty"`
	Files          []FileReport       `json:"files,omitempty" yaml:"files,omitempty"`
	Error          string             `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorLine      int                `json:"error_line,omitempty" yaml:"error_line,omitempty"`
	Crosscheck     *crosscheck.Result `json:"crosscheck,omitempty" yaml:"crosscheck,omitempty"`
}

// FileReport describes one file of a diff.
type FileReport struct {
	OrigFilename     string `json:"orig_filename" yaml:"orig_filename"`
	OrigRevision     string `json:"orig_revision" yaml:"orig_revision"`
	ModifiedFilename string `json:"modified_filename" yaml:"modified_filename"`
	ModifiedRevision string `json:"modified_revision" yaml:"modified_revision"`
	Insertions       int    `json:"insertions" yaml:"insertions"`
	Deletions        int    `json:"deletions" yaml:"deletions"`
	Binary           bool   `json:"binary,omitempty" yaml:"binary,omitempty"`
	Deleted          bool   `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Moved            bool   `json:"moved,omitempty" yaml:"moved,omitempty"`
	Copied           bool   `json:"copied,omitempty" yaml:"copied,omitempty"`
	Symlink          bool   `json:"symlink,omitempty" yaml:"symlink,omitempty"`
	OldSymlinkTarget string `json:"old_symlink_target,omitempty" yaml:"old_symlink_target,omitempty"`
	NewSymlinkTarget string `json:"new_symlink_target,omitempty" yaml:"new_symlink_target,omitempty"`
	OldMode          string `json:"old_mode,omitempty" yaml:"old_mode,omitempty"`
	NewMode          string `json:"new_mode,omitempty" yaml:"new_mode,omitempty"`
}

// NewResult starts an empty result with a fresh run ID.
func NewResult() *Result {
	return &Result{RunID: uuid.NewString(), GeneratedAt: time.Now().UTC()}
}

// NameFunc rewrites filenames before they are reported.
type NameFunc func(string) string

// Add appends the report for a parsed diff. rename may be nil.
func (r *Result) Add(source string, diff *diffparser.ParsedDiff, rename NameFunc) *DiffReport {
	if rename == nil {
		rename = func(s string) string { return s }
	}

	dr := &DiffReport{Source: source, Format: diff.Format.String()}
	if len(diff.Changes) > 0 {
		dr.CommitID = string(diff.Changes[0].CommitID)
		dr.ParentCommitID = string(diff.Changes[0].ParentCommitID)
	}

	for _, f := range diff.Files() {
		dr.Files = append(dr.Files, FileReport{
			OrigFilename:     rename(string(f.OrigFilename)),
			OrigRevision:     f.OrigFileDetails.String(),
			ModifiedFilename: rename(string(f.ModifiedFilename)),
			ModifiedRevision: f.ModifiedFileDetails.String(),
			Insertions:       f.InsertCount,
			Deletions:        f.DeleteCount,
			Binary:           f.Binary,
			Deleted:          f.Deleted,
			Moved:            f.Moved,
			Copied:           f.Copied,
			Symlink:          f.IsSymlink,
			OldSymlinkTarget: string(f.OldSymlinkTarget),
			NewSymlinkTarget: string(f.NewSymlinkTarget),
			OldMode:          f.OldUnixMode,
			NewMode:          f.NewUnixMode,
		})
		r.Totals.Files++
		r.Totals.Insertions += f.InsertCount
		r.Totals.Deletions += f.DeleteCount
	}

	r.Diffs = append(r.Diffs, dr)
	r.Totals.Diffs++
	return dr
}

// AddError appends the report for a diff that could not be parsed. Parse
// errors keep their 1-based line number.
func (r *Result) AddError(source string, err error) *DiffReport {
	dr := &DiffReport{Source: source, Error: err.Error()}

	var perr *diffparser.ParseError
	if errors.As(err, &perr) && perr.Line >= 0 {
		dr.ErrorLine = perr.Line + 1
	}

	r.Diffs = append(r.Diffs, dr)
	r.Totals.Diffs++
	r.Totals.Failed++
	return dr
}

// Finish records the run duration.
func (r *Result) Finish(d time.Duration) {
	r.Duration = d.Round(time.Millisecond).String()
}
