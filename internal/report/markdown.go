package report

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownReporter generates Markdown reports.
type MarkdownReporter struct{}

func (r *MarkdownReporter) Format() string { return "markdown" }

func (r *MarkdownReporter) Generate(result *Result) (string, error) {
	var sb strings.Builder
	if err := r.Write(result, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *MarkdownReporter) Write(result *Result, w io.Writer) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("# Diff Report\n\n")

	p("## Summary\n\n")
	p("- **Diffs:** %d", result.Totals.Diffs)
	if result.Totals.Failed > 0 {
		p(" (%d failed)", result.Totals.Failed)
	}
	p("\n")
	p("- **Files:** %d\n", result.Totals.Files)
	p("- **Lines:** +%d -%d\n", result.Totals.Insertions, result.Totals.Deletions)
	if result.Duration != "" {
		p("- **Duration:** %s\n", result.Duration)
	}
	p("\n")

	for _, d := range result.Diffs {
		p("## %s\n\n", d.Source)

		if d.Error != "" {
			p("Error: %s\n\n", d.Error)
			continue
		}

		p("Format: `%s`", d.Format)
		if d.CommitID != "" {
			p(", commit `%s`", d.CommitID)
		}
		if d.ParentCommitID != "" {
			p(", parent `%s`", d.ParentCommitID)
		}
		p("\n\n")

		if len(d.Files) == 0 {
			p("No files.\n\n")
		} else {
			p("| File | Revisions | + | - | Flags |\n")
			p("|------|-----------|---|---|-------|\n")
			for _, f := range d.Files {
				p("| %s | %s | %d | %d | %s |\n",
					escapeCell(fileLabel(f)),
					escapeCell(f.OrigRevision+" → "+f.ModifiedRevision),
					f.Insertions, f.Deletions, strings.Join(flags(f), ", "))
			}
			p("\n")
		}

		if d.Crosscheck != nil && !d.Crosscheck.OK() {
			p("**Cross-check mismatches:**\n\n")
			for _, m := range d.Crosscheck.Mismatches {
				p("- %s\n", m.String())
			}
			p("\n")
		}
	}

	return err
}

func fileLabel(f FileReport) string {
	if f.OrigFilename != "" && f.OrigFilename != f.ModifiedFilename {
		return f.OrigFilename + " → " + f.ModifiedFilename
	}
	return f.ModifiedFilename
}

func flags(f FileReport) []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(f.Binary, "binary")
	add(f.Deleted, "deleted")
	add(f.Moved, "moved")
	add(f.Copied, "copied")
	add(f.Symlink, "symlink")
	if f.OldMode != "" && f.NewMode != "" && f.OldMode != f.NewMode {
		out = append(out, "mode "+f.OldMode+"→"+f.NewMode)
	}
	return out
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
