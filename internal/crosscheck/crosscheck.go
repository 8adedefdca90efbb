// Package crosscheck compares parse results for Git diffs against an
// independent parser, github.com/bluekeyes/go-gitdiff.
package crosscheck

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/JNZader/diffparse/internal/diffparser"
)

// ErrUnsupportedFormat is returned for diffs that are not Git-style.
var ErrUnsupportedFormat = errors.New("crosscheck: only git and hg-git diffs can be cross-checked")

// Mismatch is one field on which the two parsers disagree.
type Mismatch struct {
	File   string `json:"file"`
	Field  string `json:"field"`
	Ours   string `json:"ours"`
	Theirs string `json:"theirs"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s: ours=%q theirs=%q", m.File, m.Field, m.Ours, m.Theirs)
}

// Result summarizes a cross-check.
type Result struct {
	// Compared is the number of files seen by both parsers.
	Compared int `json:"compared"`

	// Ignored counts files only go-gitdiff reports because they carry no
	// content, such as mode-only changes.
	Ignored int `json:"ignored"`

	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether the parsers agreed on every file.
func (r *Result) OK() bool {
	return len(r.Mismatches) == 0
}

// Git parses data with go-gitdiff and compares the result with diff, which
// must have been parsed from the same bytes.
func Git(data []byte, diff *diffparser.ParsedDiff) (*Result, error) {
	if diff.Format != diffparser.FormatGit && diff.Format != diffparser.FormatMercurialGit {
		return nil, ErrUnsupportedFormat
	}

	theirs, _, err := gitdiff.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("go-gitdiff: %w", err)
	}

	byName := make(map[string]*gitdiff.File, len(theirs))
	for _, f := range theirs {
		byName[theirName(f)] = f
	}

	res := &Result{}
	seen := make(map[string]bool, len(theirs))

	for _, f := range diff.Files() {
		name := string(f.ModifiedFilename)
		other, ok := byName[name]
		if !ok {
			res.Mismatches = append(res.Mismatches, Mismatch{File: name, Field: "presence", Ours: "present", Theirs: "missing"})
			continue
		}
		seen[name] = true
		res.Compared++
		res.Mismatches = append(res.Mismatches, compare(name, f, other)...)
	}

	for _, f := range theirs {
		name := theirName(f)
		if seen[name] {
			continue
		}
		if isContentless(f) {
			res.Ignored++
			continue
		}
		res.Mismatches = append(res.Mismatches, Mismatch{File: name, Field: "presence", Ours: "missing", Theirs: "present"})
	}

	return res, nil
}

func compare(name string, ours *diffparser.ParsedDiffFile, theirs *gitdiff.File) []Mismatch {
	var out []Mismatch
	check := func(field, a, b string) {
		if a != b {
			out = append(out, Mismatch{File: name, Field: field, Ours: a, Theirs: b})
		}
	}

	var added, deleted int64
	for _, frag := range theirs.TextFragments {
		added += frag.LinesAdded
		deleted += frag.LinesDeleted
	}

	check("insertions", strconv.Itoa(ours.InsertCount), strconv.FormatInt(added, 10))
	check("deletions", strconv.Itoa(ours.DeleteCount), strconv.FormatInt(deleted, 10))
	check("binary", strconv.FormatBool(ours.Binary), strconv.FormatBool(theirs.IsBinary))
	check("new", strconv.FormatBool(ours.OrigFileDetails.IsPreCreation()), strconv.FormatBool(theirs.IsNew))
	check("deleted", strconv.FormatBool(ours.Deleted), strconv.FormatBool(theirs.IsDelete))
	check("moved", strconv.FormatBool(ours.Moved), strconv.FormatBool(theirs.IsRename))
	check("copied", strconv.FormatBool(ours.Copied), strconv.FormatBool(theirs.IsCopy))

	if ours.OldUnixMode != "" && theirs.OldMode != 0 {
		check("old mode", ours.OldUnixMode, fmt.Sprintf("%o", uint32(theirs.OldMode)))
	}
	if ours.NewUnixMode != "" && theirs.NewMode != 0 {
		check("new mode", ours.NewUnixMode, fmt.Sprintf("%o", uint32(theirs.NewMode)))
	}

	return out
}

func theirName(f *gitdiff.File) string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

func isContentless(f *gitdiff.File) bool {
	return len(f.TextFragments) == 0 && !f.IsBinary &&
		!f.IsNew && !f.IsDelete && !f.IsRename && !f.IsCopy
}
