package diffparser

import (
	"bytes"
	"fmt"
	"strings"
)

// Format selects the parsing strategy for a diff.
type Format int

// Supported formats. FormatAuto picks one with DetectFormat.
const (
	FormatAuto Format = iota
	FormatUnified
	FormatGit
	FormatMercurial
	FormatMercurialGit
	FormatCVS
	FormatDiffX
)

var formatNames = map[Format]string{
	FormatAuto:         "auto",
	FormatUnified:      "unified",
	FormatGit:          "git",
	FormatMercurial:    "hg",
	FormatMercurialGit: "hg-git",
	FormatCVS:          "cvs",
	FormatDiffX:        "diffx",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// MarshalText renders the format name.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseFormat maps a format name to a Format. "context" is accepted as an
// alias of "unified" since both share a scanner, "mercurial" of "hg".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "unified", "context":
		return FormatUnified, nil
	case "git":
		return FormatGit, nil
	case "hg", "mercurial":
		return FormatMercurial, nil
	case "hg-git", "mercurial-git":
		return FormatMercurialGit, nil
	case "cvs":
		return FormatCVS, nil
	case "diffx":
		return FormatDiffX, nil
	default:
		return FormatAuto, fmt.Errorf("unknown diff format %q", name)
	}
}

// FormatNames returns the accepted format names.
func FormatNames() []string {
	return []string{"auto", "unified", "git", "hg", "hg-git", "cvs", "diffx"}
}

// DetectFormat guesses the format of data from its first header lines.
func DetectFormat(data []byte) Format {
	if bytes.HasPrefix(data, []byte("#diffx:")) {
		return FormatDiffX
	}

	lines := SplitLines(data)
	hg := false
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		switch {
		case bytes.HasPrefix(line, []byte("# HG changeset patch")),
			bytes.HasPrefix(line, []byte("# Node ID ")),
			bytes.HasPrefix(line, []byte("# Parent ")):
			hg = true
		case bytes.HasPrefix(line, []byte("diff --git")):
			if hg {
				return FormatMercurialGit
			}
			return FormatGit
		case bytes.HasPrefix(line, []byte("diff -r ")):
			return FormatMercurial
		case bytes.HasPrefix(line, []byte("RCS file: ")):
			return FormatCVS
		case bytes.HasPrefix(line, []byte("@@ ")):
			// First hunk reached without a format marker.
			if hg {
				return FormatMercurial
			}
			return FormatUnified
		}
	}

	if hg {
		return FormatMercurial
	}
	return FormatUnified
}
