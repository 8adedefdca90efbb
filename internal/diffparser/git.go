package diffparser

import (
	"bytes"
	"strconv"
)

const symlinkMode = "120000"

var gitExtendedHeaderKeys = []string{
	"old mode",
	"new mode",
	"deleted file mode",
	"new file mode",
	"copy from",
	"copy to",
	"rename from",
	"rename to",
	"similarity index",
	"dissimilarity index",
	"index",
}

const reasonDiffGitLine = `Unable to parse the "diff --git" line for this file, due to ` +
	`the use of filenames with spaces or --no-prefix, --src-prefix, or ` +
	`--dst-prefix options.`

// gitHeaders maps extended header keys to their values.
type gitHeaders map[string][]byte

func (h gitHeaders) has(key string) bool {
	_, ok := h[key]
	return ok
}

// gitStrategy parses "diff --git" stanzas. baseCommitID and newCommitID
// stand in for blob revisions when the stanza has no "index" line, which is
// how Mercurial's Git-style diffs are handled.
type gitStrategy struct {
	unifiedStrategy

	baseCommitID []byte
	newCommitID  []byte

	// gitLine is the "diff --git" line of the candidate being parsed.
	gitLine int
}

func (g *gitStrategy) specialHeader(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	if !s.lines.hasPrefix(i, "diff --git") {
		return i, nil
	}

	f.gitStanza = true
	g.gitLine = i

	j := i + 1
	if j >= s.lines.Len() {
		f.Skip = true
		return j, nil
	}

	f.OrigFileDetails = commitRevision(g.baseCommitID)
	f.ModifiedFileDetails = commitRevision(g.newCommitID)

	headers, j := parseGitExtendedHeaders(s.lines, j)

	switch {
	case headers.has("new file mode"):
		f.OrigFileDetails = PreCreation
		f.NewUnixMode = string(headers["new file mode"])
	case headers.has("deleted file mode"):
		f.Deleted = true
		f.OldUnixMode = string(headers["deleted file mode"])
	case headers.has("old mode") && headers.has("new mode"):
		f.OldUnixMode = string(headers["old mode"])
		f.NewUnixMode = string(headers["new mode"])
	}

	switch {
	case headers.has("rename from") && headers.has("rename to"):
		f.Moved = true
		f.OrigFilename = unquoteGitPath(headers["rename from"])
		f.ModifiedFilename = unquoteGitPath(headers["rename to"])
	case headers.has("copy from") && headers.has("copy to"):
		f.Copied = true
		f.OrigFilename = unquoteGitPath(headers["copy from"])
		f.ModifiedFilename = unquoteGitPath(headers["copy to"])
	}

	if index, ok := headers["index"]; ok {
		fields := bytes.Fields(index)
		if len(fields) > 0 {
			if orig, mod, found := bytes.Cut(fields[0], []byte("..")); found {
				f.OrigFileDetails = Rev(orig)
				f.ModifiedFileDetails = Rev(mod)
			}
		}
		if len(fields) > 1 && f.OldUnixMode == "" && f.NewUnixMode == "" {
			f.OldUnixMode = string(fields[1])
			f.NewUnixMode = string(fields[1])
		}
	}

	if tok := f.OrigFileDetails.Token(); len(tok) > 0 && isAllZeros(tok) {
		f.OrigFileDetails = PreCreation
	}

	f.IsSymlink = f.OldUnixMode == symlinkMode || f.NewUnixMode == symlinkMode

	return j, nil
}

func (g *gitStrategy) diffHeader(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	if !f.gitStanza || f.Skip {
		return i, nil
	}

	j := i
	if isUnifiedPair(s.lines, j) {
		applyGitFromFileLine(s.lines.At(j), f)
		j += 2
	}

	look := j
	for isUnifiedPair(s.lines, look) {
		look += 2
	}

	// An empty stanza is kept only for new, deleted, moved or copied files.
	// A bare mode change produces no record.
	empty := look >= s.lines.Len() || s.lines.hasPrefix(look, "diff --git")
	if empty && !f.OrigFileDetails.IsPreCreation() && !f.Moved && !f.Copied && !f.Deleted {
		f.Skip = true
		return look, nil
	}

	if !f.Moved && !f.Copied {
		orig, mod, ok := parseDiffGitLine(s.lines.At(g.gitLine))
		if !ok {
			return 0, newParseError(g.gitLine, reasonDiffGitLine)
		}
		f.OrigFilename, f.ModifiedFilename = orig, mod
	}

	if !f.OrigFileDetails.IsSet() {
		f.OrigFileDetails = Unknown
	}
	if !f.ModifiedFileDetails.IsSet() {
		f.ModifiedFileDetails = Unknown
	}

	return j, nil
}

// afterHeaders handles binary markers. Counting stops at the marker; a
// "GIT binary patch" payload stays with the file up to the next stanza.
func (g *gitStrategy) afterHeaders(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	if !f.gitStanza || !isGitBinaryMarker(s.lines.At(i)) {
		return i, nil
	}

	f.Binary = true
	j := i + 1
	if s.lines.hasPrefix(i, "GIT binary patch") {
		for j < s.lines.Len() && !s.lines.hasPrefix(j, "diff --git") {
			j++
		}
	}
	return j, nil
}

// content consumes "--- "/"+++ " pairs inside a stanza without counting
// them.
func (g *gitStrategy) content(s *scanner, i int, f *ParsedDiffFile) (int, bool) {
	if !f.gitStanza || !isUnifiedPair(s.lines, i) {
		return i, false
	}
	applyGitFromFileLine(s.lines.At(i), f)
	return i + 2, true
}

// observeContent records symlink targets from the hunk body.
func (g *gitStrategy) observeContent(f *ParsedDiffFile, line []byte) {
	if !f.IsSymlink || len(line) == 0 {
		return
	}

	switch line[0] {
	case '-':
		if f.OldUnixMode == symlinkMode && f.OldSymlinkTarget == nil {
			f.OldSymlinkTarget = append([]byte{}, line[1:]...)
		}
	case '+':
		if f.NewUnixMode == symlinkMode && f.NewSymlinkTarget == nil {
			f.NewSymlinkTarget = append([]byte{}, line[1:]...)
		}
	}
}

func (g *gitStrategy) finish(_ *scanner, files []*ParsedDiffFile, preamble []byte) error {
	if len(files) == 0 && len(bytes.TrimSpace(preamble)) > 0 {
		return newParseError(0, "This does not appear to be a git diff")
	}
	return nil
}

// normalize strips the a/ or b/ prefix Git adds, then a leading slash.
func (g *gitStrategy) normalize(name []byte) []byte {
	if bytes.HasPrefix(name, []byte("a/")) || bytes.HasPrefix(name, []byte("b/")) {
		name = name[2:]
	}
	return g.unifiedStrategy.normalize(name)
}

// parseGitExtendedHeaders reads extended header lines starting at i.
func parseGitExtendedHeaders(lines *Lines, i int) (gitHeaders, int) {
	headers := gitHeaders{}

	for ; i < lines.Len(); i++ {
		line := lines.At(i)
		matched := false

		for _, key := range gitExtendedHeaderKeys {
			if bytes.HasPrefix(line, []byte(key)) {
				value := line[len(key):]
				if len(value) > 0 {
					value = value[1:]
				}
				headers[key] = append([]byte(nil), value...)
				matched = true
				break
			}
		}

		if !matched {
			break
		}
	}

	return headers, i
}

func applyGitFromFileLine(line []byte, f *ParsedDiffFile) {
	if bytes.Equal(secondField(line), devNull) {
		f.OrigFileDetails = PreCreation
	}
}

func isGitBinaryMarker(line []byte) bool {
	return bytes.HasPrefix(line, []byte("Binary file")) ||
		bytes.HasPrefix(line, []byte("GIT binary patch"))
}

func commitRevision(id []byte) Revision {
	if id == nil {
		return Revision{}
	}
	return Rev(id)
}

func isAllZeros(b []byte) bool {
	for _, c := range b {
		if c != '0' {
			return false
		}
	}
	return true
}

// parseDiffGitLine extracts both filenames from a "diff --git" line,
// dropping the a/ and b/ prefixes. It reports false when the names cannot
// be split without guessing.
func parseDiffGitLine(line []byte) ([]byte, []byte, bool) {
	args, found := bytes.CutPrefix(line, []byte("diff --git "))
	if !found {
		return nil, nil, false
	}

	// Some tools pad the line with a tab after the names.
	args = bytes.TrimRight(bytes.TrimLeft(args, " "), "\t")

	orig, mod, ok := splitDiffGitArgs(args)
	if !ok {
		return nil, nil, false
	}

	if bytes.HasPrefix(orig, []byte("a/")) && bytes.HasPrefix(mod, []byte("b/")) {
		orig, mod = orig[2:], mod[2:]
	}
	return append([]byte(nil), orig...), append([]byte(nil), mod...), true
}

func splitDiffGitArgs(args []byte) ([]byte, []byte, bool) {
	n := len(args)
	if n < 3 {
		return nil, nil, false
	}

	if args[0] == '"' {
		first, rest, ok := readQuotedPath(args)
		if !ok || len(rest) < 2 || rest[0] != ' ' {
			return nil, nil, false
		}
		rest = rest[1:]
		if rest[0] != '"' {
			return first, rest, true
		}
		second, tail, ok := readQuotedPath(rest)
		if !ok || len(tail) != 0 {
			return nil, nil, false
		}
		return first, second, true
	}

	if args[n-1] == '"' {
		// Unquoted first name, quoted second name.
		for off := 0; ; {
			idx := bytes.Index(args[off:], []byte(` "`))
			if idx < 0 {
				return nil, nil, false
			}
			idx += off
			second, tail, ok := readQuotedPath(args[idx+1:])
			if ok && len(tail) == 0 && idx > 0 {
				return args[:idx], second, true
			}
			off = idx + 1
		}
	}

	if bytes.Count(args, []byte{' '}) == 1 {
		sp := bytes.IndexByte(args, ' ')
		if sp == 0 || sp == n-1 {
			return nil, nil, false
		}
		return args[:sp], args[sp+1:], true
	}

	if bytes.HasPrefix(args, []byte("a/")) && bytes.Count(args, []byte(" b/")) == 1 {
		idx := bytes.Index(args, []byte(" b/"))
		return args[:idx], args[idx+1:], true
	}

	// With spaces in the names the split is only certain when both sides
	// name the same file.
	if n%2 == 1 && args[n/2] == ' ' {
		first, second := args[:n/2], args[n/2+1:]
		if bytes.Equal(first, second) {
			return first, second, true
		}
		if len(first) > 2 && bytes.HasPrefix(first, []byte("a/")) &&
			bytes.HasPrefix(second, []byte("b/")) && bytes.Equal(first[2:], second[2:]) {
			return first, second, true
		}
	}

	return nil, nil, false
}

// readQuotedPath reads a C-style quoted path from the start of text and
// returns the decoded path and the remainder.
func readQuotedPath(text []byte) ([]byte, []byte, bool) {
	if len(text) == 0 || text[0] != '"' {
		return nil, nil, false
	}

	backslashes := 0
	for i := 1; i < len(text); i++ {
		switch c := text[i]; {
		case c == '"' && backslashes%2 == 0:
			value, err := strconv.Unquote(string(text[:i+1]))
			if err != nil {
				return append([]byte(nil), text[1:i]...), text[i+1:], true
			}
			return []byte(value), text[i+1:], true
		case c == '\\':
			backslashes++
		default:
			backslashes = 0
		}
	}
	return nil, nil, false
}

func unquoteGitPath(value []byte) []byte {
	if path, rest, ok := readQuotedPath(value); ok && len(rest) == 0 {
		return path
	}
	return append([]byte(nil), value...)
}
