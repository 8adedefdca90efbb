package diffparser

import "bytes"

// indexSeparator is the line following an "Index:" header in CVS and
// Subversion diffs.
var indexSeparator = bytes.Repeat([]byte{'='}, 67)

var devNull = []byte("/dev/null")

// unifiedStrategy is the generic Unified/Context scanner. The other line
// formats build on it.
type unifiedStrategy struct{}

// specialHeader recognizes an "Index:" line followed by the separator.
func (unifiedStrategy) specialHeader(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	if !s.lines.hasPrefix(i, "Index: ") {
		return i, nil
	}

	indexLine := s.lines.At(i)
	for t := i + 1; t < s.lines.Len(); t++ {
		line := s.lines.At(t)

		if bytes.Equal(line, indexSeparator) {
			value := bytes.TrimLeft(indexLine[len("Index:"):], " \t")
			if len(value) == 0 {
				return 0, newParseError(i, "Malformed Index line")
			}
			f.IndexHeaderValue = append([]byte(nil), value...)
			return t + 1, nil
		}

		// A file header came first, so this "Index:" is not ours.
		if bytes.HasPrefix(line, []byte("---")) || bytes.HasPrefix(line, []byte("+++")) {
			break
		}
	}

	return i, nil
}

// diffHeader parses a Unified ("--- "/"+++ ") or Context ("*** "/"--- ")
// header pair.
func (unifiedStrategy) diffHeader(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	if f.IndexHeaderValue != nil && i < s.lines.Len() && isIndexedBinaryMarker(s.lines.At(i)) {
		f.Binary = true
		f.OrigFilename = append([]byte(nil), f.IndexHeaderValue...)
		f.ModifiedFilename = append([]byte(nil), f.IndexHeaderValue...)
		f.OrigFileDetails = Unknown
		f.ModifiedFileDetails = Unknown
		return i + 1, nil
	}

	if !isDiffHeaderPair(s.lines, i) {
		return i, nil
	}

	name, details, err := parseFilenameHeader(s.lines.At(i)[4:], i)
	if err != nil {
		return 0, err
	}
	if bytes.Equal(name, devNull) {
		// The text after the tab, such as "(revision 0)", names no
		// revision that can be fetched.
		details = PreCreation
	}
	f.OrigFilename, f.OrigFileDetails = name, details

	name, details, err = parseFilenameHeader(s.lines.At(i + 1)[4:], i+1)
	if err != nil {
		return 0, err
	}
	f.ModifiedFilename, f.ModifiedFileDetails = name, details

	return i + 2, nil
}

func (unifiedStrategy) afterHeaders(_ *scanner, i int, _ *ParsedDiffFile) (int, error) {
	return i, nil
}

// normalize strips a single leading path separator.
func (unifiedStrategy) normalize(name []byte) []byte {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}

// isDiffHeaderPair reports whether lines i and i+1 form a Unified or
// Context file header.
func isDiffHeaderPair(lines *Lines, i int) bool {
	if i+1 >= lines.Len() {
		return false
	}
	first, second := lines.At(i), lines.At(i+1)

	if bytes.HasPrefix(first, []byte("--- ")) && bytes.HasPrefix(second, []byte("+++ ")) {
		return true
	}
	return bytes.HasPrefix(first, []byte("*** ")) &&
		bytes.HasPrefix(second, []byte("--- ")) &&
		!bytes.HasSuffix(first, []byte(" ****"))
}

// isUnifiedPair reports whether lines i and i+1 are "--- "/"+++ ".
func isUnifiedPair(lines *Lines, i int) bool {
	return lines.hasPrefix(i, "--- ") && lines.hasPrefix(i+1, "+++ ")
}

// isIndexedBinaryMarker matches the binary notices Subversion and GNU diff
// print in place of a file header.
func isIndexedBinaryMarker(line []byte) bool {
	if bytes.Equal(line, []byte("Cannot display: file marked as a binary type.")) {
		return true
	}
	return (bytes.HasPrefix(line, []byte("Binary files ")) || bytes.HasPrefix(line, []byte("Files "))) &&
		bytes.HasSuffix(line, []byte(" differ"))
}

// parseFilenameHeader splits the text after a "--- "/"+++ "/"*** " marker
// into a filename and its details. A tab separator wins; otherwise the
// first run of two or more spaces is used.
func parseFilenameHeader(s []byte, line int) ([]byte, Revision, error) {
	if idx := bytes.IndexByte(s, '\t'); idx >= 0 {
		return append([]byte(nil), s[:idx]...), Rev(s[idx+1:]), nil
	}

	if idx := bytes.Index(s, []byte("  ")); idx >= 0 {
		return append([]byte(nil), s[:idx]...), Rev(bytes.TrimLeft(s[idx:], " ")), nil
	}

	return nil, Revision{}, newParseError(line,
		"No valid separator after the filename was found in the diff header")
}

// secondField returns the second whitespace-separated field of line, used
// on "--- path" lines.
func secondField(line []byte) []byte {
	fields := bytes.Fields(line)
	if len(fields) < 2 {
		return nil
	}
	return fields[1]
}
