package diffparser

import "bytes"

// cvsStrategy parses "cvs diff" output. Each file starts with an "Index:"
// header followed by an "RCS file:" line naming the file in the repository.
type cvsStrategy struct {
	unifiedStrategy

	// root is the repository root that prefixes RCS paths, without a
	// trailing slash.
	root []byte

	rcsPath []byte
}

func newCVSStrategy(root string) *cvsStrategy {
	return &cvsStrategy{root: bytes.TrimRight([]byte(root), "/")}
}

func (c *cvsStrategy) specialHeader(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	c.rcsPath = nil

	next, err := c.unifiedStrategy.specialHeader(s, i, f)
	if err != nil || f.IndexHeaderValue == nil {
		return next, err
	}

	if next >= s.lines.Len() {
		return 0, newParseError(next, "Unable to find RCS line")
	}
	path, ok := c.parseRCSLine(s.lines.At(next))
	if !ok {
		return 0, newParseError(next, "Unable to find RCS line")
	}
	c.rcsPath = path
	next++

	for s.lines.hasPrefix(next, "retrieving ") {
		next++
	}
	if s.lines.hasPrefix(next, "diff ") {
		next++
	}

	return next, nil
}

// parseRCSLine extracts the file path from "RCS file: <root>/<path>,v",
// falling back to the whole value with any ",v" suffix removed.
func (c *cvsStrategy) parseRCSLine(line []byte) ([]byte, bool) {
	value, found := bytes.CutPrefix(line, []byte("RCS file: "))
	if !found || len(value) == 0 {
		return nil, false
	}

	if len(c.root) > 0 {
		prefix := append(append([]byte(nil), c.root...), '/')
		if rest, ok := bytes.CutPrefix(value, prefix); ok && bytes.HasSuffix(rest, []byte(",v")) {
			return append([]byte(nil), bytes.TrimSuffix(rest, []byte(",v"))...), true
		}
	}

	return append([]byte(nil), bytes.TrimSuffix(value, []byte(",v"))...), true
}

func (c *cvsStrategy) diffHeader(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	next, err := c.unifiedStrategy.diffHeader(s, i, f)
	if err != nil || next == i {
		return next, err
	}

	switch {
	case bytes.Equal(f.OrigFilename, devNull):
		f.OrigFilename = append([]byte(nil), f.ModifiedFilename...)
		f.OrigFileDetails = PreCreation
	case c.rcsPath != nil:
		f.OrigFilename = append([]byte(nil), c.rcsPath...)
	}

	if bytes.Equal(f.ModifiedFilename, devNull) {
		f.Deleted = true
	}

	return next, nil
}
