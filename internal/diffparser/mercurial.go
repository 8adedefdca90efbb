package diffparser

import "bytes"

// hgStrategy parses native Mercurial diffs ("diff -r A [-r B] path"). Files
// in Git style are handed to an embedded Git strategy, with the changeset
// IDs standing in for blob revisions.
type hgStrategy struct {
	git gitStrategy

	// nodeID and parentID come from the "# Node ID" and "# Parent" lines of
	// an exported changeset.
	nodeID   []byte
	parentID []byte

	// origChangesetID is the base revision of the last "diff -r" line, or
	// the parent changeset when there is none.
	origChangesetID []byte
}

func (h *hgStrategy) specialHeader(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	line := s.lines.At(i)

	switch {
	case bytes.HasPrefix(line, []byte("# Node ID ")):
		if fields := bytes.Fields(line); len(fields) == 4 {
			h.nodeID = append([]byte(nil), fields[3]...)
		}
		return i, nil

	case bytes.HasPrefix(line, []byte("# Parent ")):
		if fields := bytes.Fields(line); len(fields) == 3 {
			h.parentID = append([]byte(nil), fields[2]...)
			h.origChangesetID = h.parentID
		}
		return i, nil

	case bytes.HasPrefix(line, []byte("diff --git")):
		h.git.baseCommitID = h.parentID
		h.git.newCommitID = h.nodeID
		return h.git.specialHeader(s, i, f)

	case bytes.HasPrefix(line, []byte("diff -r ")):
		return h.parseRevisionLine(i, line, f)
	}

	return i, nil
}

// parseRevisionLine handles both "diff -r A -r B name" (two committed
// revisions) and "diff -r A name" (against the working copy).
func (h *hgStrategy) parseRevisionLine(i int, line []byte, f *ParsedDiffFile) (int, error) {
	fields := bytes.Fields(line)
	if len(fields) < 4 {
		return 0, newParseError(i, "The diff file is missing revision information")
	}

	nameField := 3
	f.ModifiedFileDetails = Rev(hgUncommitted)
	if len(fields) > 4 && bytes.Equal(fields[3], []byte("-r")) {
		nameField = 5
		f.ModifiedFileDetails = Rev(fields[4])
	}

	name := skipFields(line, nameField)
	if len(name) == 0 {
		return 0, newParseError(i, "The diff file is missing revision information")
	}

	// Native diffs do not record renames.
	f.OrigFilename = append([]byte(nil), name...)
	f.ModifiedFilename = append([]byte(nil), name...)
	f.OrigFileDetails = Rev(fields[2])
	h.origChangesetID = append([]byte(nil), fields[2]...)

	return i + 1, nil
}

func (h *hgStrategy) diffHeader(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	if f.gitStanza {
		return h.git.diffHeader(s, i, f)
	}

	if s.lines.hasPrefix(i, "Binary file ") {
		f.Binary = true
		i++
	}

	if isUnifiedPair(s.lines, i) {
		if bytes.Equal(secondField(s.lines.At(i)), devNull) {
			f.OrigFileDetails = PreCreation
		}
		i += 2
	}

	return i, nil
}

func (h *hgStrategy) afterHeaders(s *scanner, i int, f *ParsedDiffFile) (int, error) {
	if f.gitStanza {
		return h.git.afterHeaders(s, i, f)
	}
	return i, nil
}

func (h *hgStrategy) content(s *scanner, i int, f *ParsedDiffFile) (int, bool) {
	return h.git.content(s, i, f)
}

func (h *hgStrategy) observeContent(f *ParsedDiffFile, line []byte) {
	h.git.observeContent(f, line)
}

func (h *hgStrategy) normalize(name []byte) []byte {
	return h.git.unifiedStrategy.normalize(name)
}

func (h *hgStrategy) decorateChange(c *ParsedDiffChange) {
	if h.nodeID != nil {
		c.CommitID = h.nodeID
	}
	if h.parentID != nil {
		c.ParentCommitID = h.parentID
	}
}

func (h *hgStrategy) parentCommitID() []byte {
	return h.origChangesetID
}

func (h *hgStrategy) usesCommitIDs() bool { return true }

// hgGitStrategy parses Mercurial diffs that are entirely in Git style. The
// changeset IDs are collected before scanning so every stanza sees them.
type hgGitStrategy struct {
	gitStrategy

	nodeID   []byte
	parentID []byte
}

func newHgGitStrategy(lines *Lines) *hgGitStrategy {
	h := &hgGitStrategy{}

	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		if bytes.HasPrefix(line, []byte("diff --git")) {
			break
		}

		fields := bytes.Fields(line)
		switch {
		case bytes.HasPrefix(line, []byte("# Node ID ")) && len(fields) == 4:
			h.nodeID = append([]byte(nil), fields[3]...)
		case bytes.HasPrefix(line, []byte("# Parent ")) && len(fields) == 3:
			h.parentID = append([]byte(nil), fields[2]...)
		}
	}

	h.baseCommitID = h.parentID
	h.newCommitID = h.nodeID
	return h
}

func (h *hgGitStrategy) decorateChange(c *ParsedDiffChange) {
	if h.nodeID != nil {
		c.CommitID = h.nodeID
	}
	if h.parentID != nil {
		c.ParentCommitID = h.parentID
	}
}

func (h *hgGitStrategy) parentCommitID() []byte {
	return h.parentID
}

func (h *hgGitStrategy) usesCommitIDs() bool { return true }

// skipFields returns the text of line after its first n whitespace-separated
// fields, preserving any spaces inside the remainder.
func skipFields(line []byte, n int) []byte {
	rest := line
	for k := 0; k < n; k++ {
		rest = bytes.TrimLeft(rest, " \t")
		idx := bytes.IndexAny(rest, " \t")
		if idx < 0 {
			return nil
		}
		rest = rest[idx:]
	}
	return bytes.TrimRight(bytes.TrimLeft(rest, " \t"), " \t")
}
