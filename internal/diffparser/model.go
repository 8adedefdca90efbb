// Package diffparser converts raw diff text produced by version control
// tools into a structured, byte-exact breakdown of per-file changes.
//
// Supported formats are plain Unified and Context diffs, Git, Mercurial
// (native and Git-style), CVS and the structured DiffX container. Every
// format produces the same ParsedDiff → ParsedDiffChange → ParsedDiffFile
// tree, and every accepted file keeps the exact bytes of the input it was
// built from so the diff can be regenerated with RawDiff.
package diffparser

import "bytes"

// ExtraData holds format-specific metadata that must survive a parse so the
// diff can be regenerated later.
type ExtraData map[string]any

// ParsedDiff is the result of parsing one diff submission.
type ParsedDiff struct {
	// Changes are the commits or changesets found in the diff. Legacy
	// formats always produce exactly one.
	Changes []*ParsedDiffChange

	// UsesCommitIDsAsRevisions reports whether file revisions should be
	// read as repository commit identifiers.
	UsesCommitIDsAsRevisions bool

	// Format is the format the diff was parsed as.
	Format Format

	Extra ExtraData
}

func newParsedDiff(format Format, usesCommitIDs bool) *ParsedDiff {
	return &ParsedDiff{
		Format:                   format,
		UsesCommitIDsAsRevisions: usesCommitIDs,
		Extra:                    ExtraData{},
	}
}

// NewChange creates a change and appends it to d.
func (d *ParsedDiff) NewChange() *ParsedDiffChange {
	c := &ParsedDiffChange{
		Index: len(d.Changes),
		Extra: ExtraData{},
	}
	d.Changes = append(d.Changes, c)
	return c
}

// Change returns the change at index i, or nil.
func (d *ParsedDiff) Change(i int) *ParsedDiffChange {
	if i < 0 || i >= len(d.Changes) {
		return nil
	}
	return d.Changes[i]
}

// ChangeOf returns the change owning f, or nil if f is not part of d.
func (d *ParsedDiff) ChangeOf(f *ParsedDiffFile) *ParsedDiffChange {
	return d.Change(f.ChangeIndex)
}

// Files returns the files of every change, in order.
func (d *ParsedDiff) Files() []*ParsedDiffFile {
	var files []*ParsedDiffFile
	for _, c := range d.Changes {
		files = append(files, c.Files...)
	}
	return files
}

// ParsedDiffChange is one commit or changeset within a diff.
type ParsedDiffChange struct {
	// Index is the position of the change in its ParsedDiff.
	Index int

	Files          []*ParsedDiffFile
	CommitID       []byte
	ParentCommitID []byte

	Extra ExtraData
}

// NewFile creates a file owned by c. The file is not added to Files until
// AddFile is called.
func (c *ParsedDiffChange) NewFile() *ParsedDiffFile {
	return &ParsedDiffFile{ChangeIndex: c.Index, Extra: ExtraData{}}
}

// AddFile appends f to the change.
func (c *ParsedDiffChange) AddFile(f *ParsedDiffFile) {
	f.ChangeIndex = c.Index
	c.Files = append(c.Files, f)
}

// Discard removes f from the change if it was added.
func (c *ParsedDiffChange) Discard(f *ParsedDiffFile) {
	for i, existing := range c.Files {
		if existing == f {
			c.Files = append(c.Files[:i], c.Files[i+1:]...)
			return
		}
	}
}

// ParsedDiffFile is one file's worth of diff content.
//
// Its data is built in two phases: while open, bytes are appended or
// prepended; after Finalize the data is read-only and available from Data.
type ParsedDiffFile struct {
	// ChangeIndex is the index of the owning change in its ParsedDiff.
	ChangeIndex int

	OrigFilename        []byte
	OrigFileDetails     Revision
	ModifiedFilename    []byte
	ModifiedFileDetails Revision

	Binary    bool
	Deleted   bool
	Moved     bool
	Copied    bool
	IsSymlink bool

	OldSymlinkTarget []byte
	NewSymlinkTarget []byte
	OldUnixMode      string
	NewUnixMode      string

	InsertCount int
	DeleteCount int

	// IndexHeaderValue is the value of an "Index:" line, when the format
	// has one.
	IndexHeaderValue []byte

	// Skip tells the scanner to drop this record.
	Skip bool

	Extra ExtraData

	// gitStanza marks files whose header started with "diff --git".
	gitStanza bool

	buf       bytes.Buffer
	data      []byte
	finalized bool
}

// AppendData appends b to the file's data.
func (f *ParsedDiffFile) AppendData(b []byte) error {
	if f.finalized {
		return ErrFinalized
	}
	f.buf.Write(b)
	return nil
}

// PrependData inserts b before the file's data.
func (f *ParsedDiffFile) PrependData(b []byte) error {
	if f.finalized {
		return ErrFinalized
	}
	f.prepend(b)
	return nil
}

// Finalize closes the data buffer. It is safe to call more than once.
func (f *ParsedDiffFile) Finalize() {
	if f.finalized {
		return
	}
	f.data = append([]byte(nil), f.buf.Bytes()...)
	f.buf = bytes.Buffer{}
	f.finalized = true
}

// Finalized reports whether Finalize has been called.
func (f *ParsedDiffFile) Finalized() bool {
	return f.finalized
}

// Data returns the exact bytes of the diff attributed to this file.
func (f *ParsedDiffFile) Data() ([]byte, error) {
	if !f.finalized {
		return nil, ErrNotFinalized
	}
	return f.data, nil
}

// headersComplete reports whether both sides have a filename and details.
func (f *ParsedDiffFile) headersComplete() bool {
	return f.OrigFilename != nil && f.ModifiedFilename != nil &&
		f.OrigFileDetails.IsSet() && f.ModifiedFileDetails.IsSet()
}

func (f *ParsedDiffFile) hasFilenames() bool {
	return f.OrigFilename != nil && f.ModifiedFilename != nil
}

func (f *ParsedDiffFile) append(b []byte) {
	f.buf.Write(b)
}

// prepend is PrependData for files the scanner still holds open.
func (f *ParsedDiffFile) prepend(b []byte) {
	if len(b) == 0 {
		return
	}
	var nb bytes.Buffer
	nb.Grow(len(b) + f.buf.Len())
	nb.Write(b)
	nb.Write(f.buf.Bytes())
	f.buf = nb
}
