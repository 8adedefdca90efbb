package diffparser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/JNZader/diffparse/internal/logger"
)

// Option configures a Parser.
type Option func(*options)

type options struct {
	format     Format
	commitIDs  bool
	cvsRoot    string
	normalizer func([]byte) []byte
	log        *logger.Logger
}

// WithFormat selects the diff format. FormatAuto, the default, detects it
// from the data.
func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithCommitIDsAsRevisions marks file revisions as commit identifiers.
// Mercurial diffs always use commit identifiers.
func WithCommitIDsAsRevisions(v bool) Option {
	return func(o *options) { o.commitIDs = v }
}

// WithCVSRepositoryRoot sets the root that prefixes "RCS file:" paths in CVS
// diffs.
func WithCVSRepositoryRoot(root string) Option {
	return func(o *options) { o.cvsRoot = root }
}

// WithFilenameNormalizer replaces the format's filename normalization used
// by NormalizeDiffFilename.
func WithFilenameNormalizer(fn func([]byte) []byte) Option {
	return func(o *options) { o.normalizer = fn }
}

// WithLogger sets the logger parse events are written to.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Parser parses one diff. A Parser is not safe for concurrent use; create
// one per diff.
type Parser struct {
	data   []byte
	opts   options
	format Format

	// parsed is the result of the last ParseDiff, used by RawDiff to recover
	// diff-level data.
	parsed *ParsedDiff
}

// NewParser returns a parser for data.
func NewParser(data []byte, opts ...Option) *Parser {
	o := options{log: logger.New(logger.LevelError, io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}

	format := o.format
	if format == FormatAuto {
		format = DetectFormat(data)
	}

	return &Parser{data: data, opts: o, format: format}
}

// NewParserFor returns a parser for input, which must be a []byte. Text
// must be encoded by the caller; strings are rejected rather than guessed.
func NewParserFor(input any, opts ...Option) (*Parser, error) {
	data, ok := input.([]byte)
	if !ok {
		return nil, &InputTypeError{Got: fmt.Sprintf("%T", input)}
	}
	return NewParser(data, opts...), nil
}

// Format returns the format the parser uses, after detection.
func (p *Parser) Format() Format {
	return p.format
}

// ParseDiff parses the whole diff.
func (p *Parser) ParseDiff() (*ParsedDiff, error) {
	log := p.opts.log.WithField("format", p.format.String())
	log.Debug("parsing %d bytes", len(p.data))

	var (
		diff *ParsedDiff
		err  error
	)
	if p.format == FormatDiffX {
		diff, err = p.parseDiffX()
	} else {
		diff, err = p.parseLines(log)
	}
	if err != nil {
		log.Debug("parse failed: %v", err)
		return nil, err
	}

	p.parsed = diff
	log.Debug("parsed %d changes, %d files", len(diff.Changes), len(diff.Files()))
	return diff, nil
}

func (p *Parser) parseLines(log *logger.Logger) (*ParsedDiff, error) {
	lines := SplitLines(p.data)
	strat := p.newStrategy(lines)

	usesCommitIDs := p.opts.commitIDs
	if u, ok := strat.(commitIDUser); ok && u.usesCommitIDs() {
		usesCommitIDs = true
	}

	diff := newParsedDiff(p.format, usesCommitIDs)
	change := diff.NewChange()

	files, err := newScanner(lines, strat, change, log).scan()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		change.AddFile(f)
	}

	if d, ok := strat.(changeDecorator); ok {
		d.decorateChange(change)
	}
	if change.ParentCommitID == nil {
		if h, ok := strat.(parentCommitIDer); ok {
			change.ParentCommitID = h.parentCommitID()
		}
	}

	return diff, nil
}

// Parse runs the scan and returns the accepted files in order.
func (p *Parser) Parse() ([]*ParsedDiffFile, error) {
	diff, err := p.ParseDiff()
	if err != nil {
		return nil, err
	}
	return diff.Files(), nil
}

// RawDiff regenerates diff bytes for a *ParsedDiff, a *ParsedDiffChange or a
// []*ParsedDiffFile produced by this parser.
func (p *Parser) RawDiff(target any) ([]byte, error) {
	switch t := target.(type) {
	case *ParsedDiff:
		if t == nil {
			return nil, &TargetTypeError{Got: "nil *ParsedDiff"}
		}
		if p.format == FormatDiffX {
			return p.rawDiffX(t, t.Changes)
		}
		return joinFileData(t.Files())

	case *ParsedDiffChange:
		if t == nil {
			return nil, &TargetTypeError{Got: "nil *ParsedDiffChange"}
		}
		if p.format == FormatDiffX {
			return p.rawDiffX(p.parsed, []*ParsedDiffChange{t})
		}
		return joinFileData(t.Files)

	case []*ParsedDiffFile:
		if p.format == FormatDiffX {
			return p.rawDiffXFiles(t)
		}
		return joinFileData(t)

	default:
		return nil, &TargetTypeError{Got: fmt.Sprintf("%T", target)}
	}
}

// NormalizeDiffFilename converts a filename from the diff into a
// repository-relative path.
func (p *Parser) NormalizeDiffFilename(name []byte) []byte {
	if p.opts.normalizer != nil {
		return p.opts.normalizer(name)
	}

	switch p.format {
	case FormatGit, FormatMercurialGit:
		return (&gitStrategy{}).normalize(name)
	default:
		return unifiedStrategy{}.normalize(name)
	}
}

// newStrategy returns a fresh strategy so that no state leaks between
// parses.
func (p *Parser) newStrategy(lines *Lines) strategy {
	switch p.format {
	case FormatGit:
		return &gitStrategy{}
	case FormatMercurial:
		return &hgStrategy{}
	case FormatMercurialGit:
		return newHgGitStrategy(lines)
	case FormatCVS:
		return newCVSStrategy(p.opts.cvsRoot)
	default:
		return unifiedStrategy{}
	}
}

func joinFileData(files []*ParsedDiffFile) ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range files {
		data, err := f.Data()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
