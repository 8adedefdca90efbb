package diffparser

import (
	"bytes"

	"github.com/JNZader/diffparse/internal/logger"
)

// strategy implements the three header hooks of the line scanner for one
// format. Hooks receive the line to start at and return the line after
// whatever they consumed.
type strategy interface {
	specialHeader(s *scanner, i int, f *ParsedDiffFile) (int, error)
	diffHeader(s *scanner, i int, f *ParsedDiffFile) (int, error)
	afterHeaders(s *scanner, i int, f *ParsedDiffFile) (int, error)
	normalize(name []byte) []byte
}

// contentHandler lets a strategy claim content lines before they are
// counted. It returns the next line and whether it consumed line i.
type contentHandler interface {
	content(s *scanner, i int, f *ParsedDiffFile) (int, bool)
}

// contentObserver sees every counted content line of a file.
type contentObserver interface {
	observeContent(f *ParsedDiffFile, line []byte)
}

// finisher runs once after the scan over the accepted files and the
// preamble that never became part of a file.
type finisher interface {
	finish(s *scanner, files []*ParsedDiffFile, preamble []byte) error
}

// changeDecorator fills change-level fields after a scan.
type changeDecorator interface {
	decorateChange(c *ParsedDiffChange)
}

// parentCommitIDer is the legacy hook consulted when a change has no
// parent commit ID after parsing.
type parentCommitIDer interface {
	parentCommitID() []byte
}

// commitIDUser reports whether file revisions from this strategy are
// commit identifiers.
type commitIDUser interface {
	usesCommitIDs() bool
}

// headerResult is the outcome of the change-header pipeline at one line.
type headerResult struct {
	next    int
	file    *ParsedDiffFile
	skipped bool
}

// scanner holds the state of one line-scanning parse.
type scanner struct {
	lines  *Lines
	strat  strategy
	change *ParsedDiffChange
	log    *logger.Logger
}

func newScanner(lines *Lines, strat strategy, change *ParsedDiffChange, log *logger.Logger) *scanner {
	return &scanner{
		lines:  lines,
		strat:  strat,
		change: change,
		log:    log,
	}
}

// parseChangeHeader runs the special-header, diff-header and after-headers
// stages starting at line i.
func (s *scanner) parseChangeHeader(i int) (headerResult, error) {
	f := s.change.NewFile()
	start := i

	next, err := s.strat.specialHeader(s, i, f)
	if err != nil {
		return headerResult{}, err
	}

	next, err = s.strat.diffHeader(s, next, f)
	if err != nil {
		return headerResult{}, err
	}

	if f.Skip {
		s.change.Discard(f)
		s.log.Debug("skipped stanza at lines %d-%d", start, next)
		return headerResult{next: next, skipped: true}, nil
	}

	if !f.headersComplete() {
		s.change.Discard(f)
		return headerResult{next: start}, nil
	}

	if next < s.lines.Len() {
		next, err = s.strat.afterHeaders(s, next, f)
		if err != nil {
			return headerResult{}, err
		}
		if f.Skip {
			s.change.Discard(f)
			s.log.Debug("skipped stanza at lines %d-%d", start, next)
			return headerResult{next: next, skipped: true}, nil
		}
	}

	// Header lines belong to the file's data.
	f.append(s.lines.Span(start, next))

	return headerResult{next: next, file: f}, nil
}

// scan walks every line and returns the accepted files, each finalized.
func (s *scanner) scan() ([]*ParsedDiffFile, error) {
	var (
		preamble bytes.Buffer
		files    []*ParsedDiffFile
		current  *ParsedDiffFile
	)

	n := s.lines.Len()
	for i := 0; i < n; {
		res, err := s.parseChangeHeader(i)
		if err != nil {
			return nil, err
		}

		switch {
		case res.file != nil:
			if current != nil {
				current.Finalize()
			}
			current = res.file
			current.prepend(preamble.Bytes())
			preamble.Reset()
			files = append(files, current)
			s.log.Debug("accepted file %q at line %d", current.ModifiedFilename, i)
			i = advance(i, res.next)

		case res.skipped:
			preamble.Reset()
			i = advance(i, res.next)

		case current != nil:
			i = s.contentLine(i, current)

		default:
			preamble.Write(s.lines.Raw(i))
			i++
		}
	}

	if current != nil {
		current.Finalize()
	}

	if fin, ok := s.strat.(finisher); ok {
		if err := fin.finish(s, files, preamble.Bytes()); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// contentLine attributes line i to f and returns the next line.
func (s *scanner) contentLine(i int, f *ParsedDiffFile) int {
	if h, ok := s.strat.(contentHandler); ok {
		if next, handled := h.content(s, i, f); handled {
			f.append(s.lines.Span(i, next))
			return next
		}
	}

	line := s.lines.At(i)
	if f.hasFilenames() && !f.Binary && len(line) > 0 {
		switch line[0] {
		case '-':
			f.DeleteCount++
		case '+':
			f.InsertCount++
		}
	}

	if obs, ok := s.strat.(contentObserver); ok {
		obs.observeContent(f, line)
	}

	f.append(s.lines.Raw(i))
	return i + 1
}

// advance guards against hooks that did not move forward.
func advance(i, next int) int {
	if next <= i {
		return i + 1
	}
	return next
}
