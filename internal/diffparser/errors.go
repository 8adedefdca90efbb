package diffparser

import (
	"errors"
	"fmt"
)

// ParseError reports a structural problem found while parsing.
type ParseError struct {
	// Line is the 0-based line number of the offending line, or -1 when the
	// error is located structurally (see Location).
	Line int

	// Location names a structural position such as "change 1, file 2" for
	// formats that are not scanned line by line.
	Location string

	// Reason is a human-readable description suitable for end users.
	Reason string
}

func newParseError(line int, reason string) *ParseError {
	return &ParseError{Line: line, Reason: reason}
}

func (e *ParseError) Error() string {
	switch {
	case e.Location != "" && e.Line >= 0:
		return fmt.Sprintf("line %d (%s): %s", e.Line, e.Location, e.Reason)
	case e.Location != "":
		return fmt.Sprintf("%s: %s", e.Location, e.Reason)
	default:
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
}

// InputTypeError is returned when a parser is constructed from something
// that is not a byte slice.
type InputTypeError struct {
	Got string
}

func (e *InputTypeError) Error() string {
	return "diffparser: diff input must be []byte, got " + e.Got
}

// TargetTypeError is returned by RawDiff for unsupported targets.
type TargetTypeError struct {
	Got string
}

func (e *TargetTypeError) Error() string {
	return "diffparser: raw diff target must be *ParsedDiff, *ParsedDiffChange " +
		"or []*ParsedDiffFile, got " + e.Got
}

var (
	// ErrNotFinalized is returned when file data is read before Finalize.
	ErrNotFinalized = errors.New("diffparser: file data is not finalized")

	// ErrFinalized is returned when file data is modified after Finalize.
	ErrFinalized = errors.New("diffparser: file data is already finalized")
)
