package diffx

import "fmt"

// Error reports a malformed DiffX file.
type Error struct {
	// Line is the 0-based line of the offending header.
	Line int

	// Section is the path of the section being read, e.g. "change[0].file[1].meta".
	Section string

	Reason string
}

func (e *Error) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("diffx: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("diffx: line %d (%s): %s", e.Line, e.Section, e.Reason)
}
