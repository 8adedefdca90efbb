package diffparser

import "bytes"

// Lines is a random-access view of a diff buffer split into lines.
//
// Line content is returned without its terminator. The terminator of every
// line is remembered so that any span of lines can be handed back exactly as
// it appeared in the input, including mixed "\n"/"\r\n" endings and a
// missing final newline.
type Lines struct {
	data   []byte
	starts []int
	ends   []int
	nexts  []int
}

// SplitLines splits data on "\n". Up to two "\r" bytes directly before the
// "\n" are treated as part of the terminator ("\r\n" and "\r\r\n").
func SplitLines(data []byte) *Lines {
	l := &Lines{data: data}
	if n := bytes.Count(data, []byte{'\n'}) + 1; n > 1 {
		l.starts = make([]int, 0, n)
		l.ends = make([]int, 0, n)
		l.nexts = make([]int, 0, n)
	}

	start := 0
	for start < len(data) {
		nl := bytes.IndexByte(data[start:], '\n')
		if nl < 0 {
			l.add(start, len(data), len(data))
			break
		}

		end := start + nl
		contentEnd := end
		for k := 0; k < 2 && contentEnd > start && data[contentEnd-1] == '\r'; k++ {
			contentEnd--
		}
		l.add(start, contentEnd, end+1)
		start = end + 1
	}

	return l
}

func (l *Lines) add(start, end, next int) {
	l.starts = append(l.starts, start)
	l.ends = append(l.ends, end)
	l.nexts = append(l.nexts, next)
}

// Len returns the number of lines.
func (l *Lines) Len() int {
	return len(l.starts)
}

// At returns line i without its terminator. The returned slice must not be
// modified.
func (l *Lines) At(i int) []byte {
	return l.data[l.starts[i]:l.ends[i]:l.ends[i]]
}

// Ending returns the terminator of line i, empty for an unterminated last
// line.
func (l *Lines) Ending(i int) []byte {
	return l.data[l.ends[i]:l.nexts[i]:l.nexts[i]]
}

// Raw returns line i including its terminator.
func (l *Lines) Raw(i int) []byte {
	return l.data[l.starts[i]:l.nexts[i]:l.nexts[i]]
}

// Span returns the raw bytes of lines [from, to).
func (l *Lines) Span(from, to int) []byte {
	if from >= to {
		return nil
	}
	return l.data[l.starts[from]:l.nexts[to-1]:l.nexts[to-1]]
}

// TrailingNewline reports whether the buffer ended with a line terminator.
func (l *Lines) TrailingNewline() bool {
	n := len(l.starts)
	return n > 0 && l.nexts[n-1] > l.ends[n-1]
}

// hasPrefix reports whether line i exists and starts with prefix.
func (l *Lines) hasPrefix(i int, prefix string) bool {
	return i >= 0 && i < len(l.starts) && bytes.HasPrefix(l.At(i), []byte(prefix))
}
