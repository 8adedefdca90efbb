// Package diffx reads and writes DiffX containers.
//
// A DiffX file is a tree of sections. Container sections ("diffx", "change",
// "file") hold other sections; content sections ("preamble", "meta", "diff")
// carry a "length" option giving the exact byte size of the content that
// follows the header line. Nesting is encoded by the number of dots after
// the leading "#":
//
//	#diffx: encoding=utf-8, version=1.0
//	#.change:
//	#..file:
//	#...meta: format=json, length=38
//	{
//	    "path": "README"
//	}
//	#...diff: length=42
//	...
package diffx

import "strings"

// Magic starts every DiffX file.
const Magic = "#diffx:"

// Option is one key=value pair of a section header.
type Option struct {
	Key   string
	Value string
}

// Options keeps header options in the order they were written.
type Options []Option

// Get returns the value for key.
func (o Options) Get(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Value, true
		}
	}
	return "", false
}

// Set replaces the value for key, or appends it.
func (o Options) Set(key, value string) Options {
	for i, opt := range o {
		if opt.Key == key {
			out := append(Options(nil), o...)
			out[i].Value = value
			return out
		}
	}
	return append(append(Options(nil), o...), Option{Key: key, Value: value})
}

// Without returns a copy of o with key removed.
func (o Options) Without(key string) Options {
	out := make(Options, 0, len(o))
	for _, opt := range o {
		if opt.Key != key {
			out = append(out, opt)
		}
	}
	return out
}

func (o Options) String() string {
	parts := make([]string, len(o))
	for i, opt := range o {
		parts[i] = opt.Key + "=" + opt.Value
	}
	return strings.Join(parts, ", ")
}

// Document is a whole DiffX file.
type Document struct {
	Options  Options
	Preamble *Preamble
	Meta     *Meta
	Changes  []*Change

	// LineEnding terminates every section header, "\n" or "\r\n". Read
	// sets it from the first header. When empty, Write uses "\r\n" for
	// documents declaring line_endings=dos and "\n" otherwise.
	LineEnding string
}

// headerEOL returns the terminator Write uses for section headers.
func (d *Document) headerEOL() string {
	if d.LineEnding != "" {
		return d.LineEnding
	}
	if v, _ := d.Options.Get("line_endings"); v == "dos" {
		return "\r\n"
	}
	return "\n"
}

// Change is one commit within a DiffX file.
type Change struct {
	Options  Options
	Preamble *Preamble
	Meta     *Meta
	Files    []*File
}

// File is one file within a change.
type File struct {
	Options Options
	Meta    *Meta
	Diff    *Diff
}

// Preamble is free-form text such as a commit message.
type Preamble struct {
	Options Options

	// Text is the content with the "indent" option removed from each line.
	Text []byte

	// Raw is the content exactly as read. Write emits Raw when it is set.
	Raw []byte
}

// Meta is structured metadata, JSON encoded.
type Meta struct {
	Options Options

	// Data is the decoded JSON object. Numbers are json.Number.
	Data map[string]any

	// Raw is the content exactly as read. Write emits Raw when it is set.
	Raw []byte
}

// Diff is the diff content of one file.
type Diff struct {
	Options Options
	Data    []byte
}
