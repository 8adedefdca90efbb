package diffx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type header struct {
	depth   int
	name    string
	options Options
	eol     string

	line int
	next int
}

type reader struct {
	data []byte
	pos  int
	line int
}

// Read decodes a DiffX file.
func Read(data []byte) (*Document, error) {
	r := &reader{data: data}

	h, err := r.peek("")
	if err != nil {
		return nil, err
	}
	if h == nil || h.depth != 0 || h.name != "diffx" {
		return nil, &Error{Line: 0, Reason: "missing " + Magic + " header"}
	}
	r.consume(h)

	doc := &Document{Options: h.options, LineEnding: h.eol}
	if doc.Preamble, doc.Meta, err = r.readCommon(1, ""); err != nil {
		return nil, err
	}

	for {
		h, err := r.peek("")
		if err != nil {
			return nil, err
		}
		if h == nil {
			break
		}
		if h.depth != 1 || h.name != "change" {
			return nil, r.unexpected(h, "")
		}
		r.consume(h)

		change, err := r.readChange(h, fmt.Sprintf("change[%d]", len(doc.Changes)))
		if err != nil {
			return nil, err
		}
		doc.Changes = append(doc.Changes, change)
	}

	if len(doc.Changes) == 0 {
		return nil, &Error{Line: r.line, Reason: "no change sections found"}
	}
	return doc, nil
}

func (r *reader) readChange(h *header, path string) (*Change, error) {
	change := &Change{Options: h.options}

	var err error
	if change.Preamble, change.Meta, err = r.readCommon(2, path); err != nil {
		return nil, err
	}

	for {
		fh, err := r.peek(path)
		if err != nil {
			return nil, err
		}
		if fh == nil || fh.depth < 2 {
			break
		}
		if fh.depth != 2 || fh.name != "file" {
			return nil, r.unexpected(fh, path)
		}
		r.consume(fh)

		file, err := r.readFile(fh, fmt.Sprintf("%s.file[%d]", path, len(change.Files)))
		if err != nil {
			return nil, err
		}
		change.Files = append(change.Files, file)
	}

	if len(change.Files) == 0 {
		return nil, &Error{Line: h.line, Section: path, Reason: "change has no file sections"}
	}
	return change, nil
}

func (r *reader) readFile(h *header, path string) (*File, error) {
	file := &File{Options: h.options}

	for {
		sh, err := r.peek(path)
		if err != nil {
			return nil, err
		}
		if sh == nil || sh.depth < 3 {
			return file, nil
		}

		switch {
		case sh.depth == 3 && sh.name == "meta" && file.Meta == nil && file.Diff == nil:
			if file.Meta, err = r.readMeta(sh, path+".meta"); err != nil {
				return nil, err
			}
		case sh.depth == 3 && sh.name == "diff" && file.Diff == nil:
			content, err := r.content(sh, path+".diff")
			if err != nil {
				return nil, err
			}
			file.Diff = &Diff{Options: sh.options, Data: content}
		default:
			return nil, r.unexpected(sh, path)
		}
	}
}

// readCommon reads the optional preamble and meta sections that open the
// document and each change, in that order.
func (r *reader) readCommon(depth int, path string) (*Preamble, *Meta, error) {
	var (
		preamble *Preamble
		meta     *Meta
	)

	for {
		h, err := r.peek(path)
		if err != nil {
			return nil, nil, err
		}
		if h == nil || h.depth != depth {
			return preamble, meta, nil
		}

		switch {
		case h.name == "preamble" && preamble == nil && meta == nil:
			content, err := r.content(h, join(path, "preamble"))
			if err != nil {
				return nil, nil, err
			}
			preamble = &Preamble{Options: h.options, Raw: content}
			if preamble.Text, err = dedent(content, h.options); err != nil {
				return nil, nil, &Error{Line: h.line, Section: join(path, "preamble"), Reason: err.Error()}
			}
		case h.name == "meta" && meta == nil:
			if meta, err = r.readMeta(h, join(path, "meta")); err != nil {
				return nil, nil, err
			}
		default:
			return preamble, meta, nil
		}
	}
}

func (r *reader) readMeta(h *header, path string) (*Meta, error) {
	if format, ok := h.options.Get("format"); ok && format != "json" {
		return nil, &Error{Line: h.line, Section: path, Reason: fmt.Sprintf("unsupported metadata format %q", format)}
	}

	content, err := r.content(h, path)
	if err != nil {
		return nil, err
	}

	data := map[string]any{}
	if len(bytes.TrimSpace(content)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, &Error{Line: h.line, Section: path, Reason: "invalid JSON metadata: " + err.Error()}
		}
	}

	return &Meta{Options: h.options, Data: data, Raw: content}, nil
}

// peek parses the header at the current position without consuming it. It
// returns nil at the end of the data.
func (r *reader) peek(path string) (*header, error) {
	if r.pos >= len(r.data) {
		return nil, nil
	}

	rest := r.data[r.pos:]
	next := len(r.data)
	eol := ""
	if nl := bytes.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
		next = r.pos + nl + 1
		eol = "\n"
		if bytes.HasSuffix(rest, []byte{'\r'}) {
			rest = rest[:len(rest)-1]
			eol = "\r\n"
		}
	}

	h, err := parseHeader(bytes.TrimRight(rest, "\r"))
	if err != nil {
		return nil, &Error{Line: r.line, Section: path, Reason: err.Error()}
	}
	h.eol = eol
	h.line = r.line
	h.next = next
	return h, nil
}

func (r *reader) consume(h *header) {
	r.pos = h.next
	r.line = h.line + 1
}

// content consumes h and the content it announces with its length option.
func (r *reader) content(h *header, path string) ([]byte, error) {
	r.consume(h)

	value, ok := h.options.Get("length")
	if !ok {
		return nil, &Error{Line: h.line, Section: path, Reason: "missing length option"}
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return nil, &Error{Line: h.line, Section: path, Reason: fmt.Sprintf("invalid length %q", value)}
	}
	if r.pos+n > len(r.data) {
		return nil, &Error{Line: h.line, Section: path, Reason: "content is shorter than its length option"}
	}

	content := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	r.line += bytes.Count(content, []byte{'\n'})
	return content, nil
}

func (r *reader) unexpected(h *header, path string) error {
	return &Error{
		Line:    h.line,
		Section: path,
		Reason:  fmt.Sprintf("unexpected section %q", "#"+dots(h.depth)+h.name),
	}
}

func parseHeader(line []byte) (*header, error) {
	if len(line) == 0 || line[0] != '#' {
		return nil, fmt.Errorf("expected a section header")
	}

	depth := 0
	for 1+depth < len(line) && line[1+depth] == '.' {
		depth++
	}

	rest := line[1+depth:]
	colon := bytes.IndexByte(rest, ':')
	if colon <= 0 {
		return nil, fmt.Errorf("malformed section header %q", line)
	}

	options, err := parseOptions(bytes.TrimSpace(rest[colon+1:]))
	if err != nil {
		return nil, err
	}

	return &header{depth: depth, name: string(rest[:colon]), options: options}, nil
}

func parseOptions(s []byte) (Options, error) {
	if len(s) == 0 {
		return nil, nil
	}

	var options Options
	for _, part := range bytes.Split(s, []byte{','}) {
		key, value, ok := bytes.Cut(bytes.TrimSpace(part), []byte{'='})
		if !ok || len(key) == 0 {
			return nil, fmt.Errorf("malformed option %q", bytes.TrimSpace(part))
		}
		options = append(options, Option{Key: string(key), Value: string(value)})
	}
	return options, nil
}

// dedent strips the "indent" option's worth of spaces from each line.
func dedent(content []byte, options Options) ([]byte, error) {
	value, ok := options.Get("indent")
	if !ok {
		return append([]byte(nil), content...), nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid indent %q", value)
	}

	prefix := bytes.Repeat([]byte{' '}, n)
	var out bytes.Buffer
	for _, line := range bytes.SplitAfter(content, []byte{'\n'}) {
		out.Write(bytes.TrimPrefix(line, prefix))
	}
	return out.Bytes(), nil
}

func dots(n int) string {
	return string(bytes.Repeat([]byte{'.'}, n))
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
