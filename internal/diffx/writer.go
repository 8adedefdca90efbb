package diffx

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Write encodes doc. Content sections get a "length" option matching the
// content written; all other options are kept in order.
func Write(doc *Document) []byte {
	w := &writer{eol: doc.headerEOL()}

	options := doc.Options
	if len(options) == 0 {
		options = Options{{Key: "version", Value: "1.0"}}
	}
	w.header(0, "diffx", options)
	w.preamble(1, doc.Preamble)
	w.meta(1, doc.Meta)

	for _, change := range doc.Changes {
		w.header(1, "change", change.Options)
		w.preamble(2, change.Preamble)
		w.meta(2, change.Meta)

		for _, file := range change.Files {
			w.header(2, "file", file.Options)
			w.meta(3, file.Meta)
			if file.Diff != nil {
				w.content(3, "diff", file.Diff.Options, file.Diff.Data)
			}
		}
	}

	return w.buf.Bytes()
}

type writer struct {
	buf bytes.Buffer
	eol string
}

func (w *writer) header(depth int, name string, options Options) {
	w.buf.WriteByte('#')
	w.buf.WriteString(dots(depth))
	w.buf.WriteString(name)
	w.buf.WriteByte(':')
	if len(options) > 0 {
		w.buf.WriteByte(' ')
		w.buf.WriteString(options.String())
	}
	w.buf.WriteString(w.eol)
}

func (w *writer) content(depth int, name string, options Options, content []byte) {
	w.header(depth, name, options.Set("length", strconv.Itoa(len(content))))
	w.buf.Write(content)
}

func (w *writer) preamble(depth int, p *Preamble) {
	if p == nil {
		return
	}

	content := p.Raw
	if content == nil {
		content = indent(p.Text, p.Options)
	}
	w.content(depth, "preamble", p.Options, content)
}

func (w *writer) meta(depth int, m *Meta) {
	if m == nil {
		return
	}

	options := m.Options
	content := m.Raw
	if content == nil {
		content = EncodeMeta(m.Data)
		if _, ok := options.Get("format"); !ok {
			options = Options{{Key: "format", Value: "json"}}.concat(options)
		}
	}
	w.content(depth, "meta", options, content)
}

// EncodeMeta renders metadata the way DiffX writers do: indented JSON with
// sorted keys and a trailing newline.
func EncodeMeta(data map[string]any) []byte {
	if data == nil {
		data = map[string]any{}
	}
	out, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		// Data decoded from JSON or built from strings and numbers always
		// encodes.
		return []byte("{}\n")
	}
	return append(out, '\n')
}

func indent(text []byte, options Options) []byte {
	value, ok := options.Get("indent")
	if !ok {
		return text
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return text
	}

	prefix := bytes.Repeat([]byte{' '}, n)
	var out bytes.Buffer
	for _, line := range bytes.SplitAfter(text, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		out.Write(prefix)
		out.Write(line)
	}
	return out.Bytes()
}

func (o Options) concat(other Options) Options {
	return append(append(Options(nil), o...), other...)
}
