package diffparser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/JNZader/diffparse/internal/diffx"
)

// DiffXExtraKey is the Extra key under which DiffX section data is kept at
// each level: *diffx.Document on ParsedDiff, *diffx.Change on
// ParsedDiffChange and *diffx.File on ParsedDiffFile. Child sections are
// not included; RawDiff rebuilds them from the model.
const DiffXExtraKey = "diffx"

func (p *Parser) parseDiffX() (*ParsedDiff, error) {
	doc, err := diffx.Read(p.data)
	if err != nil {
		var de *diffx.Error
		if errors.As(err, &de) {
			return nil, &ParseError{Line: de.Line, Location: de.Section, Reason: de.Reason}
		}
		return nil, err
	}

	diff := newParsedDiff(FormatDiffX, p.opts.commitIDs)
	diff.Extra[DiffXExtraKey] = &diffx.Document{
		Options:    doc.Options,
		Preamble:   doc.Preamble,
		Meta:       doc.Meta,
		LineEnding: doc.LineEnding,
	}

	for ci, dc := range doc.Changes {
		change := diff.NewChange()
		change.Extra[DiffXExtraKey] = &diffx.Change{
			Options:  dc.Options,
			Preamble: dc.Preamble,
			Meta:     dc.Meta,
		}

		if dc.Meta != nil {
			if id, ok := dc.Meta.Data["id"].(string); ok {
				change.CommitID = []byte(id)
			}
			if ids, ok := dc.Meta.Data["parent ids"].([]any); ok && len(ids) > 0 {
				if id, ok := ids[0].(string); ok {
					change.ParentCommitID = []byte(id)
				}
			}
		}

		for fi, df := range dc.Files {
			f, err := buildDiffXFile(change, df, fmt.Sprintf("change %d, file %d", ci+1, fi+1))
			if err != nil {
				return nil, err
			}
			change.AddFile(f)
			p.opts.log.Debug("accepted file %q in change %d", f.ModifiedFilename, ci)
		}
	}

	return diff, nil
}

func buildDiffXFile(change *ParsedDiffChange, df *diffx.File, location string) (*ParsedDiffFile, error) {
	fail := func(reason string) error {
		return &ParseError{Line: -1, Location: location, Reason: reason}
	}

	meta := map[string]any{}
	if df.Meta != nil {
		meta = df.Meta.Data
	}

	f := change.NewFile()
	info := &diffx.File{Options: df.Options, Meta: df.Meta}
	if df.Diff != nil {
		info.Diff = &diffx.Diff{Options: df.Diff.Options}
	}
	f.Extra[DiffXExtraKey] = info

	op, _ := meta["op"].(string)
	if op == "" {
		op = "modify"
	}

	switch path := meta["path"].(type) {
	case string:
		f.OrigFilename = []byte(path)
		f.ModifiedFilename = []byte(path)
	case map[string]any:
		oldPath, ok := path["old"].(string)
		if !ok {
			return nil, fail(`Missing the "path.old" key`)
		}
		newPath, ok := path["new"].(string)
		if !ok {
			return nil, fail(`Missing the "path.new" key`)
		}
		f.OrigFilename = []byte(oldPath)
		f.ModifiedFilename = []byte(newPath)
	case nil:
		return nil, fail(`Missing the "path" key`)
	default:
		return nil, fail(`The "path" key must be a string or a dictionary`)
	}

	revision, _ := meta["revision"].(map[string]any)
	if old, ok := revision["old"].(string); ok {
		f.OrigFileDetails = Rev([]byte(old))
	} else if op == "create" {
		f.OrigFileDetails = PreCreation
	} else {
		f.OrigFileDetails = Unknown
	}
	if newRev, ok := revision["new"].(string); ok {
		f.ModifiedFileDetails = Rev([]byte(newRev))
	} else {
		f.ModifiedFileDetails = Head
	}

	switch op {
	case "move", "move-modify":
		f.Moved = true
	case "copy", "copy-modify":
		f.Copied = true
	case "delete":
		f.Deleted = true
	}

	fileType, _ := meta["type"].(string)
	f.Binary = fileType == "binary"
	if df.Diff != nil {
		if t, ok := df.Diff.Options.Get("type"); ok && t == "binary" {
			f.Binary = true
		}
	}

	if fileType == "symlink" {
		f.IsSymlink = true
		oldTarget, newTarget := sidedValue(meta["symlink target"], op)
		if oldTarget != "" {
			f.OldSymlinkTarget = []byte(oldTarget)
		}
		if newTarget != "" {
			f.NewSymlinkTarget = []byte(newTarget)
		}
	}
	f.OldUnixMode, f.NewUnixMode = sidedValue(meta["unix file mode"], op)

	var data []byte
	if df.Diff != nil {
		data = df.Diff.Data
	}

	if !f.Binary {
		stats, _ := meta["stats"].(map[string]any)
		insertions, okIns := asInt(stats["insertions"])
		deletions, okDel := asInt(stats["deletions"])
		if !okIns || !okDel {
			insertions, deletions = countDiffLines(data)
		}
		f.InsertCount, f.DeleteCount = insertions, deletions
	}

	f.append(data)
	f.Finalize()
	return f, nil
}

// sidedValue reads an option that is either a single value or an
// {"old", "new"} pair. A single value applies to the side that exists: the
// new side for created files, the old side for deleted ones, both
// otherwise.
func sidedValue(v any, op string) (string, string) {
	switch v := v.(type) {
	case map[string]any:
		return scalarString(v["old"]), scalarString(v["new"])
	case nil:
		return "", ""
	}

	s := scalarString(v)
	switch op {
	case "create":
		return "", s
	case "delete":
		return s, ""
	default:
		return s, s
	}
}

func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func asInt(v any) (int, bool) {
	switch v := v.(type) {
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// countDiffLines counts "+" and "-" lines, ignoring "--- "/"+++ " file
// headers.
func countDiffLines(data []byte) (int, int) {
	lines := SplitLines(data)
	insertions, deletions := 0, 0

	for i := 0; i < lines.Len(); i++ {
		if isUnifiedPair(lines, i) {
			i++
			continue
		}
		line := lines.At(i)
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case '+':
			insertions++
		case '-':
			deletions++
		}
	}

	return insertions, deletions
}

func (p *Parser) rawDiffX(diff *ParsedDiff, changes []*ParsedDiffChange) ([]byte, error) {
	doc := &diffx.Document{}
	if diff != nil {
		if main, ok := diff.Extra[DiffXExtraKey].(*diffx.Document); ok {
			doc.Options = main.Options
			doc.Preamble = main.Preamble
			doc.Meta = main.Meta
			doc.LineEnding = main.LineEnding
		}
	}

	for _, c := range changes {
		dc, err := diffXChange(c, c.Files)
		if err != nil {
			return nil, err
		}
		doc.Changes = append(doc.Changes, dc)
	}

	return diffx.Write(doc), nil
}

// rawDiffXFiles writes files grouped under the changes that own them.
func (p *Parser) rawDiffXFiles(files []*ParsedDiffFile) ([]byte, error) {
	var (
		order  []int
		groups = map[int][]*ParsedDiffFile{}
	)
	for _, f := range files {
		if _, seen := groups[f.ChangeIndex]; !seen {
			order = append(order, f.ChangeIndex)
		}
		groups[f.ChangeIndex] = append(groups[f.ChangeIndex], f)
	}

	doc := &diffx.Document{}
	if p.parsed != nil {
		if main, ok := p.parsed.Extra[DiffXExtraKey].(*diffx.Document); ok {
			doc.Options = main.Options
			doc.Preamble = main.Preamble
			doc.Meta = main.Meta
			doc.LineEnding = main.LineEnding
		}
	}

	for _, idx := range order {
		var change *ParsedDiffChange
		if p.parsed != nil {
			change = p.parsed.Change(idx)
		}
		if change == nil {
			change = &ParsedDiffChange{Index: idx}
		}

		dc, err := diffXChange(change, groups[idx])
		if err != nil {
			return nil, err
		}
		doc.Changes = append(doc.Changes, dc)
	}

	return diffx.Write(doc), nil
}

func diffXChange(c *ParsedDiffChange, files []*ParsedDiffFile) (*diffx.Change, error) {
	out := &diffx.Change{}
	if info, ok := c.Extra[DiffXExtraKey].(*diffx.Change); ok {
		out.Options = info.Options
		out.Preamble = info.Preamble
		out.Meta = info.Meta
	} else if c.CommitID != nil || c.ParentCommitID != nil {
		data := map[string]any{}
		if c.CommitID != nil {
			data["id"] = string(c.CommitID)
		}
		if c.ParentCommitID != nil {
			data["parent ids"] = []any{string(c.ParentCommitID)}
		}
		out.Meta = &diffx.Meta{Options: diffx.Options{{Key: "format", Value: "json"}}, Data: data}
	}

	for _, f := range files {
		df, err := diffXFile(f)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, df)
	}
	return out, nil
}

func diffXFile(f *ParsedDiffFile) (*diffx.File, error) {
	data, err := f.Data()
	if err != nil {
		return nil, err
	}

	out := &diffx.File{}
	info, ok := f.Extra[DiffXExtraKey].(*diffx.File)
	if !ok {
		out.Meta = &diffx.Meta{
			Options: diffx.Options{{Key: "format", Value: "json"}},
			Data:    fileMeta(f),
		}
		out.Diff = &diffx.Diff{Data: data}
		return out, nil
	}

	out.Options = info.Options
	out.Meta = info.Meta
	if info.Diff != nil || len(data) > 0 {
		var diffOptions diffx.Options
		if info.Diff != nil {
			diffOptions = info.Diff.Options
		}
		out.Diff = &diffx.Diff{Options: diffOptions, Data: data}
	}
	return out, nil
}

// fileMeta describes f as DiffX file metadata, for files that were not read
// from a DiffX container.
func fileMeta(f *ParsedDiffFile) map[string]any {
	meta := map[string]any{}

	if bytes.Equal(f.OrigFilename, f.ModifiedFilename) {
		meta["path"] = string(f.ModifiedFilename)
	} else {
		meta["path"] = map[string]any{
			"old": string(f.OrigFilename),
			"new": string(f.ModifiedFilename),
		}
	}

	revision := map[string]any{}
	if tok := f.OrigFileDetails.Token(); tok != nil {
		revision["old"] = string(tok)
	}
	if tok := f.ModifiedFileDetails.Token(); tok != nil {
		revision["new"] = string(tok)
	}
	if len(revision) > 0 {
		meta["revision"] = revision
	}

	switch {
	case f.Deleted:
		meta["op"] = "delete"
	case f.Moved:
		meta["op"] = "move-modify"
	case f.Copied:
		meta["op"] = "copy-modify"
	case f.OrigFileDetails.IsPreCreation():
		meta["op"] = "create"
	}

	switch {
	case f.Binary:
		meta["type"] = "binary"
	case f.IsSymlink:
		meta["type"] = "symlink"
		meta["symlink target"] = map[string]any{
			"old": string(f.OldSymlinkTarget),
			"new": string(f.NewSymlinkTarget),
		}
	}

	if f.OldUnixMode != "" || f.NewUnixMode != "" {
		meta["unix file mode"] = map[string]any{"old": f.OldUnixMode, "new": f.NewUnixMode}
	}

	if !f.Binary {
		meta["stats"] = map[string]any{
			"insertions": f.InsertCount,
			"deletions":  f.DeleteCount,
		}
	}

	return meta
}
