package diffparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitModify(t *testing.T) {
	diff := parseWith(t, gitModify)
	assert.Equal(t, FormatGit, diff.Format)

	files := diff.Files()
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, "main.go", string(f.OrigFilename))
	assert.Equal(t, "main.go", string(f.ModifiedFilename))
	assert.Equal(t, "1234567", f.OrigFileDetails.String())
	assert.Equal(t, "abcdefg", f.ModifiedFileDetails.String())
	assert.Equal(t, "100644", f.OldUnixMode)
	assert.Equal(t, "100644", f.NewUnixMode)
	assert.Equal(t, 3, f.InsertCount)
	assert.Equal(t, 1, f.DeleteCount)
	assert.False(t, f.IsSymlink)
}

func TestGitNewFile(t *testing.T) {
	files := parseWith(t, gitNewFile).Files()
	require.Len(t, files, 1)

	f := files[0]
	assert.True(t, f.OrigFileDetails.IsPreCreation())
	assert.Equal(t, "1234567", f.ModifiedFileDetails.String())
	assert.Equal(t, "new.go", string(f.ModifiedFilename))
	assert.Equal(t, "100644", f.NewUnixMode)
	assert.Empty(t, f.OldUnixMode)
	assert.Equal(t, 3, f.InsertCount)
	assert.Zero(t, f.DeleteCount)
}

func TestGitDeletedFile(t *testing.T) {
	files := parseWith(t, gitDeleted).Files()
	require.Len(t, files, 1)

	f := files[0]
	assert.True(t, f.Deleted)
	assert.Equal(t, "100644", f.OldUnixMode)
	assert.Equal(t, "old.go", string(f.OrigFilename))
	assert.Equal(t, 3, f.DeleteCount)
}

func TestGitRenameWithoutContent(t *testing.T) {
	files := parseWith(t, gitRenameThenModify).Files()
	require.Len(t, files, 2)

	moved := files[0]
	assert.True(t, moved.Moved)
	assert.False(t, moved.Copied)
	assert.Equal(t, "old.txt", string(moved.OrigFilename))
	assert.Equal(t, "new.txt", string(moved.ModifiedFilename))
	assert.True(t, moved.OrigFileDetails.IsUnknown())
	assert.True(t, moved.ModifiedFileDetails.IsUnknown())
	assert.Zero(t, moved.InsertCount)

	assert.Equal(t, "x.txt", string(files[1].OrigFilename))
	assert.Equal(t, 1, files[1].InsertCount)
}

func TestGitCopy(t *testing.T) {
	data := "diff --git a/a.txt b/c.txt\n" +
		"similarity index 90%\n" +
		"copy from a.txt\n" +
		"copy to c.txt\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/a.txt\n" +
		"+++ b/c.txt\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+c\n"

	files := parseWith(t, data).Files()
	require.Len(t, files, 1)
	assert.True(t, files[0].Copied)
	assert.False(t, files[0].Moved)
	assert.Equal(t, "a.txt", string(files[0].OrigFilename))
	assert.Equal(t, "c.txt", string(files[0].ModifiedFilename))
}

func TestGitModeChangeOnlyIsSkipped(t *testing.T) {
	files := parseWith(t, gitModeChangeThenModify).Files()
	require.Len(t, files, 1)
	assert.Equal(t, "b.txt", string(files[0].ModifiedFilename))

	data, err := files[0].Data()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "script.sh")
}

func TestGitModeChangeOnlyAtEnd(t *testing.T) {
	data := "diff --git a/script.sh b/script.sh\nold mode 100644\nnew mode 100755\n"

	diff := parseWith(t, data)
	assert.Empty(t, diff.Files())
}

func TestGitBinary(t *testing.T) {
	files := parseWith(t, gitBinary).Files()
	require.Len(t, files, 1)
	assert.True(t, files[0].Binary)
	assert.Equal(t, "img.png", string(files[0].OrigFilename))
	assert.Zero(t, files[0].InsertCount)
	assert.Zero(t, files[0].DeleteCount)
}

func TestGitBinaryPatchPayloadStaysWithFile(t *testing.T) {
	files := parseWith(t, gitBinaryPatch).Files()
	require.Len(t, files, 2)

	bin := files[0]
	assert.True(t, bin.Binary)
	assert.True(t, bin.OrigFileDetails.IsPreCreation())
	assert.Zero(t, bin.InsertCount)
	assert.Zero(t, bin.DeleteCount)

	data, err := bin.Data()
	require.NoError(t, err)
	assert.Contains(t, string(data), "HcmV?d00001")

	assert.Equal(t, "next.txt", string(files[1].ModifiedFilename))
	assert.Equal(t, 1, files[1].InsertCount)
	assert.Equal(t, 1, files[1].DeleteCount)
}

func TestGitSymlink(t *testing.T) {
	files := parseWith(t, gitSymlink).Files()
	require.Len(t, files, 1)

	f := files[0]
	assert.True(t, f.IsSymlink)
	assert.Equal(t, "target/path", string(f.NewSymlinkTarget))
	assert.Nil(t, f.OldSymlinkTarget)
	assert.Equal(t, "120000", f.NewUnixMode)
}

func TestGitNotAGitDiff(t *testing.T) {
	_, err := NewParser([]byte("hello world\n"), WithFormat(FormatGit)).ParseDiff()

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "This does not appear to be a git diff", perr.Reason)
	assert.Equal(t, 0, perr.Line)
}

func TestGitEmptyInputIsNotAnError(t *testing.T) {
	diff := parseWith(t, "", WithFormat(FormatGit))
	assert.Empty(t, diff.Files())
}

func TestGitAmbiguousFilenames(t *testing.T) {
	data := "diff --git foo bar baz\n" +
		"index 1111111..2222222 100644\n" +
		"--- foo bar\n" +
		"+++ baz\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+b\n"

	_, err := NewParser([]byte(data)).ParseDiff()

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.Line)
	assert.Contains(t, perr.Reason, `"diff --git" line`)
}

func TestGitMidFileHeadersAreNotCounted(t *testing.T) {
	data := "diff --git a/f b/f\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/f\n" +
		"+++ b/f\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+b\n" +
		"--- a/f\n" +
		"+++ b/f\n" +
		"@@ -10 +10 @@\n" +
		"-c\n" +
		"+d\n"

	files := parseWith(t, data).Files()
	require.Len(t, files, 1)
	assert.Equal(t, 2, files[0].InsertCount)
	assert.Equal(t, 2, files[0].DeleteCount)
}

func TestParseDiffGitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		orig string
		mod  string
		ok   bool
	}{
		{"prefixed", "diff --git a/foo.c b/foo.c", "foo.c", "foo.c", true},
		{"renamed", "diff --git a/foo.c b/bar.c", "foo.c", "bar.c", true},
		{"no prefix", "diff --git foo.c foo.c", "foo.c", "foo.c", true},
		{"spaces with prefix", "diff --git a/my file.txt b/my file.txt", "my file.txt", "my file.txt", true},
		{"spaces without prefix", "diff --git my file my file", "my file", "my file", true},
		{"quoted", `diff --git "a/sp ace.txt" "b/sp ace.txt"`, "sp ace.txt", "sp ace.txt", true},
		{"quoted escapes", `diff --git "a/t\303\251st" "b/t\303\251st"`, "t\xc3\xa9st", "t\xc3\xa9st", true},
		{"quoted second only", `diff --git a/plain "b/quo ted"`, "plain", "quo ted", true},
		{"trailing tab", "diff --git a/foo.c b/foo.c\t", "foo.c", "foo.c", true},
		{"ambiguous", "diff --git foo bar baz", "", "", false},
		{"too short", "diff --git a", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig, mod, ok := parseDiffGitLine([]byte(tt.line))
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.orig, string(orig))
			assert.Equal(t, tt.mod, string(mod))
		})
	}
}

func TestGitNormalizeFilename(t *testing.T) {
	p := NewParser(nil, WithFormat(FormatGit))

	assert.Equal(t, "foo", string(p.NormalizeDiffFilename([]byte("a/foo"))))
	assert.Equal(t, "foo", string(p.NormalizeDiffFilename([]byte("b/foo"))))
	assert.Equal(t, "foo", string(p.NormalizeDiffFilename([]byte("/foo"))))
	assert.Equal(t, "c/foo", string(p.NormalizeDiffFilename([]byte("c/foo"))))
}
