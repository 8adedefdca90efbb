package crosscheck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JNZader/diffparse/internal/diffparser"
)

const modifyAndModeChange = "diff --git a/script.sh b/script.sh\n" +
	"old mode 100644\n" +
	"new mode 100755\n" +
	"diff --git a/main.go b/main.go\n" +
	"index 1234567..abcdef0 100644\n" +
	"--- a/main.go\n" +
	"+++ b/main.go\n" +
	"@@ -1,3 +1,4 @@\n" +
	" package main\n" +
	"+\n" +
	"+import \"fmt\"\n" +
	"-var x = 1\n" +
	" func main() {}\n"

const newFile = "diff --git a/new.go b/new.go\n" +
	"new file mode 100644\n" +
	"index 0000000..1234567\n" +
	"--- /dev/null\n" +
	"+++ b/new.go\n" +
	"@@ -0,0 +1,2 @@\n" +
	"+package main\n" +
	"+\n"

func parse(t *testing.T, data string) *diffparser.ParsedDiff {
	t.Helper()
	diff, err := diffparser.NewParser([]byte(data)).ParseDiff()
	require.NoError(t, err)
	return diff
}

func TestGitAgrees(t *testing.T) {
	for name, data := range map[string]string{"modify": modifyAndModeChange, "new": newFile} {
		t.Run(name, func(t *testing.T) {
			res, err := Git([]byte(data), parse(t, data))
			require.NoError(t, err)
			assert.True(t, res.OK(), "mismatches: %v", res.Mismatches)
			assert.Equal(t, 1, res.Compared)
		})
	}
}

func TestGitIgnoresModeOnlyChanges(t *testing.T) {
	res, err := Git([]byte(modifyAndModeChange), parse(t, modifyAndModeChange))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Ignored)
}

func TestGitReportsMismatches(t *testing.T) {
	diff := parse(t, modifyAndModeChange)
	diff.Files()[0].InsertCount = 99

	res, err := Git([]byte(modifyAndModeChange), diff)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, Mismatch{File: "main.go", Field: "insertions", Ours: "99", Theirs: "2"}, res.Mismatches[0])
}

func TestGitRejectsOtherFormats(t *testing.T) {
	data := "--- a\t1\n+++ a\t2\n@@ -1 +1 @@\n-x\n+y\n"

	_, err := Git([]byte(data), parse(t, data))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
