package diffparser

import (
	"fmt"
	"strings"
)

const unifiedSimple = "--- README\t2024-01-01 10:00:00\n" +
	"+++ README\t2024-01-02 10:00:00\n" +
	"@@ -1,2 +1,2 @@\n" +
	" hello\n" +
	"-world\n" +
	"+there\n"

// svnNewFile is an "svn diff" of an added file. The original side is
// /dev/null with a revision label after the tab.
const svnNewFile = "--- /dev/null\t(revision 0)\n" +
	"+++ foo\t(working copy)\n" +
	"@@ -0,0 +1 @@\n" +
	"+a\n"

const unifiedTwoFiles = "Some description of the change.\n" +
	"\n" +
	"--- src/a.c\t(revision 10)\n" +
	"+++ src/a.c\t(working copy)\n" +
	"@@ -1,3 +1,4 @@\n" +
	" int a;\n" +
	"+int b;\n" +
	"+int c;\n" +
	"-int d;\n" +
	"--- src/b.c  1.4\n" +
	"+++ src/b.c  1.5\n" +
	"@@ -1 +1 @@\n" +
	"-x\n" +
	"+y\n"

const contextSimple = "*** foo.c\t2024-01-01\n" +
	"--- foo.c\t2024-01-02\n" +
	"***************\n" +
	"*** 1,2 ****\n" +
	"  a\n" +
	"! b\n" +
	"--- 1,2 ----\n" +
	"  a\n" +
	"! c\n"

var svnIndexed = "Index: foo.txt\n" +
	strings.Repeat("=", 67) + "\n" +
	"--- foo.txt\t(revision 1)\n" +
	"+++ foo.txt\t(working copy)\n" +
	"@@ -1 +1 @@\n" +
	"-a\n" +
	"+b\n"

var svnBinary = "Index: image.png\n" +
	strings.Repeat("=", 67) + "\n" +
	"Cannot display: file marked as a binary type.\n" +
	"svn:mime-type = application/octet-stream\n"

const gitModify = "diff --git a/main.go b/main.go\n" +
	"index 1234567..abcdefg 100644\n" +
	"--- a/main.go\n" +
	"+++ b/main.go\n" +
	"@@ -1,5 +1,6 @@\n" +
	" package main\n" +
	"\n" +
	"+import \"fmt\"\n" +
	"+\n" +
	" func main() {\n" +
	"-    println(\"hello\")\n" +
	"+    fmt.Println(\"hello\")\n" +
	" }\n"

const gitNewFile = "diff --git a/new.go b/new.go\n" +
	"new file mode 100644\n" +
	"index 0000000..1234567\n" +
	"--- /dev/null\n" +
	"+++ b/new.go\n" +
	"@@ -0,0 +1,3 @@\n" +
	"+package main\n" +
	"+\n" +
	"+func new() {}\n"

const gitDeleted = "diff --git a/old.go b/old.go\n" +
	"deleted file mode 100644\n" +
	"index 1234567..0000000\n" +
	"--- a/old.go\n" +
	"+++ /dev/null\n" +
	"@@ -1,3 +0,0 @@\n" +
	"-package main\n" +
	"-\n" +
	"-func old() {}\n"

const gitRenameThenModify = "diff --git a/old.txt b/new.txt\n" +
	"similarity index 100%\n" +
	"rename from old.txt\n" +
	"rename to new.txt\n" +
	"diff --git a/x.txt b/x.txt\n" +
	"index 1111111..2222222 100644\n" +
	"--- a/x.txt\n" +
	"+++ b/x.txt\n" +
	"@@ -1 +1 @@\n" +
	"-x\n" +
	"+y\n"

const gitModeChangeThenModify = "diff --git a/script.sh b/script.sh\n" +
	"old mode 100644\n" +
	"new mode 100755\n" +
	"diff --git a/b.txt b/b.txt\n" +
	"index 1111111..2222222 100644\n" +
	"--- a/b.txt\n" +
	"+++ b/b.txt\n" +
	"@@ -1 +1 @@\n" +
	"-x\n" +
	"+y\n"

const gitBinary = "diff --git a/img.png b/img.png\n" +
	"index 1111111..2222222 100644\n" +
	"Binary files a/img.png and b/img.png differ\n"

const gitBinaryPatch = "diff --git a/bin.dat b/bin.dat\n" +
	"new file mode 100644\n" +
	"index 0000000000000000000000000000000000000000..e69de29bb2d1d6434b8b29ae775ad8c2e48c5391\n" +
	"GIT binary patch\n" +
	"literal 12\n" +
	"Tc${NkU|?WiU|?VnU|;|M03AmF\n" +
	"\n" +
	"literal 0\n" +
	"HcmV?d00001\n" +
	"\n" +
	"diff --git a/next.txt b/next.txt\n" +
	"index 3333333..4444444 100644\n" +
	"--- a/next.txt\n" +
	"+++ b/next.txt\n" +
	"@@ -1 +1 @@\n" +
	"-old\n" +
	"+new\n"

const gitSymlink = "diff --git a/link b/link\n" +
	"new file mode 120000\n" +
	"index 0000000..abcdef1\n" +
	"--- /dev/null\n" +
	"+++ b/link\n" +
	"@@ -0,0 +1 @@\n" +
	"+target/path\n" +
	"\\ No newline at end of file\n"

const hgNative = "# HG changeset patch\n" +
	"# User Jane Doe <jane@example.com>\n" +
	"# Node ID 6187592a72d7fa3b4e6d8bbcb5b7c206e6e9e326\n" +
	"# Parent  1b4d4d4e6c1e8d49d8c6bc7db3b8cdb5e6a4a0f6\n" +
	"Fix the readme\n" +
	"\n" +
	"diff -r 1b4d4d4e6c1e -r 6187592a72d7 readme.txt\n" +
	"--- a/readme.txt\tThu Jan 01 00:00:00 1970 +0000\n" +
	"+++ b/readme.txt\tThu Jan 01 00:00:01 1970 +0000\n" +
	"@@ -1,1 +1,1 @@\n" +
	"-old\n" +
	"+new\n"

const hgGitStyle = "# HG changeset patch\n" +
	"# Node ID bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n" +
	"# Parent  aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
	"diff --git a/foo b/foo\n" +
	"--- a/foo\n" +
	"+++ b/foo\n" +
	"@@ -1 +1 @@\n" +
	"-x\n" +
	"+y\n"

var cvsModify = "Index: foo/bar.c\n" +
	strings.Repeat("=", 67) + "\n" +
	"RCS file: /cvsroot/proj/foo/bar.c,v\n" +
	"retrieving revision 1.1\n" +
	"retrieving revision 1.2\n" +
	"diff -u -r1.1 -r1.2\n" +
	"--- foo/bar.c\t2 Jan 2010 10:00:00 -0000\t1.1\n" +
	"+++ foo/bar.c\t3 Jan 2010 10:00:00 -0000\t1.2\n" +
	"@@ -1 +1 @@\n" +
	"-a\n" +
	"+b\n"

var cvsNewFile = "Index: new.c\n" +
	strings.Repeat("=", 67) + "\n" +
	"RCS file: new.c\n" +
	"diff -N new.c\n" +
	"--- /dev/null\t1 Jan 1970 00:00:00 -0000\n" +
	"+++ new.c\t3 Jan 2010 10:00:00 -0000\n" +
	"@@ -0,0 +1 @@\n" +
	"+hi\n"

// diffxSection renders a DiffX content section header with a correct length
// option followed by its content.
func diffxSection(header, options, content string) string {
	if options != "" {
		options += ", "
	}
	return fmt.Sprintf("%s: %slength=%d\n%s", header, options, len(content), content)
}

const diffxMovedDiff = "--- a.txt\n" +
	"+++ b.txt\n" +
	"@@ -1 +1 @@\n" +
	"-x\n" +
	"+y\n"

func diffxDocument() string {
	return "#diffx: encoding=utf-8, version=1.0\n" +
		"#.change:\n" +
		diffxSection("#..preamble", "indent=4", "    Fix a bug.\n") +
		diffxSection("#..meta", "format=json", `{"id": "c2", "parent ids": ["c1"]}`+"\n") +
		"#..file:\n" +
		diffxSection("#...meta", "format=json",
			`{"path": {"old": "a.txt", "new": "b.txt"}, "op": "move-modify", `+
				`"revision": {"old": "r1", "new": "r2"}, "stats": {"insertions": 1, "deletions": 1}}`+"\n") +
		diffxSection("#...diff", "", diffxMovedDiff) +
		"#..file:\n" +
		diffxSection("#...meta", "format=json", `{"path": "new.bin", "op": "create", "type": "binary"}`+"\n") +
		diffxSection("#...diff", "type=binary", "GIT binary patch\nliteral 0\n")
}

// diffxDOSDocument uses CRLF for headers and content, as declared by
// line_endings=dos.
func diffxDOSDocument() string {
	section := func(header, options, content string) string {
		if options != "" {
			options += ", "
		}
		return fmt.Sprintf("%s: %slength=%d\r\n%s", header, options, len(content), content)
	}
	return "#diffx: encoding=utf-8, line_endings=dos, version=1.0\r\n" +
		"#.change:\r\n" +
		"#..file:\r\n" +
		section("#...meta", "format=json", `{"path": "win.txt", "op": "modify"}`+"\r\n") +
		section("#...diff", "", "--- win.txt\r\n+++ win.txt\r\n@@ -1 +1 @@\r\n-old\r\n+new\r\n")
}
