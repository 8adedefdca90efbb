package diffparser

import (
	"bytes"
	"testing"
)

func TestSplitLines(t *testing.T) {
	data := []byte("a\nb\r\nc\r\r\nd")
	lines := SplitLines(data)

	if lines.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", lines.Len())
	}

	tests := []struct {
		content string
		ending  string
	}{
		{"a", "\n"},
		{"b", "\r\n"},
		{"c", "\r\r\n"},
		{"d", ""},
	}

	for i, tt := range tests {
		if got := string(lines.At(i)); got != tt.content {
			t.Errorf("At(%d) = %q, want %q", i, got, tt.content)
		}
		if got := string(lines.Ending(i)); got != tt.ending {
			t.Errorf("Ending(%d) = %q, want %q", i, got, tt.ending)
		}
	}

	if lines.TrailingNewline() {
		t.Error("TrailingNewline() = true, want false")
	}
	if !bytes.Equal(lines.Span(0, lines.Len()), data) {
		t.Errorf("Span(0, %d) = %q, want %q", lines.Len(), lines.Span(0, lines.Len()), data)
	}
	if got := string(lines.Raw(1)); got != "b\r\n" {
		t.Errorf("Raw(1) = %q, want %q", got, "b\r\n")
	}
}

func TestSplitLinesEmpty(t *testing.T) {
	lines := SplitLines(nil)
	if lines.Len() != 0 {
		t.Errorf("Len() = %d, want 0", lines.Len())
	}
	if lines.TrailingNewline() {
		t.Error("TrailingNewline() = true for empty input")
	}
	if lines.Span(0, 0) != nil {
		t.Error("Span(0, 0) should be nil")
	}
}

func TestSplitLinesTrailingNewline(t *testing.T) {
	lines := SplitLines([]byte("one\ntwo\n"))
	if lines.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", lines.Len())
	}
	if !lines.TrailingNewline() {
		t.Error("TrailingNewline() = false, want true")
	}
}

func TestSplitLinesStripsAtMostTwoCarriageReturns(t *testing.T) {
	lines := SplitLines([]byte("x\r\r\r\n"))
	if got := string(lines.At(0)); got != "x\r" {
		t.Errorf("At(0) = %q, want %q", got, "x\r")
	}
	if got := string(lines.Ending(0)); got != "\r\r\n" {
		t.Errorf("Ending(0) = %q, want %q", got, "\r\r\n")
	}
}

func TestSplitLinesSpan(t *testing.T) {
	lines := SplitLines([]byte("1\n2\n3\n"))
	if got := string(lines.Span(1, 3)); got != "2\n3\n" {
		t.Errorf("Span(1, 3) = %q, want %q", got, "2\n3\n")
	}
	if !lines.hasPrefix(2, "3") || lines.hasPrefix(3, "3") || lines.hasPrefix(-1, "") {
		t.Error("hasPrefix() bounds check failed")
	}
}
