package telegram

import (
	"strings"
	"testing"
)

func TestEscapeMarkdownV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello world", want: "hello world"},
		{name: "underscore_star", in: "a_b*c", want: `a\_b\*c`},
		{name: "punctuation", in: "Done. Really!", want: `Done\. Really\!`},
		{name: "brackets", in: "[x](y)", want: `\[x\]\(y\)`},
		{name: "backslash", in: `a\b`, want: `a\\b`},
		{name: "blank_untouched", in: "   ", want: "   "},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := EscapeMarkdownV2(tt.in); got != tt.want {
				t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitMessageShort(t *testing.T) {
	t.Parallel()

	if got := SplitMessage(""); got != nil {
		t.Errorf("SplitMessage(\"\") = %v, want nil", got)
	}
	got := SplitMessage("  hi  ")
	if len(got) != 1 || got[0] != "hi" {
		t.Errorf("got %v, want trimmed single chunk", got)
	}
}

func TestSplitMessageLong(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("x", 80)
	text := strings.TrimSpace(strings.Repeat(line+"\n", 100)) // 8099 chars

	chunks := SplitMessage(text)
	if len(chunks) < 2 {
		t.Fatalf("%d chunks, want at least 2", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > messageChunkLimit {
			t.Errorf("chunk %d length %d exceeds limit %d", i, len(c), messageChunkLimit)
		}
		if c != strings.TrimSpace(c) {
			t.Errorf("chunk %d has ragged whitespace", i)
		}
	}
	// Chunks prefer line boundaries: no chunk splits a line of x's.
	for i, c := range chunks {
		for _, l := range strings.Split(c, "\n") {
			if len(l) != 80 {
				t.Errorf("chunk %d contains a split line of length %d", i, len(l))
			}
		}
	}
	if strings.Join(chunks, "\n") != text {
		t.Error("chunks do not reassemble the original text")
	}
}
