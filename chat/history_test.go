package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/quailyquaily/chatrelay/llm"
)

func newTestStores(capN int) (*ConfigStore, *HistoryStore) {
	cs := NewConfigStore(testDefaults())
	hs := NewHistoryStore(cs, "You are a helpful assistant.", capN)
	return cs, hs
}

func TestHistoryLazyInit(t *testing.T) {
	t.Parallel()

	_, hs := newTestStores(20)
	h := hs.History(5)
	if len(h) != 1 {
		t.Fatalf("fresh history length = %d, want 1", len(h))
	}
	if h[0].Role != llm.RoleSystem {
		t.Fatalf("entry 0 role = %q, want system", h[0].Role)
	}
	if !strings.Contains(h[0].Content, "You are a helpful assistant.") {
		t.Errorf("system entry missing base prompt: %q", h[0].Content)
	}
	if !strings.Contains(h[0].Content, ModeCasual.Instruction()) {
		t.Errorf("system entry missing mode instruction: %q", h[0].Content)
	}
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	t.Parallel()

	_, hs := newTestStores(20)
	hs.AppendUser(1, "hello")
	snap := hs.History(1)
	snap[0].Content = "clobbered"
	if got := hs.History(1)[0].Content; got == "clobbered" {
		t.Fatal("History returned an aliased slice")
	}
}

func TestHistoryCapInvariant(t *testing.T) {
	t.Parallel()

	const capN = 20
	_, hs := newTestStores(capN)
	const userID = int64(9)

	for i := 0; i < 25; i++ {
		hs.AppendUser(userID, fmt.Sprintf("question %d", i))
		hs.AppendAssistant(userID, fmt.Sprintf("answer %d", i))
		if n := hs.Len(userID); n > capN {
			t.Fatalf("after turn %d history length %d exceeds cap %d", i, n, capN)
		}
	}

	h := hs.History(userID)
	if len(h) != capN {
		t.Fatalf("final length = %d, want %d", len(h), capN)
	}
	if h[0].Role != llm.RoleSystem {
		t.Fatalf("entry 0 role = %q, want system after trimming", h[0].Role)
	}
	// The newest exchange survives, the oldest is gone.
	if got := h[len(h)-1].Content; got != "answer 24" {
		t.Errorf("last entry = %q, want the newest answer", got)
	}
	for _, m := range h {
		if m.Content == "question 0" {
			t.Error("oldest entry survived trimming")
		}
	}
}

func TestHistoryReset(t *testing.T) {
	t.Parallel()

	_, hs := newTestStores(20)
	hs.AppendUser(3, "a")
	hs.AppendAssistant(3, "b")
	hs.Reset(3)
	h := hs.History(3)
	if len(h) != 1 || h[0].Role != llm.RoleSystem {
		t.Fatalf("after reset: %+v, want single system entry", h)
	}
}

func TestModeChangePropagatesToSystemEntry(t *testing.T) {
	t.Parallel()

	cs, hs := newTestStores(20)
	const userID = int64(11)

	hs.AppendUser(userID, "hi")
	cs.Update(userID, func(c *Config) { c.Mode = ModeAcademic })
	hs.RefreshSystemPrompt(userID)

	h := hs.History(userID)
	if !strings.Contains(h[0].Content, ModeAcademic.Instruction()) {
		t.Errorf("system entry not refreshed: %q", h[0].Content)
	}
	// The user turn is untouched.
	if h[1].Content != "hi" {
		t.Errorf("user entry changed: %q", h[1].Content)
	}
}

func TestRefreshSystemPromptNoHistory(t *testing.T) {
	t.Parallel()

	cs, hs := newTestStores(20)
	cs.Update(2, func(c *Config) { c.Mode = ModeFormal })
	hs.RefreshSystemPrompt(2) // must not create a history
	if hs.ActiveUsers() != 0 {
		t.Fatal("RefreshSystemPrompt initialized a history")
	}
	// Lazy init afterwards sees the new mode.
	h := hs.History(2)
	if !strings.Contains(h[0].Content, ModeFormal.Instruction()) {
		t.Errorf("lazy init ignored current mode: %q", h[0].Content)
	}
}

func TestUserMessageCount(t *testing.T) {
	t.Parallel()

	_, hs := newTestStores(20)
	hs.AppendUser(4, "one")
	hs.AppendAssistant(4, "r1")
	hs.AppendUser(4, "two")
	if got := hs.UserMessageCount(4); got != 2 {
		t.Fatalf("UserMessageCount = %d, want 2", got)
	}
}

func TestTrim(t *testing.T) {
	t.Parallel()

	sys := llm.Message{Role: llm.RoleSystem, Content: "sys"}
	mk := func(n int) []llm.Message {
		out := []llm.Message{sys}
		for i := 0; i < n; i++ {
			out = append(out, llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("m%d", i)})
		}
		return out
	}

	tests := []struct {
		name  string
		in    []llm.Message
		cap   int
		want  int
		first string
		last  string
	}{
		{name: "empty", in: nil, cap: 5, want: 0},
		{name: "under_cap", in: mk(2), cap: 5, want: 3, first: "sys", last: "m1"},
		{name: "at_cap", in: mk(4), cap: 5, want: 5, first: "sys", last: "m3"},
		{name: "over_cap", in: mk(10), cap: 5, want: 5, first: "sys", last: "m9"},
		{name: "no_system_entry", in: mk(10)[1:], cap: 4, want: 4, first: "m6", last: "m9"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Trim(tt.in, tt.cap)
			if len(got) != tt.want {
				t.Fatalf("length = %d, want %d", len(got), tt.want)
			}
			if tt.want == 0 {
				return
			}
			if got[0].Content != tt.first {
				t.Errorf("first = %q, want %q", got[0].Content, tt.first)
			}
			if got[len(got)-1].Content != tt.last {
				t.Errorf("last = %q, want %q", got[len(got)-1].Content, tt.last)
			}
		})
	}
}

func TestTrimKeepsSystemEntryWhenOverCap(t *testing.T) {
	t.Parallel()

	in := []llm.Message{{Role: llm.RoleSystem, Content: "sys"}}
	for i := 0; i < 30; i++ {
		in = append(in, llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}
	got := Trim(in, 10)
	if got[0].Role != llm.RoleSystem {
		t.Fatal("system entry evicted")
	}
	// The tail is the most recent 9 entries, contiguous and in order.
	for i, m := range got[1:] {
		want := fmt.Sprintf("m%d", 21+i)
		if m.Content != want {
			t.Fatalf("entry %d = %q, want %q", i+1, m.Content, want)
		}
	}
}
