package chat

import (
	"sync"

	"github.com/quailyquaily/chatrelay/llm"
)

// HistoryStore keeps one ordered message sequence per user. Entry 0 is always
// the system entry, derived from the base prompt plus the user's current
// response mode. Length is bounded: when a history exceeds the cap, the
// system entry plus the most recent cap-1 entries are retained.
//
// The store's lock only guards map access and snapshotting. Turn-level
// serialization (append user, call upstream, append reply) is provided by the
// per-chat worker goroutines in the dispatcher, so two turns for the same
// user never interleave.
type HistoryStore struct {
	mu         sync.RWMutex
	configs    *ConfigStore
	basePrompt string
	cap        int
	histories  map[int64][]llm.Message
}

func NewHistoryStore(configs *ConfigStore, basePrompt string, cap int) *HistoryStore {
	if cap < 2 {
		cap = 2
	}
	return &HistoryStore{
		configs:    configs,
		basePrompt: basePrompt,
		cap:        cap,
		histories:  make(map[int64][]llm.Message),
	}
}

// Cap returns the configured history length bound.
func (s *HistoryStore) Cap() int {
	return s.cap
}

func (s *HistoryStore) systemEntry(userID int64) llm.Message {
	mode := s.configs.Get(userID).Mode
	content := s.basePrompt
	if content != "" {
		content += " "
	}
	content += mode.Instruction()
	return llm.Message{Role: llm.RoleSystem, Content: content}
}

// History returns a snapshot of the user's history, lazily initializing it
// with a single system entry.
func (s *HistoryStore) History(userID int64) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[userID]
	if !ok {
		h = []llm.Message{s.systemEntry(userID)}
		s.histories[userID] = h
	}
	out := make([]llm.Message, len(h))
	copy(out, h)
	return out
}

// AppendUser appends a user turn and trims.
func (s *HistoryStore) AppendUser(userID int64, text string) {
	s.append(userID, llm.Message{Role: llm.RoleUser, Content: text})
}

// AppendAssistant appends an assistant turn and trims.
func (s *HistoryStore) AppendAssistant(userID int64, text string) {
	s.append(userID, llm.Message{Role: llm.RoleAssistant, Content: text})
}

func (s *HistoryStore) append(userID int64, msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[userID]
	if !ok {
		h = []llm.Message{s.systemEntry(userID)}
	}
	h = append(h, msg)
	s.histories[userID] = Trim(h, s.cap)
}

// Reset replaces the user's history with a fresh single system entry.
func (s *HistoryStore) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[userID] = []llm.Message{s.systemEntry(userID)}
}

// RefreshSystemPrompt recomputes the system entry from the user's current
// mode. It is a no-op when the user has no history yet; lazy initialization
// picks up the current mode anyway.
func (s *HistoryStore) RefreshSystemPrompt(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[userID]
	if !ok || len(h) == 0 {
		return
	}
	if h[0].Role == llm.RoleSystem {
		h[0] = s.systemEntry(userID)
	}
}

// UserMessageCount reports how many user-role entries the history holds.
func (s *HistoryStore) UserMessageCount(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.histories[userID] {
		if m.Role == llm.RoleUser {
			n++
		}
	}
	return n
}

// Len reports the current history length for the user (0 when uninitialized).
func (s *HistoryStore) Len(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories[userID])
}

// ActiveUsers reports how many users have a live history. The count is a
// snapshot; approximate values are acceptable for stats.
func (s *HistoryStore) ActiveUsers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories)
}

// Trim enforces the history cap: the leading system entry (when present) is
// never evicted, the oldest non-system entries go first. Pure function of its
// input; the returned slice is the input when already within bounds.
func Trim(history []llm.Message, cap int) []llm.Message {
	if len(history) <= cap || len(history) == 0 {
		return history
	}
	if history[0].Role != llm.RoleSystem {
		return history[len(history)-cap:]
	}
	out := make([]llm.Message, 0, cap)
	out = append(out, history[0])
	out = append(out, history[len(history)-(cap-1):]...)
	return out
}
