package telegram

import "strings"

// messageChunkLimit stays under the Bot API's 4096-char ceiling with room for
// escaping overhead.
const messageChunkLimit = 3500

// EscapeMarkdownV2 escapes every character MarkdownV2 treats as markup.
func EscapeMarkdownV2(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	for _, r := range text {
		switch r {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SplitMessage cuts text into chunks the Bot API accepts, preferring line
// boundaries near the limit.
func SplitMessage(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var chunks []string
	for len(text) > 0 {
		if len(text) <= messageChunkLimit {
			chunks = append(chunks, text)
			break
		}
		cut := messageChunkLimit
		if idx := strings.LastIndexByte(text[:cut], '\n'); idx > messageChunkLimit/2 {
			cut = idx
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}
