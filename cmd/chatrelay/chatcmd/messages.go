package chatcmd

import (
	"fmt"
	"strings"

	"github.com/quailyquaily/chatrelay/chat"
	"github.com/quailyquaily/chatrelay/document"
	"github.com/quailyquaily/chatrelay/providers/openai"
)

// User-facing reply texts. One place so the failure-kind mapping stays
// reviewable next to the taxonomy.

const (
	msgEmptyCompletion = "The model returned no text. Try rephrasing your question."

	msgRateLimited = "Usage limit reached. Wait a few seconds before sending another message."
	msgConnection  = "Temporary connectivity problem reaching the model. Try again in a moment."
	msgContextTooLong = "The conversation grew too long, so I cleared the history. Please repeat your question."
	msgUpstreamAuth   = "The bot is misconfigured. Contact the administrator."
	msgContentPolicy  = "Your message was rejected by the content policy. Try rephrasing your request."
	msgGenericFailure = "Unexpected problem generating a response. Try again, or use /reset to start over."

	msgReset = "Chat reset. The conversation context was cleared."

	msgFreeChat = "Free chat is on. Write anything and I will answer with context.\nUse Reset Chat to start over."
)

func msgUnauthorized(userID int64) string {
	return fmt.Sprintf("Not authorized. Your user id is %d. Contact the administrator for access.", userID)
}

func msgGreeting(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello %s! I am a chat assistant backed by OpenAI.\n"+
		"Use the buttons below or just start typing.", name)
}

func msgConfigCorrected(validation string) string {
	return "Configuration corrected: " + validation + "\nDefaults were applied."
}

// completionFailureMessage maps a classified completion failure to the reply
// the user sees. History mutation (the context-too-long reset) is the
// caller's job.
func completionFailureMessage(kind openai.FailureKind) string {
	switch kind {
	case openai.FailureRateLimited:
		return msgRateLimited
	case openai.FailureConnection, openai.FailureTimeout:
		return msgConnection
	case openai.FailureContextTooLong:
		return msgContextTooLong
	case openai.FailureAuth:
		return msgUpstreamAuth
	case openai.FailureContentPolicy:
		return msgContentPolicy
	default:
		return msgGenericFailure
	}
}

func msgHelp(cfg chat.Config) string {
	var b strings.Builder
	b.WriteString("chatrelay — chat with OpenAI from Telegram\n\n")
	b.WriteString("Buttons:\n")
	b.WriteString("- Help: this overview\n")
	b.WriteString("- Stats: your usage and context size\n")
	b.WriteString("- Reset Chat: clear the conversation\n")
	b.WriteString("- Response Mode: answer style\n")
	b.WriteString("- Settings: temperature, model, tokens\n\n")
	b.WriteString("Commands:\n")
	b.WriteString("- /config temperature 0.8\n")
	b.WriteString("- /config model gpt-4o\n")
	b.WriteString("- /config tokens 500\n\n")
	b.WriteString(renderConfig(cfg))
	return b.String()
}

func renderConfig(cfg chat.Config) string {
	return fmt.Sprintf("Current configuration:\n- mode: %s\n- model: %s\n- temperature: %g\n- max tokens: %d",
		string(cfg.Mode), cfg.Model, cfg.Temperature, cfg.MaxTokens)
}

func msgConfigUsage(cfg chat.Config) string {
	return renderConfig(cfg) + fmt.Sprintf("\n\nChange with:\n"+
		"/config temperature <%.1f-%.1f>\n"+
		"/config model <%s>\n"+
		"/config tokens <%d-%d>",
		chat.TemperatureMin, chat.TemperatureMax,
		strings.Join(chat.AllowedModels, "|"),
		chat.MaxTokensMin, chat.MaxTokensMax)
}

func msgStats(userMessages, contextLen, activeUsers int, defaultModel string) string {
	return fmt.Sprintf("Stats\n\nYour session:\n- messages sent: %d\n- context size: %d entries\n\nGlobal:\n- active users: %d\n- default model: %s",
		userMessages, contextLen, activeUsers, defaultModel)
}

func msgUnsupportedDocument() string {
	return "Unsupported document format. Supported: " + document.SupportedFormats()
}

func msgDocumentTooLarge() string {
	return fmt.Sprintf("Document too large. The limit is %d MB.", document.MaxFileSize/(1024*1024))
}
