package chatcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/quailyquaily/chatrelay/chat"
	"github.com/quailyquaily/chatrelay/document"
	"github.com/quailyquaily/chatrelay/llm"
	"github.com/quailyquaily/chatrelay/providers/openai"
	"github.com/quailyquaily/chatrelay/telegram"
)

// deliverer is what the bot needs from the delivery pipeline.
type deliverer interface {
	Send(ctx context.Context, chatID int64, text string, markup *telegram.ReplyKeyboardMarkup) bool
}

// bot routes inbound jobs to the conversation core and owns no complex state
// itself; per-user serialization comes from the chat workers in command.go.
type bot struct {
	logger   *slog.Logger
	api      *telegram.Client
	sender   deliverer
	client   llm.Client
	configs  *chat.ConfigStore
	history  *chat.HistoryStore
	ingestor *document.Ingestor

	// authorized is the allowlist; empty means open access.
	authorized map[int64]bool

	defaultModel  string
	filesEnabled  bool
	filesMaxBytes int64
}

func (b *bot) isAuthorized(userID int64) bool {
	if len(b.authorized) == 0 {
		return true
	}
	return b.authorized[userID]
}

type job struct {
	ChatID    int64
	UserID    int64
	MessageID int64
	FirstName string
	Text      string
	Document  *telegram.Document
}

// handle processes one inbound job to completion.
func (b *bot) handle(ctx context.Context, j job) {
	if !b.isAuthorized(j.UserID) {
		b.logger.Warn("unauthorized_user", "user_id", j.UserID, "chat_id", j.ChatID)
		b.sender.Send(ctx, j.ChatID, msgUnauthorized(j.UserID), nil)
		return
	}

	if j.Document != nil {
		b.handleDocument(ctx, j)
		return
	}

	text := strings.TrimSpace(j.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, j, text)
		return
	}
	if b.handleButton(ctx, j, text) {
		return
	}
	b.chatTurn(ctx, j.UserID, j.ChatID, text)
}

// chatTurn runs one full cycle: append user text, validate config, call the
// completion gateway, append the reply and deliver it. On a classified
// failure the assistant turn is never appended.
func (b *bot) chatTurn(ctx context.Context, userID, chatID int64, text string) {
	turnID := uuid.NewString()

	b.history.AppendUser(userID, text)

	// Cosmetic; a failure here never blocks the turn.
	if err := b.api.SendChatAction(ctx, chatID, "typing"); err != nil {
		b.logger.Debug("chat_action_failed", "chat_id", chatID, "error", err.Error())
	}

	cfg := b.configs.Get(userID)
	if ok, msg := chat.Validate(cfg); !ok {
		b.logger.Warn("config_invalid", "turn_id", turnID, "user_id", userID, "reason", msg)
		cfg = b.configs.Reset(userID)
		b.history.RefreshSystemPrompt(userID)
		b.sender.Send(ctx, chatID, msgConfigCorrected(msg), nil)
	}

	req := llm.Request{
		Model:       cfg.Model,
		Messages:    b.history.History(userID),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	b.logger.Info("turn_started", "turn_id", turnID, "user_id", userID, "model", cfg.Model, "context_len", len(req.Messages))

	res, err := b.client.Complete(ctx, req)
	if err != nil {
		kind := openai.Classify(err)
		switch kind {
		case openai.FailureAuth:
			b.logger.Error("completion_auth_failure", "turn_id", turnID, "user_id", userID, "error", err.Error())
		case openai.FailureContextTooLong:
			b.logger.Info("completion_context_too_long", "turn_id", turnID, "user_id", userID)
			b.history.Reset(userID)
		default:
			b.logger.Warn("completion_failed", "turn_id", turnID, "user_id", userID, "kind", kind.String(), "error", err.Error())
		}
		b.sender.Send(ctx, chatID, completionFailureMessage(kind), mainKeyboard())
		return
	}

	answer := strings.TrimSpace(res.Text)
	if answer == "" {
		answer = msgEmptyCompletion
	}

	b.history.AppendAssistant(userID, answer)
	b.logger.Info("turn_completed", "turn_id", turnID, "user_id", userID,
		"answer_len", len(answer), "input_tokens", res.Usage.InputTokens, "output_tokens", res.Usage.OutputTokens,
		"duration", res.Duration.String())

	if !b.sender.Send(ctx, chatID, answer, mainKeyboard()) {
		b.logger.Error("turn_delivery_failed", "turn_id", turnID, "user_id", userID)
	}
}

// handleDocument downloads an uploaded file, extracts its text and runs a
// normal completion turn over it.
func (b *bot) handleDocument(ctx context.Context, j job) {
	doc := j.Document
	if !b.filesEnabled {
		b.sender.Send(ctx, j.ChatID, "Document uploads are disabled.", mainKeyboard())
		return
	}
	if !b.ingestor.IsSupported(doc.FileName) {
		b.sender.Send(ctx, j.ChatID, msgUnsupportedDocument(), mainKeyboard())
		return
	}
	if doc.FileSize > b.filesMaxBytes {
		b.sender.Send(ctx, j.ChatID, msgDocumentTooLarge(), mainKeyboard())
		return
	}

	f, err := b.api.GetFile(ctx, doc.FileID)
	if err != nil {
		b.logger.Warn("document_get_file_failed", "user_id", j.UserID, "error", err.Error())
		b.sender.Send(ctx, j.ChatID, msgGenericFailure, mainKeyboard())
		return
	}
	data, err := b.api.DownloadFile(ctx, f.FilePath, b.filesMaxBytes)
	if err != nil {
		b.logger.Warn("document_download_failed", "user_id", j.UserID, "error", err.Error())
		b.sender.Send(ctx, j.ChatID, msgGenericFailure, mainKeyboard())
		return
	}

	text, err := b.ingestor.ExtractText(data, doc.FileName)
	if err != nil {
		b.logger.Warn("document_ingest_failed", "user_id", j.UserID, "filename", doc.FileName, "error", err.Error())
		switch {
		case errors.Is(err, document.ErrTooLarge):
			b.sender.Send(ctx, j.ChatID, msgDocumentTooLarge(), mainKeyboard())
		case errors.Is(err, document.ErrUnsupported):
			b.sender.Send(ctx, j.ChatID, msgUnsupportedDocument(), mainKeyboard())
		default:
			b.sender.Send(ctx, j.ChatID, "Could not extract text from the document.", mainKeyboard())
		}
		return
	}

	prompt := fmt.Sprintf("Document %q:\n\n%s", doc.FileName, text)
	if caption := strings.TrimSpace(j.Text); caption != "" {
		prompt += "\n\n" + caption
	}
	b.chatTurn(ctx, j.UserID, j.ChatID, prompt)
}
