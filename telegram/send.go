package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/quailyquaily/chatrelay/internal/retryutil"
)

const (
	defaultMaxRetries  = 3
	defaultBackoffUnit = time.Second

	// failureNotice is the bare last-resort message after every delivery
	// attempt is exhausted.
	failureNotice = "Failed to deliver the response. Please try again."
)

// Sender delivers formatted messages with bounded retry, exponential backoff
// and formatting degradation. Attempts for a single send are strictly
// sequential; Send never lets a transport error escape.
type Sender struct {
	api        *Client
	logger     *slog.Logger
	maxRetries int
	unit       time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewSender(api *Client, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		api:        api,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		unit:       defaultBackoffUnit,
		sleep:      retryutil.Sleep,
	}
}

// Send delivers text (chunked when long) to the chat and reports success.
// The keyboard, when given, rides on the final chunk.
func (s *Sender) Send(ctx context.Context, chatID int64, text string, markup *ReplyKeyboardMarkup) bool {
	chunks := SplitMessage(text)
	if len(chunks) == 0 {
		chunks = []string{"(empty)"}
	}
	for i, chunk := range chunks {
		var kb *ReplyKeyboardMarkup
		if i == len(chunks)-1 {
			kb = markup
		}
		if !s.sendOne(ctx, chatID, chunk, kb) {
			return false
		}
	}
	return true
}

// sendOne runs the retry state machine for a single chunk.
func (s *Sender) sendOne(ctx context.Context, chatID int64, text string, markup *ReplyKeyboardMarkup) bool {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.sendFormatted(ctx, chatID, text, markup)
		if err == nil {
			if attempt > 0 {
				s.logger.Info("delivery_recovered", "chat_id", chatID, "attempt", attempt+1)
			}
			return true
		}

		kind, wait := ClassifyTransportError(err)
		switch kind {
		case TransportRateLimited:
			if wait <= 0 {
				wait = retryutil.Delay(attempt, s.unit)
			}
			s.logger.Warn("delivery_rate_limited", "chat_id", chatID, "attempt", attempt+1, "retry_after", wait.String())
			if s.sleep(ctx, wait) != nil {
				return s.giveUp(ctx, chatID)
			}
		case TransportMalformed:
			// One immediate attempt with formatting stripped, then give up.
			s.logger.Warn("delivery_malformed", "chat_id", chatID, "error", err.Error())
			if plainErr := s.api.SendMessage(ctx, chatID, text, "", markup); plainErr == nil {
				return true
			}
			return s.giveUp(ctx, chatID)
		case TransportNetworkFailure:
			delay := retryutil.Delay(attempt, s.unit)
			s.logger.Warn("delivery_network_error", "chat_id", chatID, "attempt", attempt+1, "backoff", delay.String(), "error", err.Error())
			if s.sleep(ctx, delay) != nil {
				return s.giveUp(ctx, chatID)
			}
		default:
			s.logger.Error("delivery_failed", "chat_id", chatID, "error", err.Error())
			return s.giveUp(ctx, chatID)
		}
	}
	s.logger.Error("delivery_retries_exhausted", "chat_id", chatID, "max_retries", s.maxRetries)
	return s.giveUp(ctx, chatID)
}

// sendFormatted walks the formatting degradation chain: MarkdownV2, escaped
// MarkdownV2, plain text. Only markup-rejection errors advance the chain;
// everything else surfaces to the retry machine.
func (s *Sender) sendFormatted(ctx context.Context, chatID int64, text string, markup *ReplyKeyboardMarkup) error {
	err := s.api.SendMessage(ctx, chatID, text, "MarkdownV2", markup)
	if err == nil || !isMarkdownParseError(err) {
		return err
	}

	err = s.api.SendMessage(ctx, chatID, EscapeMarkdownV2(text), "MarkdownV2", markup)
	if err == nil || !isMarkdownParseError(err) {
		return err
	}

	s.logger.Warn("delivery_markdown_fallback", "chat_id", chatID, "error", err.Error())
	return s.api.SendMessage(ctx, chatID, text, "", markup)
}

// giveUp posts the bare failure notice, swallowing any further error.
func (s *Sender) giveUp(ctx context.Context, chatID int64) bool {
	if err := s.api.SendMessage(ctx, chatID, failureNotice, "", nil); err != nil {
		s.logger.Error("delivery_notice_failed", "chat_id", chatID, "error", err.Error())
	}
	return false
}
