package chatcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/quailyquaily/chatrelay/chat"
	"github.com/quailyquaily/chatrelay/document"
	"github.com/quailyquaily/chatrelay/internal/logutil"
	"github.com/quailyquaily/chatrelay/internal/retryutil"
	"github.com/quailyquaily/chatrelay/providers/openai"
	"github.com/quailyquaily/chatrelay/telegram"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// taskTimeout bounds one full turn: completion call plus delivery retries.
const taskTimeout = 3 * time.Minute

// chatWorker serializes turns for one chat. Per-user mutual exclusion on the
// conversation state comes from this single-owner-goroutine discipline, not
// from a per-user lock.
type chatWorker struct {
	Jobs chan job
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram bot that relays chats to OpenAI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	cmd.Flags().String("bot-token", "", "Telegram bot token.")
	cmd.Flags().String("api-key", "", "OpenAI API key.")
	cmd.Flags().String("model", "", "Default completion model.")
	_ = viper.BindPFlag("telegram.bot_token", cmd.Flags().Lookup("bot-token"))
	_ = viper.BindPFlag("openai.api_key", cmd.Flags().Lookup("api-key"))
	_ = viper.BindPFlag("openai.model", cmd.Flags().Lookup("model"))

	return cmd
}

func run(parent context.Context) error {
	token := strings.TrimSpace(viper.GetString("telegram.bot_token"))
	if token == "" {
		return fmt.Errorf("missing telegram.bot_token (set via --bot-token or %s_TELEGRAM_BOT_TOKEN)", "CHATRELAY")
	}
	apiKey := strings.TrimSpace(viper.GetString("openai.api_key"))
	if apiKey == "" {
		return fmt.Errorf("missing openai.api_key (set via --api-key or %s_OPENAI_API_KEY)", "CHATRELAY")
	}

	logger, err := logutil.LoggerFromViper()
	if err != nil {
		return err
	}

	defaults := chat.Config{
		Mode:        chat.ModeCasual,
		Temperature: viper.GetFloat64("chat.temperature"),
		Model:       viper.GetString("openai.model"),
		MaxTokens:   viper.GetInt("chat.max_tokens"),
	}
	if ok, msg := chat.Validate(defaults); !ok {
		return fmt.Errorf("invalid default chat config: %s", msg)
	}

	configs := chat.NewConfigStore(defaults)
	history := chat.NewHistoryStore(configs, viper.GetString("chat.system_prompt"), viper.GetInt("chat.history_max_messages"))

	authorized, err := parseAuthorizedUserIDs(viper.GetStringSlice("telegram.authorized_user_ids"))
	if err != nil {
		return err
	}

	api := telegram.NewClient(nil, viper.GetString("telegram.base_url"), token)
	client := openai.New(viper.GetString("openai.endpoint"), apiKey)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	me, err := api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}

	b := &bot{
		logger:        logger,
		api:           api,
		sender:        telegram.NewSender(api, logger),
		client:        client,
		configs:       configs,
		history:       history,
		ingestor:      document.NewIngestor(logger),
		authorized:    authorized,
		defaultModel:  defaults.Model,
		filesEnabled:  viper.GetBool("telegram.files.enabled"),
		filesMaxBytes: viper.GetInt64("telegram.files.max_bytes"),
	}

	logger.Info("bot_started",
		"username", me.Username,
		"model", defaults.Model,
		"history_cap", history.Cap(),
		"authorized_users", len(authorized),
	)

	pollLoop(ctx, logger, api, b)
	logger.Info("bot_stopped")
	return nil
}

func parseAuthorizedUserIDs(raw []string) (map[int64]bool, error) {
	out := make(map[int64]bool, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram.authorized_user_ids entry %q: %w", s, err)
		}
		out[id] = true
	}
	return out, nil
}

// pollLoop long-polls for updates and fans them out to per-chat workers. A
// global semaphore bounds concurrent turns across chats.
func pollLoop(ctx context.Context, logger *slog.Logger, api *telegram.Client, b *bot) {
	var (
		mu      sync.Mutex
		workers = make(map[int64]*chatWorker)
	)
	maxConcurrency := viper.GetInt("telegram.max_concurrency")
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	sem := make(chan struct{}, maxConcurrency)
	pollTimeout := viper.GetDuration("telegram.poll_timeout")

	getOrStartWorkerLocked := func(chatID int64) *chatWorker {
		if w, ok := workers[chatID]; ok {
			return w
		}
		w := &chatWorker{Jobs: make(chan job, 16)}
		workers[chatID] = w
		go func() {
			for j := range w.Jobs {
				sem <- struct{}{}
				func() {
					defer func() { <-sem }()
					turnCtx, cancel := context.WithTimeout(context.Background(), taskTimeout)
					defer cancel()
					b.handle(turnCtx, j)
				}()
			}
		}()
		return w
	}

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, next, err := api.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if telegram.IsPollTimeout(err) {
				continue
			}
			logger.Warn("poll_failed", "error", err.Error())
			if retryutil.Sleep(ctx, 2*time.Second) != nil {
				return
			}
			continue
		}
		offset = next

		for _, u := range updates {
			msg := u.Message
			if msg == nil || msg.Chat == nil || msg.From == nil || msg.From.IsBot {
				continue
			}
			j := job{
				ChatID:    msg.Chat.ID,
				UserID:    msg.From.ID,
				MessageID: msg.MessageID,
				FirstName: msg.From.FirstName,
				Text:      msg.Text,
				Document:  msg.Document,
			}
			if j.Text == "" && msg.Caption != "" {
				j.Text = msg.Caption
			}
			if j.Text == "" && j.Document == nil {
				continue
			}

			mu.Lock()
			w := getOrStartWorkerLocked(j.ChatID)
			mu.Unlock()
			select {
			case w.Jobs <- j:
			default:
				logger.Warn("worker_queue_full", "chat_id", j.ChatID, "message_id", j.MessageID)
			}
		}
	}
}
