package chatcmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/quailyquaily/chatrelay/chat"
	"github.com/quailyquaily/chatrelay/telegram"
)

// handleCommand routes slash commands.
func (b *bot) handleCommand(ctx context.Context, j job, text string) {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	// Commands in groups arrive as /cmd@botname.
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	args := fields[1:]

	switch cmd {
	case "/start":
		b.history.Reset(j.UserID)
		b.logger.Info("user_started", "user_id", j.UserID)
		b.sender.Send(ctx, j.ChatID, msgGreeting(j.FirstName), mainKeyboard())
	case "/help":
		b.sender.Send(ctx, j.ChatID, msgHelp(b.configs.Get(j.UserID)), mainKeyboard())
	case "/stats":
		b.sendStats(ctx, j)
	case "/reset":
		b.history.Reset(j.UserID)
		b.logger.Info("history_reset", "user_id", j.UserID)
		b.sender.Send(ctx, j.ChatID, msgReset, mainKeyboard())
	case "/config":
		b.handleConfigCommand(ctx, j, args)
	default:
		b.sender.Send(ctx, j.ChatID, "Unknown command. Use /help for an overview.", mainKeyboard())
	}
}

func (b *bot) sendStats(ctx context.Context, j job) {
	b.sender.Send(ctx, j.ChatID, msgStats(
		b.history.UserMessageCount(j.UserID),
		b.history.Len(j.UserID),
		b.history.ActiveUsers(),
		b.defaultModel,
	), mainKeyboard())
}

// handleConfigCommand mutates one config field: /config <setting> <value>.
// Without arguments it renders the current config and the allowed ranges.
func (b *bot) handleConfigCommand(ctx context.Context, j job, args []string) {
	if len(args) < 2 {
		b.sender.Send(ctx, j.ChatID, msgConfigUsage(b.configs.Get(j.UserID)), mainKeyboard())
		return
	}

	setting := strings.ToLower(args[0])
	value := args[1]

	switch setting {
	case "temperature":
		temp, err := strconv.ParseFloat(value, 64)
		if err != nil {
			b.sender.Send(ctx, j.ChatID, "Temperature must be a number, e.g. /config temperature 0.7", mainKeyboard())
			return
		}
		if temp < chat.TemperatureMin || temp > chat.TemperatureMax {
			b.sender.Send(ctx, j.ChatID, fmt.Sprintf("Temperature must be between %.1f and %.1f.", chat.TemperatureMin, chat.TemperatureMax), mainKeyboard())
			return
		}
		b.setTemperature(ctx, j, temp, mainKeyboard())
	case "model":
		b.setModel(ctx, j, value, mainKeyboard())
	case "tokens":
		tokens, err := strconv.Atoi(value)
		if err != nil {
			b.sender.Send(ctx, j.ChatID, "Tokens must be an integer, e.g. /config tokens 500", mainKeyboard())
			return
		}
		if tokens < chat.MaxTokensMin || tokens > chat.MaxTokensMax {
			b.sender.Send(ctx, j.ChatID, fmt.Sprintf("Tokens must be between %d and %d.", chat.MaxTokensMin, chat.MaxTokensMax), mainKeyboard())
			return
		}
		b.setMaxTokens(ctx, j, tokens, mainKeyboard())
	default:
		b.sender.Send(ctx, j.ChatID, "Unknown setting. Options: temperature, model, tokens.", mainKeyboard())
	}
}

// handleButton reacts to reply-keyboard presses. It reports false when the
// text matches no button, shifting routing to a regular chat turn.
func (b *bot) handleButton(ctx context.Context, j job, text string) bool {
	switch text {
	case btnHelp:
		b.sender.Send(ctx, j.ChatID, msgHelp(b.configs.Get(j.UserID)), mainKeyboard())
	case btnStats:
		b.sendStats(ctx, j)
	case btnReset:
		b.history.Reset(j.UserID)
		b.logger.Info("history_reset", "user_id", j.UserID)
		b.sender.Send(ctx, j.ChatID, msgReset, mainKeyboard())
	case btnFreeChat:
		b.sender.Send(ctx, j.ChatID, msgFreeChat, mainKeyboard())
	case btnMode:
		cfg := b.configs.Get(j.UserID)
		b.sender.Send(ctx, j.ChatID, "Select a response mode.\nCurrent: "+string(cfg.Mode), modeKeyboard())
	case btnSettings, btnBackSettings:
		b.sender.Send(ctx, j.ChatID, "Settings. Pick what to adjust.", settingsKeyboard())
	case btnBack:
		b.sender.Send(ctx, j.ChatID, "Main menu.", mainKeyboard())
	case btnTemperature:
		cfg := b.configs.Get(j.UserID)
		b.sender.Send(ctx, j.ChatID, fmt.Sprintf("Current temperature: %g\nPick a value.", cfg.Temperature), temperatureKeyboard())
	case btnModel:
		cfg := b.configs.Get(j.UserID)
		b.sender.Send(ctx, j.ChatID, "Current model: "+cfg.Model+"\nPick a model.", modelKeyboard())
	case btnMaxTokens:
		cfg := b.configs.Get(j.UserID)
		b.sender.Send(ctx, j.ChatID, fmt.Sprintf("Current max tokens: %d\nPick a value.", cfg.MaxTokens), tokensKeyboard())
	case btnShowConfig:
		b.sender.Send(ctx, j.ChatID, renderConfig(b.configs.Get(j.UserID)), settingsKeyboard())
	default:
		if mode, ok := modeForLabel(text); ok {
			b.setMode(ctx, j, mode)
			return true
		}
		if temp, ok := temperatureButtons[text]; ok {
			b.setTemperature(ctx, j, temp, settingsKeyboard())
			return true
		}
		if modelAllowedLabel(text) {
			b.setModel(ctx, j, text, settingsKeyboard())
			return true
		}
		if tokens, ok := tokenButtons[text]; ok {
			b.setMaxTokens(ctx, j, tokens, settingsKeyboard())
			return true
		}
		return false
	}
	return true
}

func modeForLabel(label string) (chat.Mode, bool) {
	for _, mb := range modeButtons {
		if mb.Label == label {
			return mb.Mode, true
		}
	}
	return "", false
}

func modelAllowedLabel(label string) bool {
	for _, m := range chat.AllowedModels {
		if m == label {
			return true
		}
	}
	return false
}

// setMode changes the response style and refreshes the system entry so the
// new instruction takes effect on the next turn.
func (b *bot) setMode(ctx context.Context, j job, mode chat.Mode) {
	old := b.configs.Get(j.UserID).Mode
	b.configs.Update(j.UserID, func(c *chat.Config) { c.Mode = mode })
	b.history.RefreshSystemPrompt(j.UserID)
	b.logger.Info("mode_changed", "user_id", j.UserID, "from", string(old), "to", string(mode))
	b.sender.Send(ctx, j.ChatID,
		fmt.Sprintf("Mode changed: %s -> %s\n%s", string(old), string(mode), mode.Instruction()),
		mainKeyboard())
}

func (b *bot) setTemperature(ctx context.Context, j job, temp float64, kb *telegram.ReplyKeyboardMarkup) {
	b.configs.Update(j.UserID, func(c *chat.Config) { c.Temperature = temp })
	b.logger.Info("temperature_changed", "user_id", j.UserID, "temperature", temp)
	b.sender.Send(ctx, j.ChatID, fmt.Sprintf("Temperature set to %g.", temp), kb)
}

func (b *bot) setModel(ctx context.Context, j job, model string, kb *telegram.ReplyKeyboardMarkup) {
	if !modelAllowedLabel(model) {
		b.sender.Send(ctx, j.ChatID, "Unknown model. Allowed: "+strings.Join(chat.AllowedModels, ", "), kb)
		return
	}
	b.configs.Update(j.UserID, func(c *chat.Config) { c.Model = model })
	b.logger.Info("model_changed", "user_id", j.UserID, "model", model)
	b.sender.Send(ctx, j.ChatID, "Model set to "+model+".", kb)
}

func (b *bot) setMaxTokens(ctx context.Context, j job, tokens int, kb *telegram.ReplyKeyboardMarkup) {
	b.configs.Update(j.UserID, func(c *chat.Config) { c.MaxTokens = tokens })
	b.logger.Info("max_tokens_changed", "user_id", j.UserID, "max_tokens", tokens)
	b.sender.Send(ctx, j.ChatID, fmt.Sprintf("Max tokens set to %d.", tokens), kb)
}
