package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// OpenAI
	viper.SetDefault("openai.endpoint", "https://api.openai.com")
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.model", "gpt-4o-mini")

	// Chat defaults (per-user config starts from these).
	viper.SetDefault("chat.system_prompt", "You are a helpful assistant. Answer briefly, clearly and kindly.")
	viper.SetDefault("chat.temperature", 0.3)
	viper.SetDefault("chat.max_tokens", 300)
	viper.SetDefault("chat.history_max_messages", 20)

	// Telegram
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.max_concurrency", 3)
	viper.SetDefault("telegram.authorized_user_ids", []string{})
	viper.SetDefault("telegram.files.enabled", true)
	viper.SetDefault("telegram.files.max_bytes", int64(20*1024*1024))
}
