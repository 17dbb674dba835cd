package config

// NotifyConfig selects and configures the notification transport.
type NotifyConfig struct {
	// Destination is a Discord or WeChat webhook URL, or "telegram:<chat_id>".
	Destination string          `json:"destination" yaml:"destination"`
	Timeout     int             `json:"timeout" yaml:"timeout"` // seconds
	MaxRetries  int             `json:"max_retries" yaml:"max_retries"`
	RetryDelay  int             `json:"retry_delay" yaml:"retry_delay"` // seconds
	Telegram    *TelegramConfig `json:"telegram" yaml:"telegram"`
	WeChat      *WeChatConfig   `json:"wechat" yaml:"wechat"`
}

func NewNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		Destination: getEnv("NOTIFY", ""),
		Timeout:     getEnvInt("NOTIFY_TIMEOUT", 10),
		MaxRetries:  getEnvInt("NOTIFY_MAX_RETRIES", 3),
		RetryDelay:  getEnvInt("NOTIFY_RETRY_DELAY", 2),
		Telegram:    NewTelegramConfig(),
		WeChat:      NewWeChatConfig(),
	}
}

// TelegramConfig represents Telegram notification configuration
type TelegramConfig struct {
	BotToken string `json:"bot_token" yaml:"bot_token"`
	// APIBase is overridden in tests.
	APIBase string `json:"api_base" yaml:"api_base"`
	// MessagesPerSecond paces chunked messages.
	MessagesPerSecond float64 `json:"messages_per_second" yaml:"messages_per_second"`
}

func NewTelegramConfig() *TelegramConfig {
	return &TelegramConfig{
		BotToken:          getEnv("TELEGRAM_TOKEN", ""),
		APIBase:           "https://api.telegram.org",
		MessagesPerSecond: 1,
	}
}

// WeChatConfig 企业微信机器人配置
type WeChatConfig struct {
	MentionUsers []string `json:"mention_users" yaml:"mention_users"`
}

func NewWeChatConfig() *WeChatConfig {
	return &WeChatConfig{
		MentionUsers: parseStringList(getEnv("WECHAT_MENTION_USERS", "")),
	}
}
