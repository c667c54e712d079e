package config

// ChannelsConfig configures the one wired channel adapter. Additional
// adapters (Discord, Slack, ...) would add sibling fields here; the
// rest of the donor's channel roster was dropped with the adapters
// themselves (see DESIGN.md).
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig configures the Telegram bot adapter.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
}
