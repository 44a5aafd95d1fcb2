package config

import (
	"time"

	"github.com/nikitaproks/vpn-bot/internal/shared/errors"
)

// Config defines the configuration for the bot service.
type Config struct {
	Service     ServiceConfig     `mapstructure:"service"`
	Log         LogConfig         `mapstructure:"log"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Linode      LinodeConfig      `mapstructure:"linode"`
	Shadowsocks ShadowsocksConfig `mapstructure:"shadowsocks"`
	Bot         BotConfig         `mapstructure:"bot"`
	Audit       AuditConfig       `mapstructure:"audit"`
}

// ServiceConfig defines service-level configuration options.
type ServiceConfig struct {
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig defines the logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelegramConfig defines the Telegram transport configuration.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// AllowedChatIDs is a comma-separated list of chat ids permitted to
	// use the bot.
	AllowedChatIDs string `mapstructure:"allowed_chat_ids"`
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int `mapstructure:"poll_timeout"`
}

// LinodeConfig defines the Linode provider configuration.
type LinodeConfig struct {
	Token         string `mapstructure:"token"`
	BaseURL       string `mapstructure:"base_url"`
	Image         string `mapstructure:"image"`
	Plan          string `mapstructure:"plan"`
	StackScriptID int    `mapstructure:"stackscript_id"`
}

// ShadowsocksConfig defines the parameters passed to the boot script.
type ShadowsocksConfig struct {
	Password string `mapstructure:"password"`
}

// BotConfig defines workflow-level settings.
type BotConfig struct {
	LabelPrefix  string `mapstructure:"label_prefix"`
	MaxInstances int    `mapstructure:"max_instances"`
}

// AuditConfig defines the operation journal configuration.
type AuditConfig struct {
	Path string `mapstructure:"path"`
}

// Validate validates the configuration for correctness and completeness.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.NewConfigError("telegram.token",
			"required (set VPN_BOT_TELEGRAM_TOKEN env var)", nil)
	}
	if c.Telegram.AllowedChatIDs == "" {
		return errors.NewConfigError("telegram.allowed_chat_ids",
			"required (set VPN_BOT_TELEGRAM_ALLOWED_CHAT_IDS env var)", nil)
	}
	if c.Linode.Token == "" {
		return errors.NewConfigError("linode.token",
			"required (set VPN_BOT_LINODE_TOKEN env var)", nil)
	}
	if c.Linode.StackScriptID <= 0 {
		return errors.NewConfigError("linode.stackscript_id",
			"required (set VPN_BOT_LINODE_STACKSCRIPT_ID env var)", nil)
	}
	if c.Shadowsocks.Password == "" {
		return errors.NewConfigError("shadowsocks.password",
			"required (set VPN_BOT_SHADOWSOCKS_PASSWORD env var)", nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Log.Level != "" && !validLevels[c.Log.Level] {
		return errors.NewConfigError("log.level",
			"must be debug, info, warn, or error", nil)
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "text" {
		return errors.NewConfigError("log.format", "must be json or text", nil)
	}

	if c.Bot.MaxInstances <= 0 {
		return errors.NewConfigError("bot.max_instances", "must be positive", nil)
	}
	if c.Service.ShutdownTimeout > 0 && c.Service.ShutdownTimeout < time.Second {
		return errors.NewConfigError("service.shutdown_timeout",
			"must be at least 1 second", nil)
	}

	return nil
}
