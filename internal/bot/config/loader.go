package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "VPN_BOT"

// Loader handles configuration loading from YAML files and environment
// variables.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// Load loads configuration from files and environment variables. The YAML
// file is optional; ENV variables override file values.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")

	l.v.AddConfigPath("/etc/vpn-bot")
	l.v.AddConfigPath("$HOME/.vpn-bot")
	l.v.AddConfigPath(".")

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// Missing config file is fine: defaults and ENV cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithPath loads configuration from a specific file path.
func LoadWithPath(configPath string) (*Config, error) {
	loader := NewLoader()
	loader.v.SetConfigFile(configPath)
	return loader.Load()
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

// setDefaults registers a default for every key, including the required
// ones: AutomaticEnv only resolves keys viper already knows about.
func (l *Loader) setDefaults() {
	l.v.SetDefault("service.shutdown_timeout", "30s")

	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "json")

	l.v.SetDefault("telegram.token", "")
	l.v.SetDefault("telegram.allowed_chat_ids", "")
	l.v.SetDefault("telegram.poll_timeout", 30)

	l.v.SetDefault("linode.token", "")
	l.v.SetDefault("linode.base_url", "")
	l.v.SetDefault("linode.image", "linode/ubuntu20.04")
	l.v.SetDefault("linode.plan", "g6-nanode-1")
	l.v.SetDefault("linode.stackscript_id", 0)

	l.v.SetDefault("shadowsocks.password", "")

	l.v.SetDefault("bot.label_prefix", "vpn-bot")
	l.v.SetDefault("bot.max_instances", 3)

	l.v.SetDefault("audit.path", "./data/bot.db")
}
