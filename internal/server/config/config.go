// Package config holds the relay settings. Values come from defaults, an
// optional config file, ECHO_RELAY_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. ECHO_RELAY_ADDR.
const EnvPrefix = "ECHO_RELAY"

const (
	keyAddr          = "addr"
	keySecretKey     = "secret_key"
	keyTokenValidity = "token_validity"
	keyPingInterval  = "ping_interval"
	keyHistorySize   = "history_size"
	keyMinInterval   = "min_interval"
	keyWindowLimit   = "window_limit"
	keyWindow        = "window"
	keyLogLevel      = "log_level"
	keyLogFormat     = "log_format"
)

// Config holds runtime settings for the relay.
//
// Fields:
//   - Addr: HTTP bind address.
//   - SecretKey: HMAC secret for verifying bearer tokens (HS256).
//   - TokenValidity: lifetime of tokens minted by the token command.
//   - PingInterval: websocket ping period per connection.
//   - HistorySize: frames kept per account for GET /history.
//   - MinInterval / WindowLimit / Window: per-connection rate limit.
type Config struct {
	Addr          string        `mapstructure:"addr"`
	SecretKey     string        `mapstructure:"secret_key"`
	TokenValidity time.Duration `mapstructure:"token_validity"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	HistorySize   int           `mapstructure:"history_size"`
	MinInterval   time.Duration `mapstructure:"min_interval"`
	WindowLimit   int           `mapstructure:"window_limit"`
	Window        time.Duration `mapstructure:"window"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.Addr = ":3000"
	c.SecretKey = "secretKey"
	c.TokenValidity = 24 * time.Hour
	c.PingInterval = 30 * time.Second
	c.HistorySize = 50
	c.MinInterval = 100 * time.Millisecond
	c.WindowLimit = 30
	c.Window = 60 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// BindFlags registers the relay flags on cmd and binds them into v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	d := &Config{}
	d.LoadDefaults()

	fs := cmd.Flags()
	fs.StringP(keyAddr, "a", d.Addr, "address and port to listen on")
	fs.StringP("secret-key", "s", d.SecretKey, "HMAC secret for bearer tokens")
	fs.Duration("token-validity", d.TokenValidity, "lifetime of issued tokens")
	fs.Duration("ping-interval", d.PingInterval, "websocket ping interval")
	fs.Int("history-size", d.HistorySize, "frames kept per account")
	fs.Duration("min-interval", d.MinInterval, "minimum time between messages of one connection")
	fs.Int("window-limit", d.WindowLimit, "messages allowed per connection per window")
	fs.Duration("window", d.Window, "rate limit window")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "log format (text, json)")

	binds := map[string]string{
		keyAddr:          keyAddr,
		keySecretKey:     "secret-key",
		keyTokenValidity: "token-validity",
		keyPingInterval:  "ping-interval",
		keyHistorySize:   "history-size",
		keyMinInterval:   "min-interval",
		keyWindowLimit:   "window-limit",
		keyWindow:        "window",
		keyLogLevel:      "log-level",
		keyLogFormat:     "log-format",
	}
	for key, flag := range binds {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load builds a Config from v. cfgFile may be empty.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	v.SetDefault(keyAddr, cfg.Addr)
	v.SetDefault(keySecretKey, cfg.SecretKey)
	v.SetDefault(keyTokenValidity, cfg.TokenValidity)
	v.SetDefault(keyPingInterval, cfg.PingInterval)
	v.SetDefault(keyHistorySize, cfg.HistorySize)
	v.SetDefault(keyMinInterval, cfg.MinInterval)
	v.SetDefault(keyWindowLimit, cfg.WindowLimit)
	v.SetDefault(keyWindow, cfg.Window)
	v.SetDefault(keyLogLevel, cfg.LogLevel)
	v.SetDefault(keyLogFormat, cfg.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the relay cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr is required")
	case c.SecretKey == "":
		return errors.New("secret key is required")
	case c.PingInterval <= 0:
		return errors.New("ping interval must be positive")
	case c.HistorySize < 0:
		return errors.New("history size must not be negative")
	case c.WindowLimit <= 0 || c.Window <= 0:
		return errors.New("rate limit window must be positive")
	}
	return nil
}
