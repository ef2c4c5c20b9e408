package config

import "time"

// Config holds runtime settings for the echosync client.
type Config struct {
	RelayURL          string
	DatabasePath      string
	DeviceName        string
	Token             string
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration
	PollInterval      time.Duration
	LinkScheme        string
	LogLevel          string
	LogFormat         string
	AutoReconnect     bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RelayURL = "ws://localhost:3000"
	c.DatabasePath = "echo.db"
	c.HeartbeatInterval = 30 * time.Second
	c.ReconnectDelay = 3 * time.Second
	c.PollInterval = 500 * time.Millisecond
	c.LinkScheme = "echo"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.AutoReconnect = true
}

// LoadConfig constructs a Config from defaults, then JSON, then environment,
// then flags. Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
