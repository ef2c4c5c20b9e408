package config

import (
	"github.com/spf13/viper"
)

const envPrefix = "ECHO"

// parseEnv overlays cfg with ECHO_* environment variables. Only variables
// that are actually set override the current values.
func parseEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)

	keys := []string{
		"relay_url", "database_path", "device_name", "token",
		"heartbeat_interval", "reconnect_delay", "poll_interval",
		"link_scheme", "log_level", "log_format", "auto_reconnect",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if v.IsSet("relay_url") {
		cfg.RelayURL = v.GetString("relay_url")
	}
	if v.IsSet("database_path") {
		cfg.DatabasePath = v.GetString("database_path")
	}
	if v.IsSet("device_name") {
		cfg.DeviceName = v.GetString("device_name")
	}
	if v.IsSet("token") {
		cfg.Token = v.GetString("token")
	}
	if v.IsSet("heartbeat_interval") {
		cfg.HeartbeatInterval = v.GetDuration("heartbeat_interval")
	}
	if v.IsSet("reconnect_delay") {
		cfg.ReconnectDelay = v.GetDuration("reconnect_delay")
	}
	if v.IsSet("poll_interval") {
		cfg.PollInterval = v.GetDuration("poll_interval")
	}
	if v.IsSet("link_scheme") {
		cfg.LinkScheme = v.GetString("link_scheme")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("log_format") {
		cfg.LogFormat = v.GetString("log_format")
	}
	if v.IsSet("auto_reconnect") {
		cfg.AutoReconnect = v.GetBool("auto_reconnect")
	}
}
