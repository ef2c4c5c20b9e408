package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/echosync/internal/flagx"
	"github.com/dmitrijs2005/echosync/internal/timex"
)

// JsonConfig is the DTO for the JSON config file. Pointer fields distinguish
// "absent" from "zero" so a partial file only overrides what it names.
type JsonConfig struct {
	RelayURL          *string         `json:"relay_url"`
	DatabasePath      *string         `json:"database_path"`
	DeviceName        *string         `json:"device_name"`
	HeartbeatInterval *timex.Duration `json:"heartbeat_interval"`
	ReconnectDelay    *timex.Duration `json:"reconnect_delay"`
	PollInterval      *timex.Duration `json:"poll_interval"`
	LinkScheme        *string         `json:"link_scheme"`
	LogLevel          *string         `json:"log_level"`
	LogFormat         *string         `json:"log_format"`
	AutoReconnect     *bool           `json:"auto_reconnect"`
}

// parseJson overlays cfg with values from the file returned by
// flagx.ConfigPath. It panics on read or unmarshal errors; a broken config
// file should stop the client before it touches any key material.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.RelayURL, jc.RelayURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.DeviceName, jc.DeviceName)
	setString(&cfg.LinkScheme, jc.LinkScheme)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.HeartbeatInterval != nil {
		cfg.HeartbeatInterval = jc.HeartbeatInterval.Duration
	}
	if jc.ReconnectDelay != nil {
		cfg.ReconnectDelay = jc.ReconnectDelay.Duration
	}
	if jc.PollInterval != nil {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.AutoReconnect != nil {
		cfg.AutoReconnect = *jc.AutoReconnect
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
