// Package config loads runtime configuration for the echosync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c / -config or $ECHO_CONFIG.
//  3. Environment variables with the ECHO_ prefix (read through viper).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-r string   relay URL (ws://, wss://, http:// or https://)
//	-d string   path of the local SQLite database
//	-n string   device name shown to other devices
//	-t string   bearer token for the relay
//	-i int      heartbeat interval (seconds)
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "relay_url": "wss://relay.example",
//	  "database_path": "/home/me/.echo/echo.db",
//	  "device_name": "laptop",
//	  "heartbeat_interval": "30s",
//	  "reconnect_delay": "3s",
//	  "poll_interval": "500ms",
//	  "link_scheme": "echo",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "auto_reconnect": true
//	}
//
// Environment variables mirror the JSON keys: ECHO_RELAY_URL,
// ECHO_DATABASE_PATH, ECHO_DEVICE_NAME, ECHO_TOKEN, ECHO_HEARTBEAT_INTERVAL,
// ECHO_RECONNECT_DELAY, ECHO_POLL_INTERVAL, ECHO_LINK_SCHEME, ECHO_LOG_LEVEL,
// ECHO_LOG_FORMAT, ECHO_AUTO_RECONNECT.
package config
