package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "ws://localhost:3000", c.RelayURL)
	assert.Equal(t, "echo.db", c.DatabasePath)
	assert.Equal(t, 30*time.Second, c.HeartbeatInterval)
	assert.Equal(t, 3*time.Second, c.ReconnectDelay)
	assert.Equal(t, 500*time.Millisecond, c.PollInterval)
	assert.Equal(t, "echo", c.LinkScheme)
	assert.True(t, c.AutoReconnect)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Setenv("ECHO_CONFIG", "")

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "ws://localhost:3000", cfg.RelayURL)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-r", "wss://flag.example"}
	t.Setenv("ECHO_CONFIG", "")
	t.Setenv("ECHO_RELAY_URL", "wss://env.example")
	t.Setenv("ECHO_DEVICE_NAME", "desk")

	cfg := LoadConfig()

	assert.Equal(t, "wss://flag.example", cfg.RelayURL)
	assert.Equal(t, "desk", cfg.DeviceName)
}
