package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/echosync/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-r string   relay URL
//	-d string   database path
//	-n string   device name
//	-t string   bearer token
//	-i int      heartbeat interval (seconds)
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// components (-c) do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-d", "-n", "-t", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RelayURL, "r", cfg.RelayURL, "relay URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.DeviceName, "n", cfg.DeviceName, "device name shown to other devices")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "bearer token for the relay")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	heartbeat := fs.Int("i", int(cfg.HeartbeatInterval.Seconds()), "heartbeat interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.HeartbeatInterval = time.Duration(*heartbeat) * time.Second
}
