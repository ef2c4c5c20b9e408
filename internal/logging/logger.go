// Package logging defines the structured-logging interface used across
// echosync and its log/slog implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "connected", "relay", endpoint, "device", deviceID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Attribute keys shared by components.
const (
	KeyComponent = "component"
	KeyDeviceID  = "device"
	KeyState     = "state"
	KeyError     = "error"
)
