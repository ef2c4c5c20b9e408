package engine

import (
	"errors"
	"time"
)

// State is the connection status.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "unknown"
}

// StatusChange is delivered to subscribers on every state transition.
// Explicit is true when the engine reached Disconnected through Disconnect.
type StatusChange struct {
	State    State
	Err      error
	Explicit bool
}

// Device is an entry of the device roster.
type Device struct {
	ID       string
	Name     string
	LastSeen time.Time
	Current  bool
}

// ErrStopped is returned by API calls once Run has returned.
var ErrStopped = errors.New("engine stopped")

const (
	DefaultHeartbeatInterval = 30 * time.Second

	remoteDeviceLabel = "Remote Device"
	localDeviceLabel  = "This Device"
)
