package engine

import (
	"context"

	"github.com/dmitrijs2005/echosync/internal/client/protocol"
	"github.com/dmitrijs2005/echosync/internal/client/relay"
)

// event is anything the Run loop consumes.
type event interface {
	isEvent()
}

type connectRequest struct {
	ctx   context.Context
	token string
	reply chan error
}

type disconnectRequest struct {
	reply chan error
}

type dialResult struct {
	gen  uint64
	sock relay.Socket
	err  error
}

type frameReceived struct {
	gen  uint64
	data []byte
}

type connClosed struct {
	gen uint64
	err error
}

type heartbeatTick struct {
	gen uint64
}

// localChange is a clipboard change made on this device. write asks for the
// text to be put on the OS clipboard as well.
type localChange struct {
	text  string
	write bool
}

type sendRequest struct {
	text string
}

type codecChange struct {
	codec *protocol.Codec
}

func (connectRequest) isEvent()    {}
func (disconnectRequest) isEvent() {}
func (dialResult) isEvent()        {}
func (frameReceived) isEvent()     {}
func (connClosed) isEvent()        {}
func (heartbeatTick) isEvent()     {}
func (localChange) isEvent()       {}
func (sendRequest) isEvent()       {}
func (codecChange) isEvent()       {}
