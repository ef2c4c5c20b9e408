package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/echosync/internal/client/clipboard"
	"github.com/dmitrijs2005/echosync/internal/client/history"
	"github.com/dmitrijs2005/echosync/internal/client/protocol"
	"github.com/dmitrijs2005/echosync/internal/client/relay"
	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/logging"
)

const (
	eventBuffer  = 64
	sendBuffer   = 64
	drainTimeout = 2 * time.Second
	flushTimeout = 500 * time.Millisecond
)

// Config holds the engine's identity and timing.
type Config struct {
	DeviceID          string
	DeviceName        string
	HeartbeatInterval time.Duration
	WriteQueueSize    int
}

// Engine synchronises one device's clipboard through the relay.
type Engine struct {
	cfg     Config
	dialer  relay.Dialer
	history *history.Store
	bridge  clipboard.Bridge
	writer  *clipboard.Writer
	log     logging.Logger
	now     func() time.Time

	events  chan event
	done    chan struct{}
	running atomic.Bool
	state   atomic.Int32

	hookMu          sync.RWMutex
	statusHooks     []func(StatusChange)
	platformErrHook func(error)

	rosterMu sync.RWMutex
	roster   map[string]Device

	// owned by Run
	codec      *protocol.Codec
	gen        uint64
	sock       relay.Socket
	outbox     chan []byte
	stopConn   chan struct{}
	flushed    chan struct{}
	cancelDial context.CancelFunc
	waiters    []chan error
	explicit   bool
}

func New(cfg Config, codec *protocol.Codec, dialer relay.Dialer, store *history.Store, bridge clipboard.Bridge, log logging.Logger) *Engine {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.WriteQueueSize <= 0 {
		cfg.WriteQueueSize = clipboard.DefaultQueueSize
	}
	if codec == nil {
		codec, _ = protocol.NewCodec(nil)
	}

	e := &Engine{
		cfg:     cfg,
		codec:   codec,
		dialer:  dialer,
		history: store,
		bridge:  bridge,
		log:     log.With(logging.KeyComponent, "engine", logging.KeyDeviceID, cfg.DeviceID),
		now:     time.Now,
		events:  make(chan event, eventBuffer),
		done:    make(chan struct{}),
		roster:  make(map[string]Device),
	}
	e.writer = clipboard.NewWriter(bridge, cfg.WriteQueueSize, e.log, e.platformError)
	return e
}

// Subscribe registers fn for every status transition. Hooks run on the engine
// goroutine and must not block or call back into blocking Engine methods.
func (e *Engine) Subscribe(fn func(StatusChange)) {
	e.hookMu.Lock()
	defer e.hookMu.Unlock()
	e.statusHooks = append(e.statusHooks, fn)
}

// OnPlatformError sets the hook receiving clipboard failures (common.ErrPlatform).
// These are reported, never retried.
func (e *Engine) OnPlatformError(fn func(error)) {
	e.hookMu.Lock()
	defer e.hookMu.Unlock()
	e.platformErrHook = fn
}

// Status returns the current connection state.
func (e *Engine) Status() State {
	return State(e.state.Load())
}

// DeviceID returns the local device id.
func (e *Engine) DeviceID() string {
	return e.cfg.DeviceID
}

// Devices returns the roster: the current device first, then by last activity.
func (e *Engine) Devices() []Device {
	e.rosterMu.RLock()
	out := make([]Device, 0, len(e.roster))
	for _, d := range e.roster {
		out = append(out, d)
	}
	e.rosterMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Current != out[j].Current {
			return out[i].Current
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}

// Connect opens the relay connection and waits for the outcome. It returns
// nil at once when already connected and joins an attempt in flight. Dial
// failures wrap common.ErrTransport. The dial is abandoned when the ctx of the
// call that started it is done.
func (e *Engine) Connect(ctx context.Context, token string) error {
	reply := make(chan error, 1)
	if err := e.post(connectRequest{ctx: ctx, token: token, reply: reply}); err != nil {
		return err
	}
	return e.await(ctx, reply)
}

// Disconnect closes the connection. The Reconnector leaves an explicit
// disconnect alone.
func (e *Engine) Disconnect(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := e.post(disconnectRequest{reply: reply}); err != nil {
		return err
	}
	return e.await(ctx, reply)
}

// Send transmits text to the other devices. It is a no-op unless connected.
func (e *Engine) Send(text string) error {
	return e.post(sendRequest{text: text})
}

// Publish treats text as a local clipboard change: it is recorded in history,
// placed on the OS clipboard and sent.
func (e *Engine) Publish(text string) error {
	return e.post(localChange{text: text, write: true})
}

// SetCodec replaces the payload codec, e.g. after a key import.
func (e *Engine) SetCodec(c *protocol.Codec) error {
	return e.post(codecChange{codec: c})
}

// Run processes events until ctx is done. It may be called once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine already running")
	}
	defer close(e.done)

	e.log.Info(ctx, "sync engine started")

	changes := e.bridge.Changes()
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		case text, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			e.handleLocalChange(ctx, localChange{text: text})
		case ev := <-e.events:
			e.handle(ctx, ev)
		}
	}
}

func (e *Engine) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case connectRequest:
		e.handleConnect(ctx, ev)
	case dialResult:
		e.handleDialResult(ctx, ev)
	case frameReceived:
		if ev.gen == e.gen {
			e.handleFrame(ctx, ev.data)
		}
	case connClosed:
		if ev.gen == e.gen && e.sock != nil {
			e.log.Warn(ctx, "connection lost", logging.KeyError, ev.err)
			e.dropConnection(ev.err)
		}
	case heartbeatTick:
		if ev.gen == e.gen && e.sock != nil {
			e.write(ctx, []byte(common.FramePing))
		}
	case disconnectRequest:
		e.handleDisconnect(ctx)
		ev.reply <- nil
	case localChange:
		e.handleLocalChange(ctx, ev)
	case sendRequest:
		e.send(ctx, ev.text)
	case codecChange:
		e.codec = ev.codec
	}
}

func (e *Engine) handleConnect(ctx context.Context, req connectRequest) {
	switch e.Status() {
	case Connected:
		req.reply <- nil
		return
	case Connecting:
		e.waiters = append(e.waiters, req.reply)
		return
	}

	e.gen++
	gen := e.gen
	e.explicit = false
	e.waiters = []chan error{req.reply}
	e.setState(Connecting, nil)

	parent := req.ctx
	if parent == nil {
		parent = ctx
	}
	dialCtx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(ctx, cancel)
	e.cancelDial = func() {
		stop()
		cancel()
	}

	go func() {
		sock, err := e.dialer.Dial(dialCtx, req.token)
		if perr := e.post(dialResult{gen: gen, sock: sock, err: err}); perr != nil && sock != nil {
			_ = sock.Close()
		}
	}()
}

func (e *Engine) handleDialResult(ctx context.Context, r dialResult) {
	if r.gen == e.gen {
		e.stopDial()
	}
	if r.gen != e.gen || e.Status() != Connecting {
		if r.sock != nil {
			_ = r.sock.Close()
		}
		return
	}

	if r.err != nil {
		err := r.err
		if !errors.Is(err, common.ErrTransport) {
			err = fmt.Errorf("%w: %v", common.ErrTransport, err)
		}
		e.log.Warn(ctx, "connect failed", logging.KeyError, err)
		e.setState(Disconnected, err)
		e.replyWaiters(err)
		return
	}

	e.sock = r.sock
	e.outbox = make(chan []byte, sendBuffer)
	e.stopConn = make(chan struct{})
	e.flushed = make(chan struct{})
	e.setState(Connected, nil)
	e.touchDevice(e.cfg.DeviceID, e.localLabel(), true)

	go e.readPump(r.gen, r.sock)
	go e.writePump(r.gen, r.sock, e.outbox, e.stopConn, e.flushed)
	e.startHeartbeat(r.gen, e.stopConn)

	e.log.Info(ctx, "connected")
	e.replyWaiters(nil)
}

func (e *Engine) handleDisconnect(ctx context.Context) {
	e.explicit = true

	switch e.Status() {
	case Connected:
		e.teardown()
		e.setState(Disconnected, nil)
		e.log.Info(ctx, "disconnected")
	case Connecting:
		// the dial result will be stale and its socket closed
		e.stopDial()
		e.gen++
		e.replyWaiters(fmt.Errorf("%w: disconnected while connecting", common.ErrTransport))
		e.setState(Disconnected, nil)
	}
}

// handleFrame dispatches one inbound frame. Heartbeats, self-echo and frames
// that fail to decode or open are dropped without touching the connection.
func (e *Engine) handleFrame(ctx context.Context, data []byte) {
	if protocol.IsHeartbeat(data) {
		return
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		e.log.Debug(ctx, "dropping malformed frame", logging.KeyError, err)
		return
	}
	if msg.DeviceID == e.cfg.DeviceID {
		return
	}

	text, err := e.codec.Open(msg.Payload)
	if err != nil {
		e.log.Debug(ctx, "dropping frame", "from", msg.DeviceID, logging.KeyError, err)
		return
	}

	label := msg.DeviceName
	if label == "" {
		label = remoteDeviceLabel
	}

	e.history.Append(text, history.SourceRemote, label)
	e.touchDevice(msg.DeviceID, label, false)
	e.writer.Enqueue(text)
}

func (e *Engine) handleLocalChange(ctx context.Context, c localChange) {
	if c.text == "" {
		return
	}
	e.history.Append(c.text, history.SourceLocal, e.localLabel())
	if c.write {
		e.writer.Enqueue(c.text)
	}
	e.send(ctx, c.text)
}

func (e *Engine) send(ctx context.Context, text string) {
	if e.Status() != Connected || e.sock == nil || e.cfg.DeviceID == "" {
		return
	}

	frame, err := e.codec.SealMessage(e.cfg.DeviceID, e.cfg.DeviceName, text)
	if err != nil {
		e.log.Error(ctx, "failed to seal clipboard payload", logging.KeyError, err)
		return
	}
	e.write(ctx, frame)
}

// write queues frame for the write pump. A full queue means the relay stopped
// reading, and the connection is dropped.
func (e *Engine) write(ctx context.Context, frame []byte) {
	select {
	case e.outbox <- frame:
	default:
		err := fmt.Errorf("%w: send queue full", common.ErrTransport)
		e.log.Warn(ctx, "relay is not accepting frames", logging.KeyError, err)
		e.dropConnection(err)
	}
}

// writePump writes queued frames in order. Once stop is closed it flushes
// what is already queued and closes flushed.
func (e *Engine) writePump(gen uint64, sock relay.Socket, out <-chan []byte, stop <-chan struct{}, flushed chan<- struct{}) {
	defer close(flushed)
	for {
		select {
		case frame := <-out:
			if err := sock.WriteText(frame); err != nil {
				_ = e.post(connClosed{gen: gen, err: err})
				return
			}
		case <-stop:
			for {
				select {
				case frame := <-out:
					if sock.WriteText(frame) != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) readPump(gen uint64, sock relay.Socket) {
	for {
		data, err := sock.ReadFrame()
		if err != nil {
			_ = e.post(connClosed{gen: gen, err: err})
			return
		}
		if e.post(frameReceived{gen: gen, data: data}) != nil {
			return
		}
	}
}

func (e *Engine) startHeartbeat(gen uint64, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(e.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case e.events <- heartbeatTick{gen: gen}:
				case <-stop:
					return
				case <-e.done:
					return
				}
			}
		}
	}()
}

// dropConnection handles a connection lost without Disconnect.
func (e *Engine) dropConnection(cause error) {
	e.teardown()
	e.setState(Disconnected, cause)
}

// teardown stops the pumps of the current socket, gives queued frames up to
// flushTimeout to go out, then closes the socket.
func (e *Engine) teardown() {
	if e.stopConn != nil {
		close(e.stopConn)
		timer := time.NewTimer(flushTimeout)
		select {
		case <-e.flushed:
		case <-timer.C:
		}
		timer.Stop()
		e.stopConn, e.flushed, e.outbox = nil, nil, nil
	}
	if e.sock != nil {
		_ = e.sock.Close()
		e.sock = nil
	}
	e.gen++
}

func (e *Engine) stopDial() {
	if e.cancelDial != nil {
		e.cancelDial()
		e.cancelDial = nil
	}
}

func (e *Engine) shutdown() {
	e.explicit = true
	e.stopDial()
	e.teardown()
	e.replyWaiters(ErrStopped)
	e.setState(Disconnected, nil)

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	e.writer.Drain(ctx)
	e.log.Info(ctx, "sync engine stopped")
}

func (e *Engine) setState(s State, err error) {
	prev := State(e.state.Swap(int32(s)))
	if prev == s {
		return
	}

	change := StatusChange{State: s, Err: err, Explicit: s == Disconnected && e.explicit}

	e.hookMu.RLock()
	hooks := make([]func(StatusChange), len(e.statusHooks))
	copy(hooks, e.statusHooks)
	e.hookMu.RUnlock()

	for _, h := range hooks {
		h(change)
	}
}

func (e *Engine) replyWaiters(err error) {
	for _, w := range e.waiters {
		w <- err
	}
	e.waiters = nil
}

func (e *Engine) platformError(err error) {
	e.hookMu.RLock()
	h := e.platformErrHook
	e.hookMu.RUnlock()
	if h != nil {
		h(err)
	}
}

func (e *Engine) touchDevice(id, name string, current bool) {
	e.rosterMu.Lock()
	defer e.rosterMu.Unlock()
	e.roster[id] = Device{ID: id, Name: name, LastSeen: e.now(), Current: current}
}

func (e *Engine) localLabel() string {
	if e.cfg.DeviceName != "" {
		return e.cfg.DeviceName
	}
	return localDeviceLabel
}

func (e *Engine) post(ev event) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}

	select {
	case e.events <- ev:
		return nil
	case <-e.done:
		return ErrStopped
	}
}

func (e *Engine) await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrStopped
		}
	}
}
