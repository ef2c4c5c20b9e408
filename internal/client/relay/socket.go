package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/logging"
	"github.com/dmitrijs2005/echosync/internal/netx"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
	maxFrameSize     = 1 << 20
	wsPath           = "/ws"
)

// Socket is one open duplex connection. ReadFrame is called from a single
// goroutine; WriteText and Close may be called concurrently with it.
type Socket interface {
	ReadFrame() ([]byte, error)
	WriteText(data []byte) error
	Close() error
}

// Dialer opens sockets to the relay.
type Dialer interface {
	Dial(ctx context.Context, token string) (Socket, error)
}

// WSDialer dials the relay over gorilla/websocket. The token travels both in
// the query string and as a bearer Authorization header.
type WSDialer struct {
	relayURL string
	dialer   websocket.Dialer
	log      logging.Logger
}

func NewDialer(relayURL string, log logging.Logger) *WSDialer {
	return &WSDialer{
		relayURL: relayURL,
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		log: log.With(logging.KeyComponent, "relay"),
	}
}

// Dial connects to <relay>/ws. Failures wrap common.ErrTransport; a 401 from
// the relay additionally wraps common.ErrInvalidToken.
func (d *WSDialer) Dial(ctx context.Context, token string) (Socket, error) {
	u, err := netx.WebSocketURL(d.relayURL, wsPath, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}

	header := http.Header{}
	if token != "" {
		header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	conn, resp, err := d.dialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", common.ErrTransport, common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}

	conn.SetReadLimit(maxFrameSize)
	d.log.Debug(ctx, "socket opened", "relay", d.relayURL)

	return &wsSocket{conn: conn}, nil
}

type wsSocket struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
}

func (s *wsSocket) ReadFrame() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, fmt.Errorf("%w: closed by peer", common.ErrTransport)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	return data, nil
}

func (s *wsSocket) WriteText(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	return nil
}

// Close sends a normal close frame and releases the connection. Only the first
// call has an effect.
func (s *wsSocket) Close() error {
	var err error
	s.once.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	return nil
}
