package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/logging"
	"github.com/dmitrijs2005/echosync/internal/server/auth"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 1 << 20
)

// Options tune a Handler.
type Options struct {
	PingInterval time.Duration
	MinInterval  time.Duration
	WindowLimit  int
	Window       time.Duration
}

// Handler serves the relay HTTP surface.
type Handler struct {
	hub       *Hub
	secretKey []byte
	opts      Options
	log       logging.Logger
	upgrader  websocket.Upgrader

	wg sync.WaitGroup
}

func NewHandler(hub *Hub, secretKey []byte, opts Options, log logging.Logger) *Handler {
	return &Handler{
		hub:       hub,
		secretKey: secretKey,
		opts:      opts,
		log:       log.With(logging.KeyComponent, "relay"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// native clients send no Origin; browsers are authenticated by token
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes returns the relay mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", h.ServeWS)
	mux.HandleFunc("GET /history", h.ServeHistory)
	mux.HandleFunc("GET /healthz", h.ServeHealth)
	return mux
}

// Wait blocks until every connection served so far has closed.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.authenticate(bearerToken(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.hub.history.Get(accountID)); err != nil {
		h.log.Error(r.Context(), "failed to write history", logging.KeyError, err)
	}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get(common.TokenQueryParam)
	if token == "" {
		token = bearerToken(r)
	}

	accountID, err := h.authenticate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logging.KeyError, err)
		return
	}

	c := &conn{
		id:        uuid.NewString(),
		accountID: accountID,
		ws:        ws,
		send:      make(chan string, sendBuffer),
		done:      make(chan struct{}),
		limiter:   NewLimiter(h.opts.MinInterval, h.opts.WindowLimit, h.opts.Window),
	}

	h.hub.register(c)
	h.log.Info(r.Context(), "connection opened", "connection", c.id, "account", accountID,
		"connections", h.hub.Connections(accountID))

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		h.writePump(c)
	}()
	go func() {
		defer h.wg.Done()
		h.readPump(c)
	}()
}

func (h *Handler) authenticate(token string) (string, error) {
	if token == "" {
		return "", common.ErrInvalidToken
	}
	return auth.GetAccountIDFromToken(token, h.secretKey)
}

func (h *Handler) readPump(c *conn) {
	ctx := context.Background()
	defer func() {
		h.hub.unregister(c)
		c.close()
		h.log.Info(ctx, "connection closed", "connection", c.id, "account", c.accountID)
	}()

	deadline := 2 * h.opts.PingInterval
	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(deadline))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug(ctx, "read failed", "connection", c.id, logging.KeyError, err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(deadline))

		if typ != websocket.TextMessage {
			continue
		}

		text := string(data)
		if text == common.FramePing {
			c.enqueue(common.FramePong)
			continue
		}

		if !c.limiter.Allow(h.hub.now()) {
			h.log.Warn(ctx, "rate limited", "connection", c.id)
			continue
		}

		h.hub.broadcast(ctx, c, text)
	}
}

func (h *Handler) writePump(c *conn) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case text := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				c.close()
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// Shutdown closes every live connection.
func (h *Handler) Shutdown() {
	h.hub.mu.RLock()
	var all []*conn
	for _, g := range h.hub.groups {
		for c := range g {
			all = append(all, c)
		}
	}
	h.hub.mu.RUnlock()

	for _, c := range all {
		c.close()
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "bearer "
	v := r.Header.Get(common.AuthorizationHeaderName)
	if len(v) > len(prefix) && strings.EqualFold(v[:len(prefix)], prefix) {
		return strings.TrimSpace(v[len(prefix):])
	}
	return ""
}

type conn struct {
	id        string
	accountID string
	ws        *websocket.Conn
	send      chan string
	done      chan struct{}
	once      sync.Once
	limiter   *Limiter
}

func (c *conn) enqueue(text string) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- text:
		return true
	default:
		return false
	}
}

func (c *conn) close() {
	c.once.Do(func() { close(c.done) })
}
