package relay

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/echosync/internal/logging"
)

// sendBuffer is the per-connection outbound queue length.
const sendBuffer = 64

// Hub tracks the live connections of every account.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*conn]struct{}

	history *History
	log     logging.Logger
	now     func() time.Time
}

func NewHub(history *History, log logging.Logger) *Hub {
	return &Hub{
		groups:  make(map[string]map[*conn]struct{}),
		history: history,
		log:     log.With(logging.KeyComponent, "hub"),
		now:     time.Now,
	}
}

func (h *Hub) register(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[c.accountID]
	if !ok {
		g = make(map[*conn]struct{})
		h.groups[c.accountID] = g
	}
	g[c] = struct{}{}
}

func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g := h.groups[c.accountID]
	delete(g, c)
	if len(g) == 0 {
		delete(h.groups, c.accountID)
	}
}

// Connections returns the number of live connections of accountID.
func (h *Hub) Connections(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[accountID])
}

// broadcast records data and queues it on every connection of the sender's
// account. Slow connections miss the frame.
func (h *Hub) broadcast(ctx context.Context, from *conn, data string) {
	h.history.Add(from.accountID, Frame{ConnectionID: from.id, ReceivedAt: h.now(), Data: data})

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[from.accountID] {
		if !c.enqueue(data) {
			h.log.Warn(ctx, "send buffer full, dropping frame", "connection", c.id)
		}
	}
}
