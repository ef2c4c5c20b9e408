package relay

import (
	"sync"
	"time"
)

// Frame is one forwarded message as kept in the account history.
type Frame struct {
	ConnectionID string    `json:"connection_id"`
	ReceivedAt   time.Time `json:"received_at"`
	Data         string    `json:"data"`
}

// History keeps the newest frames of every account, newest first.
type History struct {
	mu     sync.RWMutex
	size   int
	frames map[string][]Frame
}

func NewHistory(size int) *History {
	return &History{size: size, frames: make(map[string][]Frame)}
}

func (h *History) Add(accountID string, f Frame) {
	if h.size <= 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.frames[accountID]
	next := make([]Frame, 0, min(len(cur)+1, h.size))
	next = append(next, f)
	next = append(next, cur[:min(len(cur), h.size-1)]...)
	h.frames[accountID] = next
}

// Get returns a copy of the account's frames, newest first.
func (h *History) Get(accountID string) []Frame {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Frame, len(h.frames[accountID]))
	copy(out, h.frames[accountID])
	return out
}
