package clipboard

import (
	"context"
	"sync"
)

// MemoryBridge is an in-process clipboard. It backs headless sessions and
// tests. Emit simulates a user copying text.
type MemoryBridge struct {
	mu      sync.Mutex
	text    string
	writes  []string
	failErr error
	changes chan string
}

func NewMemoryBridge() *MemoryBridge {
	return &MemoryBridge{changes: make(chan string, changeBuffer)}
}

func (m *MemoryBridge) Read(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *MemoryBridge) Write(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.text = text
	m.writes = append(m.writes, text)
	return nil
}

func (m *MemoryBridge) Changes() <-chan string {
	return m.changes
}

// Emit sets the content and reports it as a change.
func (m *MemoryBridge) Emit(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	m.changes <- text
}

// Writes returns every text written through Write, in order.
func (m *MemoryBridge) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.writes))
	copy(out, m.writes)
	return out
}

// FailWrites makes Write return err (nil restores).
func (m *MemoryBridge) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}
