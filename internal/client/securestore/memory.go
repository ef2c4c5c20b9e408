package securestore

import (
	"context"
	"sync"
)

// MemoryStore keeps secrets in process memory. It backs degraded mode and
// tests. FailWith, when set, is returned by every operation.
type MemoryStore struct {
	mu       sync.Mutex
	saved    map[string]string
	pending  map[string]change
	FailWith error
	Saves    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saved: make(map[string]string), pending: make(map[string]change)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", false, m.FailWith
	}
	if c, ok := m.pending[key]; ok {
		if c.deleted {
			return "", false, nil
		}
		return c.value, true, nil
	}
	v, ok := m.saved[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.pending[key] = change{value: value}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.pending[key] = change{deleted: true}
	return nil
}

func (m *MemoryStore) Save(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	for k, c := range m.pending {
		if c.deleted {
			delete(m.saved, k)
		} else {
			m.saved[k] = c.value
		}
	}
	clear(m.pending)
	m.Saves++
	return nil
}

// Saved returns the durable value for key, ignoring staged writes.
func (m *MemoryStore) Saved(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.saved[key]
	return v, ok
}

// SetFailure makes every later call return err (nil restores normal operation).
func (m *MemoryStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailWith = err
}
