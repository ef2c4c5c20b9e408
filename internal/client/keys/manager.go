package keys

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/echosync/internal/client/securestore"
	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/cryptox"
	"github.com/dmitrijs2005/echosync/internal/logging"
	"github.com/google/uuid"
)

// Manager owns the shared key and the device id for one installation.
// It is safe for concurrent use; concurrent first calls never generate twice.
type Manager struct {
	store securestore.Store
	log   logging.Logger

	mu       sync.Mutex
	key      SharedKey
	deviceID string
	degraded bool
}

func NewManager(store securestore.Store, log logging.Logger) *Manager {
	return &Manager{store: store, log: log.With(logging.KeyComponent, "keys")}
}

// Fingerprint returns the first 8 hex characters (uppercase) of SHA-256(key).
func Fingerprint(key SharedKey) string {
	return cryptox.Fingerprint(key)
}

// LoadOrCreateKey returns the installation's shared key, generating and
// persisting it on first use. A stored value that is not a valid 32-byte key
// yields common.ErrCorruptKey and is left untouched.
func (m *Manager) LoadOrCreateKey(ctx context.Context) (SharedKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		return bytes.Clone(m.key), nil
	}

	stored, ok, err := m.store.Get(ctx, common.StoreKeyEncryptionKey)
	if err != nil {
		m.useSessionKey(ctx, err)
		return bytes.Clone(m.key), nil
	}

	if ok && stored != "" {
		key, err := cryptox.DecodeKey(stored)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrCorruptKey, err)
		}
		m.key = key
		return bytes.Clone(m.key), nil
	}

	key := SharedKey(common.GenerateRandByteArray(common.KeySize))
	if err := m.persist(ctx, common.StoreKeyEncryptionKey, key.Encode()); err != nil {
		m.key = key
		m.degraded = true
		m.log.Warn(ctx, "failed to persist shared key, using it for this session only", logging.KeyError, err)
		return bytes.Clone(m.key), nil
	}

	m.key = key
	m.log.Info(ctx, "generated shared key", "fingerprint", key.Fingerprint())
	return bytes.Clone(m.key), nil
}

// Key returns the cached key without touching the store.
func (m *Manager) Key() (SharedKey, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return nil, false
	}
	return bytes.Clone(m.key), true
}

// ImportKey persists a key received from another device and makes it current.
func (m *Manager) ImportKey(ctx context.Context, key []byte) error {
	if len(key) != common.KeySize {
		return fmt.Errorf("%w: got %d bytes", common.ErrInvalidKey, len(key))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	imported := SharedKey(bytes.Clone(key))
	if err := m.persist(ctx, common.StoreKeyEncryptionKey, imported.Encode()); err != nil {
		return err
	}

	common.WipeByteArray(m.key)
	m.key = imported
	m.degraded = false
	m.log.Info(ctx, "imported shared key", "fingerprint", imported.Fingerprint())
	return nil
}

// ClearKey deletes the stored key and wipes the cached copy. The next
// LoadOrCreateKey generates a new one.
func (m *Manager) ClearKey(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	common.WipeByteArray(m.key)
	m.key = nil

	if err := m.store.Delete(ctx, common.StoreKeyEncryptionKey); err != nil {
		return err
	}
	return m.store.Save(ctx)
}

// GetOrCreateDeviceID returns the persisted device id, creating it on first
// use. If the store fails, a fresh id is used for the rest of the session.
func (m *Manager) GetOrCreateDeviceID(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deviceID != "" {
		return m.deviceID
	}

	stored, ok, err := m.store.Get(ctx, common.StoreKeyDeviceID)
	if err == nil && ok && stored != "" {
		m.deviceID = stored
		return m.deviceID
	}

	id := uuid.NewString()
	if err == nil {
		err = m.persist(ctx, common.StoreKeyDeviceID, id)
	}
	if err != nil {
		m.degraded = true
		m.log.Warn(ctx, "device id is not persisted", logging.KeyError, err)
	}

	m.deviceID = id
	return m.deviceID
}

// Degraded reports whether the key or device id lives only in memory.
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

func (m *Manager) useSessionKey(ctx context.Context, cause error) {
	m.key = SharedKey(common.GenerateRandByteArray(common.KeySize))
	m.degraded = true
	m.log.Warn(ctx, "secure store unavailable, using a session-only key", logging.KeyError, cause)
}

func (m *Manager) persist(ctx context.Context, slot, value string) error {
	if err := m.store.Set(ctx, slot, value); err != nil {
		return err
	}
	return m.store.Save(ctx)
}
