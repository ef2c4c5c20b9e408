// Package securestore is the durable key-value store holding the shared key
// and the device id.
//
// Writes are staged: Set and Delete are visible to Get immediately but only
// reach durable storage when Save succeeds. A value is not considered
// established until Save has returned nil.
package securestore

import "context"

// Store is a key-scoped secret store with an explicit flush.
type Store interface {
	// Get returns the value for key. ok is false when no value exists.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Save flushes staged writes. Errors wrap common.ErrStorage.
	Save(ctx context.Context) error
}

// change is a staged write; deleted distinguishes Delete from Set("").
type change struct {
	value   string
	deleted bool
}
