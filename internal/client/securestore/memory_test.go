package securestore

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_StagesUntilSave(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v"))
	_, durable := m.Saved("k")
	assert.False(t, durable)

	require.NoError(t, m.Save(ctx))
	v, durable := m.Saved("k")
	assert.True(t, durable)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, m.Saves)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Failure(t *testing.T) {
	m := NewMemoryStore()
	m.SetFailure(common.ErrStorage)
	ctx := context.Background()

	_, _, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.ErrorIs(t, m.Set(ctx, "k", "v"), common.ErrStorage)
	assert.ErrorIs(t, m.Save(ctx), common.ErrStorage)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
