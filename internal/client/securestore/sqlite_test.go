package securestore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE secrets (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func savedValue(t *testing.T, db *sql.DB, key string) (string, bool) {
	t.Helper()
	var v string
	err := db.QueryRow(`SELECT value FROM secrets WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false
	}
	require.NoError(t, err)
	return v, true
}

func TestSetIsStagedUntilSave(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, common.StoreKeyDeviceID, "dev-1"))

	v, ok, err := s.Get(ctx, common.StoreKeyDeviceID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dev-1", v, "staged value is visible")

	_, durable := savedValue(t, db, common.StoreKeyDeviceID)
	assert.False(t, durable, "nothing reaches the table before Save")

	require.NoError(t, s.Save(ctx))

	v, durable = savedValue(t, db, common.StoreKeyDeviceID)
	assert.True(t, durable)
	assert.Equal(t, "dev-1", v)
}

func TestGet_NotExists(t *testing.T) {
	s := NewSQLiteStore(setupDB(t))

	v, ok, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "old"))
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Set(ctx, "k", "new"))
	require.NoError(t, s.Save(ctx))

	v, _ := savedValue(t, db, "k")
	assert.Equal(t, "new", v)
}

func TestDelete_StagedThenSaved(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "x", "1"))
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Delete(ctx, "x"))

	_, ok, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok, "staged delete hides the value")

	require.NoError(t, s.Save(ctx))
	_, durable := savedValue(t, db, "x")
	assert.False(t, durable)

	// deleting an absent key is not an error
	require.NoError(t, s.Delete(ctx, "x"))
	require.NoError(t, s.Save(ctx))
}

func TestSave_NothingStagedIsNoop(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	require.NoError(t, db.Close())

	assert.NoError(t, s.Save(context.Background()))
}

func TestGet_DBErrorIsStorage(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	require.NoError(t, db.Close())

	_, _, err := s.Get(context.Background(), "k")
	require.ErrorIs(t, err, common.ErrStorage)
	assert.Contains(t, err.Error(), "failed to get secret[k]")
}

func TestSave_DBErrorIsStorageAndKeepsStaged(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, db.Close())

	err := s.Save(ctx)
	require.ErrorIs(t, err, common.ErrStorage)

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
