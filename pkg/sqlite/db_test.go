package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_SetGetDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, found, err := db.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, db.Set(ctx, "k", []byte(`{"a":1}`)))
	value, found, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"a":1}`, string(value))

	require.NoError(t, db.Set(ctx, "k", []byte(`{"a":2}`)))
	value, _, _ = db.Get(ctx, "k")
	assert.Equal(t, `{"a":2}`, string(value))

	require.NoError(t, db.Delete(ctx, "k"))
	require.NoError(t, db.Delete(ctx, "k"))
	_, found, _ = db.Get(ctx, "k")
	assert.False(t, found)
}

func TestDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "theme", []byte("dark")))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	value, found, err := db.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", string(value))
	assert.Equal(t, path, db.Path())
}

func TestBuildConnectionString(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", buildConnectionString("a.db"))
	assert.Contains(t, buildConnectionString("file:x?mode=memory"), "file:x?mode=memory&_pragma")
}
