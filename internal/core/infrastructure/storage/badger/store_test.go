package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/zkreceipt/internal/config/storage/badger"
)

func setupTestStore(t *testing.T, inMemory bool) *Store {
	t.Helper()
	options := &badgerconfig.BadgerOptions{Path: t.TempDir(), InMemory: inMemory}
	store, err := New(options, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBasicOperations(t *testing.T) {
	store := setupTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, []byte("k"), []byte("v")))
	val, err := store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	exists, err := store.Exists(ctx, []byte("k"))
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, []byte("k")))
	val, err = store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestSetIfAbsent(t *testing.T) {
	store := setupTestStore(t, true)
	ctx := context.Background()

	written, err := store.SetIfAbsent(ctx, []byte("k"), []byte("first"))
	require.NoError(t, err)
	assert.True(t, written)

	written, err = store.SetIfAbsent(ctx, []byte("k"), []byte("second"))
	require.NoError(t, err)
	assert.False(t, written)

	val, err := store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), val)
}

func TestPrefixKeys(t *testing.T) {
	store := setupTestStore(t, true)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Set(ctx, []byte(fmt.Sprintf("r/%d", i)), []byte{byte(i)}))
	}
	require.NoError(t, store.Set(ctx, []byte("other"), []byte("x")))

	keys, err := store.PrefixKeys(ctx, []byte("r/"), 0)
	require.NoError(t, err)
	require.Len(t, keys, 5)
	assert.Equal(t, []byte("r/0"), keys[0])

	keys, err = store.PrefixKeys(ctx, []byte("r/"), 2)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(&badgerconfig.BadgerOptions{Path: dir, SyncWrites: true}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, []byte("k"), []byte("v")))
	require.NoError(t, store.Close())

	reopened, err := New(&badgerconfig.BadgerOptions{Path: dir}, nil)
	require.NoError(t, err)
	defer reopened.Close()
	val, err := reopened.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestWriteAfterClose(t *testing.T) {
	store, err := New(&badgerconfig.BadgerOptions{InMemory: true}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Set(context.Background(), []byte("k"), []byte("v")), ErrClosing)
}

func TestRunValueLogGC(t *testing.T) {
	store := setupTestStore(t, false)
	assert.NoError(t, store.RunValueLogGC(context.Background(), 0.5))
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(&badgerconfig.BadgerOptions{}, nil)
	assert.Error(t, err)
}
