package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.Empty(t, store.Read(ctx))

	require.NoError(t, store.Save(ctx, "token-1"))
	assert.Equal(t, "token-1", store.Read(ctx))

	require.NoError(t, store.Save(ctx, "token-2"))
	assert.Equal(t, "token-2", store.Read(ctx))

	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, store.Read(ctx))

	// Clearing an already-empty slot is fine.
	require.NoError(t, store.Clear(ctx))
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	assert.Empty(t, store.Read(ctx))

	require.NoError(t, store.Save(ctx, "token-1"))
	assert.Equal(t, "token-1", store.Read(ctx))

	require.NoError(t, store.Save(ctx, "token-2"))
	assert.Equal(t, "token-2", store.Read(ctx))

	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, store.Read(ctx))
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "persisted"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, "persisted", second.Read(ctx))
}

func TestSQLiteStoreReadOnClosedHandle(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "token"))
	require.NoError(t, store.Close())

	// A dead backend reads as "no session", never as an error.
	assert.Empty(t, store.Read(ctx))
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	assert.Empty(t, store.Read(ctx))

	require.NoError(t, store.Save(ctx, "token-1"))
	assert.Equal(t, "token-1", store.Read(ctx))

	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, store.Read(ctx))
}

func TestRedisStoreReadWithDeadServer(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, store.Save(ctx, "token"))

	mr.Close()
	assert.Empty(t, store.Read(ctx))
}

func TestNewRedisStoreAcceptsURLAndBareAddr(t *testing.T) {
	_, err := NewRedisStore("localhost:6379")
	assert.NoError(t, err)

	_, err = NewRedisStore("redis://localhost:6379/0")
	assert.NoError(t, err)

	_, err = NewRedisStore("redis://bad url^")
	assert.Error(t, err)
}
