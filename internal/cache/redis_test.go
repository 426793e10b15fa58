package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideFetchesOnMissAndCachesResult(t *testing.T) {
	ctx := context.Background()
	withMiniredis(t)

	fetches := 0
	fetch := func(dest *string) func() error {
		return func() error {
			fetches++
			*dest = "resolved"
			return nil
		}
	}

	var got string
	require.NoError(t, Aside(ctx, "k", &got, time.Minute, fetch(&got)))
	assert.Equal(t, "resolved", got)
	assert.Equal(t, 1, fetches)

	var again string
	require.NoError(t, Aside(ctx, "k", &again, time.Minute, fetch(&again)))
	assert.Equal(t, "resolved", again)
	assert.Equal(t, 1, fetches, "the second read is a cache hit")
}

func TestAsideWithoutCacheFallsThrough(t *testing.T) {
	ctx := context.Background()
	SetClient(nil)

	var got string
	err := Aside(ctx, "k", &got, time.Minute, func() error {
		got = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", got)
}

func TestAsidePropagatesFetchError(t *testing.T) {
	ctx := context.Background()
	withMiniredis(t)

	boom := errors.New("boom")
	var got string
	err := Aside(ctx, "k", &got, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestAsideDropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr := withMiniredis(t)
	require.NoError(t, mr.Set("k", "{not json"))

	var got string
	err := Aside(ctx, "k", &got, time.Minute, func() error {
		got = "refetched"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "refetched", got)
}

func TestInvalidateUser(t *testing.T) {
	ctx := context.Background()
	mr := withMiniredis(t)
	require.NoError(t, mr.Set(UserKey("u1"), `"cached"`))
	require.NoError(t, mr.Set(UserNameKey("u1"), `"cached"`))

	InvalidateUser(ctx, "u1")
	assert.False(t, mr.Exists(UserKey("u1")))
	assert.False(t, mr.Exists(UserNameKey("u1")))
}
