package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	TicID      string  `json:"tic_id"`
	Confidence float64 `json:"confidence"`
}

func TestLRUCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(WithLRUSize(10))

	require.NoError(t, c.Set(ctx, "a", record{TicID: "1", Confidence: 62.7}, 0))

	got, err := GetTyped[record](ctx, c, "a")
	require.NoError(t, err)
	assert.Equal(t, record{TicID: "1", Confidence: 62.7}, got)

	var s string
	require.NoError(t, c.Set(ctx, "s", "raw", 0))
	require.NoError(t, c.Get(ctx, "s", &s))
	assert.Equal(t, "raw", s)

	_, err = GetTyped[record](ctx, c, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(WithLRUSize(2))

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	var v int
	require.NoError(t, c.Get(ctx, "a", &v))
	require.NoError(t, c.Set(ctx, "c", 3, 0))

	assert.ErrorIs(t, c.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "a", &v))
	assert.Equal(t, 2, c.Len())
}

func TestLRUCache_PerEntryExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache()

	require.NoError(t, c.Set(ctx, "short", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	var v int
	assert.ErrorIs(t, c.Get(ctx, "short", &v), ErrCacheMiss)
}

type failingRemote struct {
	*LRUCache
	setErr error
	gets   int
}

func (f *failingRemote) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.LRUCache.Set(ctx, key, value, exp)
}

func (f *failingRemote) Get(ctx context.Context, key string, dest interface{}) error {
	f.gets++
	return f.LRUCache.Get(ctx, key, dest)
}

func TestLayeredCache_ReadThroughAndWriteThrough(t *testing.T) {
	ctx := context.Background()
	remote := &failingRemote{LRUCache: NewLRUCache()}
	lc := NewLayeredCache(remote, WithLayeredMemorySize(10))

	require.NoError(t, remote.LRUCache.Set(ctx, "k", record{TicID: "7"}, 0))

	got, err := GetTyped[record](ctx, lc, "k")
	require.NoError(t, err)
	assert.Equal(t, "7", got.TicID)
	assert.Equal(t, 1, remote.gets)

	_, err = GetTyped[record](ctx, lc, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.gets, "second read is served from memory")

	remote.setErr = errors.New("redis down")
	assert.Error(t, lc.Set(ctx, "x", record{}, 0))
	_, err = GetTyped[record](ctx, lc, "x")
	assert.ErrorIs(t, err, ErrCacheMiss, "failed write-through does not populate memory")
}
