package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("summary", "hello")
	b := Key("summary", "hello")
	c := Key("summary", "hel", "lo")
	d := Key("translation", "hello")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "parts must be separated")
	assert.NotEqual(t, a, d, "namespace must be part of the key")
	assert.Contains(t, a, "summary:")
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)

	_, found, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	got, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	c := NewMemoryCache(10)
	ctx := context.Background()

	value := []byte("summary")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "summary", string(got))

	got[0] = 'Y'
	again, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "summary", string(again))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Capacity(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)

	require.NoError(t, c.Set(ctx, "first", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "second", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "third", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, found, _ := c.Get(ctx, "first")
	assert.False(t, found, "entry closest to expiry is evicted")
	_, found, _ = c.Get(ctx, "third")
	assert.True(t, found)
}

func TestNewMemoryCache_DefaultCapacity(t *testing.T) {
	c := NewMemoryCache(0)
	assert.Equal(t, DefaultCapacity, c.capacity)
}

func TestRedisCache(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, srv.Addr(), "", 0, "readaloud:")
	require.NoError(t, err)
	defer c.Close()

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", []byte("cached"), time.Minute))
	assert.True(t, srv.Exists("readaloud:k"))

	got, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cached", string(got))

	srv.FastForward(2 * time.Minute)
	_, found, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := NewRedisCache(context.Background(), addr, "", 0, "")
	assert.Error(t, err)
}
