package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, "discovery:", time.Minute), mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "shops")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "shops", []byte(`[{"name":"Joe's"}]`)))
	assert.True(t, mr.Exists("discovery:shops"))

	got, err := c.Get(ctx, "shops")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Joe's"}]`, string(got))

	require.NoError(t, c.Delete(ctx, "shops", "bakeries"))
	_, err = c.Get(ctx, "shops")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Delete(ctx))
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "events", []byte("[]")))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "events")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := setupRedisCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), "shops")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Delete(ctx, "k"))
}
