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

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	var got payload
	hit, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "products", payload{Name: "catalogue", Count: 3}, time.Minute))
	hit, err = c.Get(ctx, "products", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "catalogue", Count: 3}, got)

	require.NoError(t, c.Delete(ctx, "products"))
	hit, err = c.Get(ctx, "products", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory())
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(context.Background(), "k", payload{Count: 1}, time.Second))
	now = now.Add(2 * time.Second)

	var got payload
	hit, err := m.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "kabro:")
	defer r.Close()

	require.NoError(t, r.Ping(context.Background()))
	exerciseCache(t, r)

	require.NoError(t, r.Set(context.Background(), "ttl", payload{}, time.Minute))
	assert.True(t, mr.Exists("kabro:ttl"))
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("kabro:ttl"))
}
