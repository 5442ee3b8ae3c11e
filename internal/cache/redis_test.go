package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/bakehouse/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	products := []domain.Product{
		{ID: "p1", Name: "Classic Brookies", Price: 180, Stock: 20},
		{ID: "p2", Name: "Banana Loaf", Price: 150, Stock: 15},
	}
	data, _ := json.Marshal(products)
	mr.Set(cacheKey(), string(data))

	result, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "p1", result[0].ID)
	assert.Equal(t, 15, result[1].Stock)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set(cacheKey(), "not json")

	_, err := cache.Get(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	err := cache.Set(context.Background(), []domain.Product{{ID: "p1"}})
	require.NoError(t, err)

	assert.True(t, mr.Exists(cacheKey()))
	ttl := mr.TTL(cacheKey())
	assert.GreaterOrEqual(t, ttl, 5*time.Minute)
	assert.Less(t, ttl, 6*time.Minute)

	mr.FastForward(7 * time.Minute)
	_, err = cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, cache.Set(context.Background(), []domain.Product{{ID: "p1"}}))
	require.NoError(t, cache.Delete(context.Background()))
	assert.False(t, mr.Exists(cacheKey()))

	// deleting a missing key is fine
	require.NoError(t, cache.Delete(context.Background()))
}

func TestRedisDown(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	mr.Close()

	_, err := cache.Get(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
