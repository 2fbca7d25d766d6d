package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stylehub/storefront/wishlist-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, 10*time.Minute), mr
}

func TestSetAndGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	items := []domain.WishlistItem{
		{ID: "w1", Owner: "s1", ProductID: "p1", Name: "Tee", Price: 29.99},
		{ID: "w2", Owner: "s1", ProductID: "p2", Name: "Jacket", Price: 89.99},
	}
	require.NoError(t, cache.Set(ctx, "s1", items, 0))
	assert.True(t, mr.Exists("wishlist:s1"))

	ttl := mr.TTL("wishlist:s1")
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.Less(t, ttl, 11*time.Minute)

	got, err := cache.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("wishlist:s1", "{not json"))

	_, err := cache.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal wishlist failed")
}

func TestSet_EmptyList(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "s1", []domain.WishlistItem{}, 0))
	got, err := cache.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "s1", []domain.WishlistItem{{ID: "w1"}}, 0))
	require.NoError(t, cache.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("wishlist:s1"))

	// deleting a missing key is fine
	require.NoError(t, cache.Delete(ctx, "s1"))
}

func TestSet_RefusedAfterInvalidation(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	version, err := cache.Version(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	// a write lands between the reader's epoch read and its write-back
	require.NoError(t, cache.Delete(ctx, "s1"))

	err = cache.Set(ctx, "s1", []domain.WishlistItem{{ID: "stale"}}, version)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.False(t, mr.Exists("wishlist:s1"))

	version, err = cache.Version(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	require.NoError(t, cache.Set(ctx, "s1", []domain.WishlistItem{{ID: "fresh"}}, version))

	got, err := cache.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)
}

func TestDelete_BumpsEpochWithExpiry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Delete(ctx, "s1"))
	require.NoError(t, cache.Delete(ctx, "s1"))

	version, err := cache.Version(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, epochTTL, mr.TTL("wishlist:s1:epoch"))
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
