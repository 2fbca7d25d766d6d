package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stylehub/storefront/wishlist-service/internal/domain"
)

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

// epochTTL outlives any cached list (baseTTL plus jitter) by a wide margin.
const epochTTL = 24 * time.Hour

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// cachedItem keeps the owner out of the public JSON shape but in the cache.
type cachedItem struct {
	domain.WishlistItem
	Owner string `json:"owner"`
}

func (r *RedisCache) Get(ctx context.Context, owner string) ([]domain.WishlistItem, error) {
	data, err := r.client.Get(ctx, cacheKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached []cachedItem
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("unmarshal wishlist failed: %w", err)
	}

	items := make([]domain.WishlistItem, len(cached))
	for i, c := range cached {
		items[i] = c.WishlistItem
		items[i].Owner = c.Owner
	}
	return items, nil
}

// Version returns the owner's invalidation epoch, 0 if none was recorded.
func (r *RedisCache) Version(ctx context.Context, owner string) (int64, error) {
	v, err := r.client.Get(ctx, epochKey(owner)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get epoch failed: %w", err)
	}
	return v, nil
}

// Set writes items only while the owner's epoch still equals version.
func (r *RedisCache) Set(ctx context.Context, owner string, items []domain.WishlistItem, version int64) error {
	cached := make([]cachedItem, len(items))
	for i, item := range items {
		cached[i] = cachedItem{WishlistItem: item, Owner: item.Owner}
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal wishlist failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	ek := epochKey(owner)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, ek).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, cacheKey(owner), data, r.baseTTL+jitter)
			return nil
		})
		return err
	}, ek)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleVersion), errors.Is(err, redis.TxFailedErr):
		return ErrStaleVersion
	default:
		return fmt.Errorf("redis set failed: %w", err)
	}
}

// Delete drops the cached list and bumps the epoch so in-flight readers
// cannot write back what they loaded before the change.
func (r *RedisCache) Delete(ctx context.Context, owner string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, epochKey(owner))
		p.Expire(ctx, epochKey(owner), epochTTL)
		p.Del(ctx, cacheKey(owner))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(owner string) string {
	return fmt.Sprintf("wishlist:%s", owner)
}

func epochKey(owner string) string {
	return fmt.Sprintf("wishlist:%s:epoch", owner)
}
