package cache

import (
	"context"
	"errors"

	"github.com/stylehub/storefront/wishlist-service/internal/domain"
)

// WishlistCache is a cache-aside store guarded by a per-owner epoch. Readers
// take the epoch before loading from the database and pass it to Set; any
// Delete in between bumps the epoch and the write-back is refused.
type WishlistCache interface {
	Get(ctx context.Context, owner string) ([]domain.WishlistItem, error)
	Version(ctx context.Context, owner string) (int64, error)
	Set(ctx context.Context, owner string, items []domain.WishlistItem, version int64) error
	Delete(ctx context.Context, owner string) error
}

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrStaleVersion = errors.New("cache invalidated since read")
)
