package repository

import (
	"context"
	"errors"

	"github.com/stylehub/storefront/wishlist-service/internal/domain"
)

var (
	ErrAlreadyExists = errors.New("product already in wishlist")
	ErrItemNotFound  = errors.New("item not found in wishlist")
)

// WishlistRepository defines the storage operations the wishlist service needs.
type WishlistRepository interface {
	List(ctx context.Context, owner string) ([]domain.WishlistItem, error)
	Add(ctx context.Context, item *domain.WishlistItem) error
	Remove(ctx context.Context, owner, productID string) error
	Clear(ctx context.Context, owner string) (int64, error)
}
