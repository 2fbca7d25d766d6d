package domain

import "time"

// WishlistItem is one saved product. Owner is the storefront session id; a
// product appears at most once per owner.
type WishlistItem struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"-"`
	ProductID string    `bson:"product_id" json:"productId"`
	Name      string    `bson:"name" json:"name"`
	Price     float64   `bson:"price" json:"price"`
	Image     string    `bson:"image" json:"image"`
	Category  string    `bson:"category" json:"category"`
	AddedAt   time.Time `bson:"added_at" json:"addedAt"`
}
