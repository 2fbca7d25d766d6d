package domain

import "time"

// Product is read-only catalog content.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Category string   `json:"category"`
	Image    string   `json:"image"`
	InStock  bool     `json:"inStock"`
	Sizes    []string `json:"sizes"`
	Colors   []string `json:"colors"`
	Rating   float64  `json:"rating"`
	Reviews  int      `json:"reviews"`
}

// CartLineItem is keyed by (ProductID, Size, Color). Price is the unit price
// at the time the item was added.
type CartLineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type WishlistEntry struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Image     string    `json:"image"`
	Category  string    `json:"category"`
	AddedAt   time.Time `json:"addedAt"`
	// Pending is set on optimistic entries not yet confirmed by the server.
	Pending bool `json:"-"`
}

// UserInfo is the billing snapshot carried in a checkout.
type UserInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type CheckoutPayload struct {
	SessionID string         `json:"sessionId"`
	CartItems []CartLineItem `json:"cartItems"`
	Total     float64        `json:"total"`
	UserInfo  UserInfo       `json:"userInfo"`
}

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPayPal PaymentMethod = "paypal"
)

type OrderStatus string

const (
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
)

type Order struct {
	OrderID       string         `json:"orderId"`
	SessionID     string         `json:"sessionId"`
	Status        OrderStatus    `json:"status"`
	Total         float64        `json:"total"`
	Items         []CartLineItem `json:"items"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Comment rating is 1..5, or 0 when the author gave none.
type Comment struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Author    string    `json:"author"`
	Email     string    `json:"email,omitempty"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentStats struct {
	TotalComments      int         `json:"totalComments"`
	TotalRatings       int         `json:"totalRatings"`
	AverageRating      float64     `json:"averageRating"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}
