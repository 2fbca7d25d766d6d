package domain

// CartItem is a cart line snapshot taken when checkout begins.
type CartItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
	Price     float64 `json:"price" validate:"gte=0"`
}

type UserInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// CheckoutPayload is what the storefront enqueues and the payment portal
// later receives by session id.
type CheckoutPayload struct {
	SessionID string     `json:"sessionId" validate:"required"`
	CartItems []CartItem `json:"cartItems" validate:"min=1,dive"`
	Total     float64    `json:"total" validate:"gte=0"`
	UserInfo  UserInfo   `json:"userInfo"`
}
