package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CanTransitionTo allows only the next step of Processing -> Shipped -> Delivered.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusProcessing:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPayPal PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodPayPal
}

type Order struct {
	OrderID           string        `db:"id" json:"orderId"`
	SessionID         string        `db:"session_id" json:"sessionId"`
	CheckoutMessageID string        `db:"checkout_message_id" json:"checkoutMessageId"`
	Status            OrderStatus   `db:"status" json:"status"`
	Total             float64       `db:"total" json:"total"`
	Items             []CartItem    `db:"-" json:"items"`
	UserInfo          UserInfo      `db:"-" json:"userInfo"`
	PaymentMethod     PaymentMethod `db:"payment_method" json:"paymentMethod"`
	CreatedAt         time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updatedAt"`
}

// NewOrderID returns an id in the storefront's ORD-XXXXXXXXXXXXXXXX format.
func NewOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

// OrderPlacedEvent is the outbox payload published for every new order.
type OrderPlacedEvent struct {
	OrderID           string        `json:"orderId"`
	SessionID         string        `json:"sessionId"`
	CheckoutMessageID string        `json:"checkoutMessageId"`
	Items             []CartItem    `json:"items"`
	Total             float64       `json:"total"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	Status            OrderStatus   `json:"status"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// OrderStatusChangedEvent is published when an order moves forward.
type OrderStatusChangedEvent struct {
	OrderID   string      `json:"orderId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedAt time.Time   `json:"changedAt"`
}

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)
