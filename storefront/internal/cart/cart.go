package cart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/stylehub/storefront/storefront/internal/domain"
)

var (
	ErrInvalidOption   = errors.New("invalid product option")
	ErrInvalidQuantity = errors.New("quantity must not be negative")
)

// Cart is an in-memory list of line items keyed by (productId, size, color).
// Insertion order is preserved.
type Cart struct {
	mu    sync.Mutex
	items []domain.CartLineItem
}

func New() *Cart {
	return &Cart{}
}

// AddToCart increments the matching line or appends a new one with the
// product's current price. Empty size or color pick the product's first
// option.
func (c *Cart) AddToCart(p domain.Product, size, color string) error {
	size, err := resolveOption(size, p.Sizes, "size")
	if err != nil {
		return err
	}
	color, err = resolveOption(color, p.Colors, "color")
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(p.ID, size, color); i >= 0 {
		c.items[i].Quantity++
		return nil
	}

	c.items = append(c.items, domain.CartLineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		Size:      size,
		Color:     color,
		Quantity:  1,
		Price:     p.Price,
	})
	return nil
}

func (c *Cart) RemoveFromCart(productID, size, color string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(productID, size, color); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// UpdateQuantity sets the quantity of a line. Zero removes it.
func (c *Cart) UpdateQuantity(productID, size, color string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID, size, color)
	if i < 0 {
		return nil
	}
	if quantity == 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return nil
	}
	c.items[i].Quantity = quantity
	return nil
}

func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []domain.CartLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartLineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Load replaces the contents, e.g. from a persisted snapshot. Lines sharing
// a product, size and color are merged into the first one.
func (c *Cart) Load(items []domain.CartLineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make([]domain.CartLineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i := c.indexOf(item.ProductID, item.Size, item.Color); i >= 0 {
			c.items[i].Quantity += item.Quantity
			continue
		}
		c.items = append(c.items, item)
	}
}

func (c *Cart) indexOf(productID, size, color string) int {
	for i, item := range c.items {
		if item.ProductID == productID && item.Size == size && item.Color == color {
			return i
		}
	}
	return -1
}

func resolveOption(value string, options []string, kind string) (string, error) {
	if len(options) == 0 {
		return value, nil
	}
	if value == "" {
		return options[0], nil
	}
	for _, o := range options {
		if o == value {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %s %q", ErrInvalidOption, kind, value)
}
