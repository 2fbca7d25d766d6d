package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/stylehub/storefront/storefront/internal/domain"
)

// AddOutcome tags a successful add. Failures are returned as errors.
type AddOutcome int

const (
	Created AddOutcome = iota + 1
	AlreadyExists
)

func (o AddOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	}
	return "unknown"
}

type AddResult struct {
	Outcome AddOutcome
	// Entry is set only for Created.
	Entry *domain.WishlistEntry
}

type WishlistClient struct {
	c *client
}

func NewWishlistClient(baseURL string, opts ...Option) *WishlistClient {
	return &WishlistClient{c: newClient("wishlist", baseURL, opts...)}
}

type addWishlistRequest struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Category  string  `json:"category"`
}

func (w *WishlistClient) List(ctx context.Context) ([]domain.WishlistEntry, error) {
	var resp struct {
		Items []domain.WishlistEntry `json:"items"`
	}
	if _, err := w.c.do(ctx, http.MethodGet, "/wishlist", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		resp.Items = []domain.WishlistEntry{}
	}
	return resp.Items, nil
}

func (w *WishlistClient) Add(ctx context.Context, p domain.Product) (AddResult, error) {
	req := addWishlistRequest{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
	}

	var entry domain.WishlistEntry
	_, err := w.c.do(ctx, http.MethodPost, "/wishlist", req, &entry)
	if IsStatus(err, http.StatusConflict) {
		return AddResult{Outcome: AlreadyExists}, nil
	}
	if err != nil {
		return AddResult{}, err
	}
	return AddResult{Outcome: Created, Entry: &entry}, nil
}

func (w *WishlistClient) Remove(ctx context.Context, productID string) error {
	_, err := w.c.do(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(productID), nil, nil)
	return err
}

func (w *WishlistClient) Clear(ctx context.Context) error {
	_, err := w.c.do(ctx, http.MethodDelete, "/wishlist", nil, nil)
	return err
}
