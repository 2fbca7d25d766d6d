package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stylehub/storefront/storefront/internal/cart"
	"github.com/stylehub/storefront/storefront/internal/checkout"
	"github.com/stylehub/storefront/storefront/internal/comments"
	"github.com/stylehub/storefront/storefront/internal/domain"
	"github.com/stylehub/storefront/storefront/internal/session"
	"github.com/stylehub/storefront/storefront/internal/wishlist"
	"go.uber.org/zap"
)

const cartKey = "stylehub_cart"

type OrderClient interface {
	Orders(ctx context.Context, sessionID string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

// App holds the models the commands operate on. The cart is persisted in
// Storage between invocations.
type App struct {
	Storage  session.Storage
	Sessions *session.Manager
	Wishlist *wishlist.Model
	Comments *comments.Service
	Checkout *checkout.Flow
	Orders   OrderClient
	Timeout  time.Duration
	Log      *zap.Logger
}

func (a *App) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.Timeout)
}

func (a *App) loadCart(ctx context.Context) (*cart.Cart, error) {
	c := cart.New()

	raw, err := a.Storage.Get(ctx, cartKey)
	if errors.Is(err, session.ErrNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		a.Log.Warn("discarding unreadable cart", zap.Error(err))
		return c, nil
	}
	c.Load(items)
	return c, nil
}

func (a *App) saveCart(ctx context.Context, c *cart.Cart) error {
	raw, err := json.Marshal(c.Items())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := a.Storage.Set(ctx, cartKey, string(raw)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// NewRootCmd builds the command tree. Output goes to cmd.OutOrStdout.
func NewRootCmd(app *App) *cobra.Command {
	if app.Log == nil {
		app.Log = zap.NewNop()
	}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "StyleHub storefront client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSessionCmd(app),
		newCartCmd(app),
		newWishlistCmd(app),
		newCommentsCmd(app),
		newCheckoutCmd(app),
		newOrdersCmd(app),
	)
	return root
}
