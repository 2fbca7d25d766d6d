package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stylehub/storefront/storefront/internal/cart"
	"github.com/stylehub/storefront/storefront/internal/domain"
)

type lineKey struct {
	productID string
	size      string
	color     string
}

func (k *lineKey) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.productID, "id", "", "product id")
	cmd.Flags().StringVar(&k.size, "size", "", "size option")
	cmd.Flags().StringVar(&k.color, "color", "", "color option")
	_ = cmd.MarkFlagRequired("id")
}

// withCart loads the stored cart, applies fn and saves the result.
func withCart(app *App, cmd *cobra.Command, fn func(c *cart.Cart) error) error {
	ctx, cancel := app.context(cmd)
	defer cancel()

	c, err := app.loadCart(ctx)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	if err := app.saveCart(ctx, c); err != nil {
		return err
	}
	printCart(cmd, c)
	return nil
}

func printCart(cmd *cobra.Command, c *cart.Cart) {
	out := cmd.OutOrStdout()
	for _, item := range c.Items() {
		fmt.Fprintf(out, "%-12s %-24s %-4s %-8s x%-3d %8.2f\n",
			item.ProductID, item.Name, item.Size, item.Color, item.Quantity, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(out, "items: %d  total: %.2f\n", c.TotalItems(), c.TotalPrice())
}

func newCartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			c, err := app.loadCart(ctx)
			if err != nil {
				return err
			}
			printCart(cmd, c)
			return nil
		},
	})

	var (
		key     lineKey
		product domain.Product
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add one unit of a product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			product.ID = key.productID
			return withCart(app, cmd, func(c *cart.Cart) error {
				return c.AddToCart(product, key.size, key.color)
			})
		},
	}
	key.bind(add)
	add.Flags().StringVar(&product.Name, "name", "", "product name")
	add.Flags().Float64Var(&product.Price, "price", 0, "unit price")
	add.Flags().StringVar(&product.Image, "image", "", "image url")
	add.Flags().StringSliceVar(&product.Sizes, "sizes", nil, "available sizes")
	add.Flags().StringSliceVar(&product.Colors, "colors", nil, "available colors")
	cmd.AddCommand(add)

	var removeKey lineKey
	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove a line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(app, cmd, func(c *cart.Cart) error {
				c.RemoveFromCart(removeKey.productID, removeKey.size, removeKey.color)
				return nil
			})
		},
	}
	removeKey.bind(remove)
	cmd.AddCommand(remove)

	var qtyKey lineKey
	qty := &cobra.Command{
		Use:   "qty QUANTITY",
		Short: "Set the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[0])
			}
			return withCart(app, cmd, func(c *cart.Cart) error {
				return c.UpdateQuantity(qtyKey.productID, qtyKey.size, qtyKey.color, n)
			})
		},
	}
	qtyKey.bind(qty)
	cmd.AddCommand(qty)

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(app, cmd, func(c *cart.Cart) error {
				c.Clear()
				return nil
			})
		},
	})

	return cmd
}
