package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stylehub/storefront/storefront/internal/domain"
)

func printWishlist(cmd *cobra.Command, app *App) {
	out := cmd.OutOrStdout()
	for _, e := range app.Wishlist.Entries() {
		fmt.Fprintf(out, "%-12s %-24s %8.2f  %s\n", e.ProductID, e.Name, e.Price, e.AddedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(out, "%d item(s)\n", app.Wishlist.Count())
}

func productFlags(cmd *cobra.Command, p *domain.Product) {
	cmd.Flags().StringVar(&p.ID, "id", "", "product id")
	cmd.Flags().StringVar(&p.Name, "name", "", "product name")
	cmd.Flags().Float64Var(&p.Price, "price", 0, "price")
	cmd.Flags().StringVar(&p.Image, "image", "", "image url")
	cmd.Flags().StringVar(&p.Category, "category", "", "category")
	_ = cmd.MarkFlagRequired("id")
}

func newWishlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Manage the wishlist of the session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the wishlist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			if err := app.Wishlist.Refresh(ctx); err != nil {
				return err
			}
			printWishlist(cmd, app)
			return nil
		},
	})

	var addProduct domain.Product
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			outcome, err := app.Wishlist.Add(ctx, addProduct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", addProduct.ID, outcome)
			printWishlist(cmd, app)
			return nil
		},
	}
	productFlags(add, &addProduct)
	cmd.AddCommand(add)

	var toggleProduct domain.Product
	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Add the product if absent, remove it otherwise",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			if err := app.Wishlist.Refresh(ctx); err != nil {
				return err
			}
			added, err := app.Wishlist.Toggle(ctx, toggleProduct)
			if err != nil {
				return err
			}
			action := "removed"
			if added {
				action = "added"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", toggleProduct.ID, action)
			printWishlist(cmd, app)
			return nil
		},
	}
	productFlags(toggle, &toggleProduct)
	cmd.AddCommand(toggle)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove PRODUCT_ID",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			if err := app.Wishlist.Refresh(ctx); err != nil {
				return err
			}
			if err := app.Wishlist.Remove(ctx, args[0]); err != nil {
				return err
			}
			printWishlist(cmd, app)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			if err := app.Wishlist.Clear(ctx); err != nil {
				return err
			}
			printWishlist(cmd, app)
			return nil
		},
	})

	return cmd
}
