package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stylehub/storefront/storefront/internal/domain"
)

func newOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Order history of the session",
	}

	var sessionID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			id := sessionID
			if id == "" {
				var err error
				if id, err = app.Sessions.GetOrCreateSessionID(ctx); err != nil {
					return err
				}
			}

			orders, err := app.Orders.Orders(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, o := range orders {
				fmt.Fprintf(out, "%s  %-10s %-7s %8.2f  %d line(s)\n",
					o.OrderID, o.Status, o.PaymentMethod, o.Total, len(o.Items))
			}
			return nil
		},
	}
	list.Flags().StringVar(&sessionID, "session", "", "session id (default: stored session)")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "status ORDER_ID STATUS",
		Short: "Advance an order to Shipped or Delivered",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			order, err := app.Orders.UpdateOrderStatus(ctx, args[0], domain.OrderStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", order.OrderID, order.Status)
			return nil
		},
	})

	return cmd
}
