package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stylehub/storefront/storefront/internal/checkout"
	"github.com/stylehub/storefront/storefront/internal/domain"
)

func newCheckoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Hand the cart over to payment",
	}

	var billing domain.UserInfo
	begin := &cobra.Command{
		Use:   "begin",
		Short: "Queue the current cart for payment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			c, err := app.loadCart(ctx)
			if err != nil {
				return err
			}
			started, err := app.Checkout.Begin(ctx, c, billing)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checkout queued: session %s message %s\n", started.SessionID, started.MessageID)
			return nil
		},
	}
	begin.Flags().StringVar(&billing.Name, "name", "", "billing name")
	begin.Flags().StringVar(&billing.Email, "email", "", "billing email")
	begin.Flags().StringVar(&billing.Address, "address", "", "street address")
	begin.Flags().StringVar(&billing.City, "city", "", "city")
	begin.Flags().StringVar(&billing.Zip, "zip", "", "postal code")
	begin.Flags().StringVar(&billing.Country, "country", "", "country")
	cmd.AddCommand(begin)

	var (
		method    string
		sessionID string
	)
	pay := &cobra.Command{
		Use:   "pay",
		Short: "Load the queued checkout and confirm payment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			var (
				pending *checkout.Pending
				err     error
			)
			if sessionID != "" {
				pending, err = app.Checkout.Load(ctx, sessionID)
			} else {
				pending, err = app.Checkout.Resume(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "paying %.2f for %d line(s)\n", pending.Payload.Total, len(pending.Payload.CartItems))

			conf, err := app.Checkout.Confirm(ctx, pending, domain.PaymentMethod(method))
			if err != nil {
				return err
			}
			if conf.Pending {
				fmt.Fprintf(out, "order %s accepted, processing\n", conf.OrderID)
			} else {
				fmt.Fprintf(out, "order %s confirmed\n", conf.OrderID)
			}
			return nil
		},
	}
	pay.Flags().StringVar(&method, "method", string(domain.PaymentCard), "payment method: card or paypal")
	pay.Flags().StringVar(&sessionID, "session", "", "session id to pay for (default: stored session)")
	cmd.AddCommand(pay)

	return cmd
}
