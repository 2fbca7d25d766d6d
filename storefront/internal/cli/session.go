package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stylehub/storefront/storefront/internal/session"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or rotate the anonymous session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the session id, creating one if needed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			id, err := app.Sessions.GetOrCreateSessionID(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Start a new session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			id, err := app.Sessions.ResetSession(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the stored session id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()
			return app.Sessions.ClearSession(ctx)
		},
	})

	var (
		appendMsg string
		role      string
		clearAll  bool
	)
	history := &cobra.Command{
		Use:   "history",
		Short: "Show, append to, or clear the chat history of the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			if clearAll {
				return app.Sessions.ClearHistory(ctx)
			}
			if appendMsg != "" {
				msg := session.ChatMessage{Role: role, Content: appendMsg}
				if err := app.Sessions.AppendHistory(ctx, msg); err != nil {
					return err
				}
			}

			msgs, err := app.Sessions.LoadHistory(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range msgs {
				fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), m.Role, strings.TrimSpace(m.Content))
			}
			return nil
		},
	}
	history.Flags().StringVar(&appendMsg, "append", "", "message to append")
	history.Flags().StringVar(&role, "role", "user", "role of the appended message")
	history.Flags().BoolVar(&clearAll, "clear", false, "delete the history")
	cmd.AddCommand(history)

	return cmd
}
