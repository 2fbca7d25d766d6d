package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stylehub/storefront/storefront/internal/comments"
)

func newCommentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write product comments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list PRODUCT_ID",
		Short: "List comments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			out := cmd.OutOrStdout()
			for _, c := range app.Comments.List(ctx, args[0]) {
				rating := "-"
				if c.Rating > 0 {
					rating = fmt.Sprintf("%d/5", c.Rating)
				}
				fmt.Fprintf(out, "%s  %-16s %-4s %s\n", c.CreatedAt.Format("2006-01-02"), c.Author, rating, c.Comment)
			}
			return nil
		},
	})

	var in comments.Input
	add := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Post a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			in.ProductID = args[0]
			created, err := app.Comments.Submit(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "comment %s posted\n", created.ID)
			return nil
		},
	}
	add.Flags().StringVar(&in.Author, "author", "", "author name")
	add.Flags().StringVar(&in.Email, "email", "", "author email")
	add.Flags().StringVar(&in.Comment, "text", "", "comment text")
	add.Flags().IntVar(&in.Rating, "rating", 0, "rating 1-5, 0 for none")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "stats PRODUCT_ID",
		Short: "Summarise ratings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.context(cmd)
			defer cancel()

			stats := comments.Stats(app.Comments.List(ctx, args[0]))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "comments: %d  ratings: %d  average: %.1f\n",
				stats.TotalComments, stats.TotalRatings, stats.AverageRating)
			for star := 5; star >= 1; star-- {
				fmt.Fprintf(out, "%d: %d\n", star, stats.RatingDistribution[star])
			}
			return nil
		},
	})

	return cmd
}
