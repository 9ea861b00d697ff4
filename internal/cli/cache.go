package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biblehabit/tracker/internal/entrypoint"
)

func (r *runner) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the statistics cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Drop all cached statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
					n, err := app.Stats.Clear(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached entries\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "warm",
			Short: "Precompute statistics for every user",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
					all, err := app.Users.All(ctx)
					if err != nil {
						return err
					}
					n, err := app.Stats.Warm(ctx, all)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Warmed statistics for %d of %d users\n", n, len(all))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache usage",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return r.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
					st, err := app.Cache.Stats(ctx)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "driver: %s\n", st.Driver)
					fmt.Fprintf(out, "keys:   %d\n", st.Keys)
					fmt.Fprintf(out, "hits:   %d\n", st.Hits)
					fmt.Fprintf(out, "misses: %d\n", st.Misses)
					return nil
				})
			},
		},
	)
	return cmd
}
