package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/biblehabit/tracker/internal/database"
	"github.com/biblehabit/tracker/internal/entrypoint"
)

func (r *runner) syncProgressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-progress [user_id]",
		Short: "Rebuild book progress from reading logs",
		Long: `Recompute per-book progress from the reading logs.

With a user id only that user is synced, otherwise every user is.
Running it twice in a row changes nothing the second time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID uint
			if len(args) == 1 {
				id, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil || id == 0 {
					return fmt.Errorf("invalid user id %q", args[0])
				}
				userID = uint(id)
			}

			return r.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				out := cmd.OutOrStdout()
				if userID == 0 {
					res, err := app.ProgressSync.SyncForAllUsers(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Synced %d users: %d logs processed, %d books updated\n",
						res.UsersProcessed, res.TotalLogsProcessed, res.TotalBooksUpdated)
					return nil
				}

				if _, err := app.Users.GetByID(ctx, userID); err != nil {
					if database.IsNotFound(err) {
						return fmt.Errorf("user %d not found", userID)
					}
					return err
				}
				res, err := app.ProgressSync.SyncForUser(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Synced user %d: %d logs processed, %d books updated\n",
					userID, res.ProcessedLogs, res.UpdatedBooks)
				return nil
			})
		},
	}
}
