package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/biblehabit/tracker/internal/entrypoint"
	"github.com/biblehabit/tracker/internal/services/notifications"
)

func (r *runner) emailCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Send batch emails",
		Long: `Send scheduled emails right away.

Available subcommands:
  reminders       - Daily reminder to users who have not read today
  weekly-summary  - Last week's figures to every subscribed user`,
	}

	cmd.AddCommand(
		r.batchCommand("reminders", "Send daily reading reminders",
			func(ctx context.Context, app *entrypoint.App, delay time.Duration) (notifications.BatchResult, error) {
				return app.Notifications.SendReminders(ctx, delay)
			}),
		r.batchCommand("weekly-summary", "Send weekly reading summaries",
			func(ctx context.Context, app *entrypoint.App, delay time.Duration) (notifications.BatchResult, error) {
				return app.Notifications.SendWeeklySummaries(ctx, delay)
			}),
	)
	return cmd
}

type batchFunc func(ctx context.Context, app *entrypoint.App, delay time.Duration) (notifications.BatchResult, error)

func (r *runner) batchCommand(use, short string, send batchFunc) *cobra.Command {
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if !cmd.Flags().Changed("delay") {
					delay = app.Config.Mail.SendDelay
				}
				if delay < 0 {
					return fmt.Errorf("delay must not be negative")
				}
				res, err := send(ctx, app, delay)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %d, skipped %d, failed %d\n", res.Sent, res.Skipped, res.Failed)
				if res.Failed > 0 {
					return fmt.Errorf("%d emails failed", res.Failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between messages (defaults to MAIL_SEND_DELAY)")
	return cmd
}
