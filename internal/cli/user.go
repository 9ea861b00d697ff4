package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/entrypoint"
)

func (r *runner) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var in auth.RegisterInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Long: `Create an account that can sign in when AUTH_MODE=local.

Example:
  tracker user create --name "Ruth" --email ruth@example.com --password 'long secret'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				user, err := app.Auth.Register(ctx, in)
				if errors.Is(err, auth.ErrUserExists) {
					return fmt.Errorf("a user with email %s already exists", in.Email)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "Display name")
	create.Flags().StringVar(&in.Email, "email", "", "Sign-in email")
	create.Flags().StringVar(&in.Password, "password", "", "Password, 8 to 72 characters")
	create.Flags().StringVar(&in.Timezone, "timezone", "", "IANA time zone (defaults to APP_TIMEZONE)")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
