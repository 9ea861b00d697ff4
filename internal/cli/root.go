// Package cli holds the tracker console commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/entrypoint"
	"github.com/biblehabit/tracker/internal/logger"
)

// Options customize the command tree. Zero values load the environment.
type Options struct {
	Version string
	Config  func() *config.Config
	Logger  *logger.Logger
	Out     io.Writer
}

type runner struct {
	opts Options
}

// NewRootCommand builds `tracker` and its subcommands. Without a subcommand
// it serves HTTP.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Config == nil {
		opts.Config = config.NewConfig
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	r := &runner{opts: opts}

	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Bible reading habit tracker",
		Long:          "Log chapters read, follow streaks and book progress, and send reading reminders.",
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          r.serve,
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
		root.SetErr(opts.Out)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			Args:  cobra.NoArgs,
			RunE:  r.serve,
		},
		r.syncProgressCommand(),
		r.emailCommand(),
		r.cacheCommand(),
		r.userCommand(),
	)
	return root
}

// Execute runs the command line and returns the first error.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(Options{Version: version}).ExecuteContext(ctx)
}

func (r *runner) setup() (*config.Config, *logger.Logger, error) {
	cfg := r.opts.Config()
	if r.opts.Logger != nil {
		return cfg, r.opts.Logger, nil
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// withApp opens the application for a one-shot command and closes it after.
func (r *runner) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *entrypoint.App) error) error {
	cfg, log, err := r.setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	app, err := entrypoint.NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error closing application", "error", err)
		}
	}()
	return fn(cmd.Context(), app)
}

func (r *runner) serve(cmd *cobra.Command, _ []string) error {
	cfg, log, err := r.setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return entrypoint.Run(ctx, cfg, r.opts.Version, log)
}
