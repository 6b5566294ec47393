package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manash/lumina/internal/display"
	"github.com/manash/lumina/internal/repl"
)

func newReplCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repl",
		Aliases: []string{"interactive", "i"},
		Short:   "Start interactive mode",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			ctrl, closeStore, err := newController(app)
			if err != nil {
				return err
			}
			defer closeStore()

			r := repl.New(&repl.Config{
				In:         os.Stdin,
				Out:        app.Out,
				Err:        app.Err,
				Controller: ctrl,
				Displayer:  display.New(app.Out),
				Saver:      app.NewSaver(),
			})
			return r.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key (defaults to stored key or GEMINI_API_KEY)")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log request/response details to stderr")
	return cmd
}
