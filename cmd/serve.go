package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foundersignal/pipeline/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and ops HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.scheduler.Start()
			defer app.scheduler.Stop()

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- app.server.Start()
			}()

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
			}

			app.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.server.Shutdown(shutdownCtx); err != nil {
				app.log.Error("server shutdown failed", logger.Error(err))
			}
			return nil
		},
	}
}
