package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/cardsync/internal/api"
	"github.com/dvloznov/cardsync/internal/config"
	"github.com/dvloznov/cardsync/internal/logger"
	"github.com/dvloznov/cardsync/internal/progress"
	"github.com/dvloznov/cardsync/internal/runlock"
	"github.com/dvloznov/cardsync/internal/sync"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP server that triggers sync runs on demand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			log := logger.WithLevel(logger.New(), cfg.LogLevel)

			runner := sync.NewRunner(cfg, progress.NewLogReporter(log))
			server := api.NewServer(runner, &runlock.Lock{}, log)

			httpServer := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	return cmd
}
