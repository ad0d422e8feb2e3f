package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/cardsync/internal/config"
	"github.com/dvloznov/cardsync/internal/logger"
	"github.com/dvloznov/cardsync/internal/progress"
	"github.com/dvloznov/cardsync/internal/runlock"
	"github.com/dvloznov/cardsync/internal/sync"
)

func newSyncCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			log := logger.WithLevel(logger.New(), cfg.LogLevel)
			ctx := logger.WithContext(cmd.Context(), log)

			runner := sync.NewRunner(cfg, progress.NewLogReporter(log))
			runner.DryRun = dryRun

			var lock runlock.Lock
			if !lock.TryAcquire() {
				return fmt.Errorf("another sync run is already in progress")
			}
			defer lock.Release()

			result := runner.Run(ctx)
			if !result.Success {
				return fmt.Errorf("sync failed at %s: %s", result.FailedStep, result.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and transform but do not write to the ledger")

	return cmd
}
