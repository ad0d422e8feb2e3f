// Package commands defines the cardsync CLI surface.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/cardsync/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "cardsync",
		Short:   "Sync credit-card transactions from the bank portal into the ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}
