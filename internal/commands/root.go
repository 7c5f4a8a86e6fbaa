package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/finora-dev/finora/internal/app"
	"github.com/finora-dev/finora/internal/buildinfo"
	"github.com/finora-dev/finora/internal/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	owner      string
	verbose    bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "finora",
		Short:   "Personal income and expense ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to finora.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.owner, "owner", "", "act as this owner uid instead of the configured one")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log notifications to stderr")

	rootCmd.AddCommand(
		newInitCommand(),
		newAddCommand(opts),
		newEditCommand(opts),
		newRemoveCommand(opts),
		newListCommand(opts),
		newSummaryCommand(opts),
		newCategoriesCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newWatchCommand(opts),
		newNotificationsCommand(opts),
	)

	return rootCmd
}

// openApp opens a ledger session for cmd. Callers must Close it.
func openApp(cmd *cobra.Command, opts *globalOptions) (*app.App, error) {
	logger := log.New(cmd.ErrOrStderr(), "finora: ", log.LstdFlags)
	a, err := app.Open(opts.configPath, app.Options{
		Owner:   opts.owner,
		Verbose: opts.verbose,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return a, nil
}
