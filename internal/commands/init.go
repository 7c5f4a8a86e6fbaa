package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finora-dev/finora/internal/config"
	"github.com/finora-dev/finora/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var uid, name, currency, driver string
	var git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, uid, name, currency, driver); err != nil {
				return err
			}
			if git {
				if _, err := gitops.Init(absDir); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized finora ledger for %s at %s\n", uid, absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "owner uid (required)")
	_ = cmd.MarkFlagRequired("uid")
	cmd.Flags().StringVar(&name, "name", "", "owner display name")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code (default INR)")
	cmd.Flags().StringVar(&driver, "driver", config.DriverSQLite, "store driver: sqlite or postgres")
	cmd.Flags().BoolVar(&git, "git", false, "initialize a git repository for ledger snapshots")

	return cmd
}

func runInit(dir, uid, name, currency, driver string) error {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	// Create directory structure.
	for _, d := range []string{"import", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if name == "" {
		name = uid
	}
	cfg := config.Default(uid, name)
	if currency != "" {
		cfg.Currency = strings.ToUpper(currency)
	}
	cfg.Store.Driver = driver
	if driver != config.DriverSQLite {
		cfg.Store.Path = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Keep the database and secrets out of version control.
	gitignore := "finora.db\n.env\nnotifications.csv\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
