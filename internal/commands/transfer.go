package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finora-dev/finora/internal/app"
	"github.com/finora-dev/finora/internal/filter"
	"github.com/finora-dev/finora/internal/gitops"
	"github.com/finora-dev/finora/internal/importer"
	"github.com/finora-dev/finora/internal/ledgercsv"
	"github.com/finora-dev/finora/internal/model"
)

// snapshotDir holds per-owner ledger exports committed by export --snapshot.
const snapshotDir = "snapshots"

func newExportCommand(opts *globalOptions) *cobra.Command {
	var c filter.Criteria
	var snapshot bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the ledger as CSV (to stdout without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := loadLedger(cmd.Context(), a)
			if err != nil {
				return err
			}
			entries := filter.Apply(v.Entries, c)

			if snapshot {
				if len(args) > 0 {
					return fmt.Errorf("--snapshot writes to the snapshots directory; drop the file argument")
				}
				return runSnapshot(cmd, a, entries)
			}
			if len(args) == 0 {
				return ledgercsv.WriteTransactions(cmd.OutOrStdout(), entries)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			if err := ledgercsv.WriteTransactions(f, entries); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing export file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transactions to %s\n", len(entries), args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&c.Category, "category", "c", filter.All, "only this category")
	cmd.Flags().StringVarP(&c.Type, "type", "t", filter.All, "only income or expense")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "write snapshots/<owner>.csv in the ledger directory and commit it to git")

	return cmd
}

// runSnapshot writes the owner's ledger to the snapshots directory and
// commits it, initializing the ledger directory as a git repo if needed.
func runSnapshot(cmd *cobra.Command, a *app.App, entries []model.Transaction) error {
	owner := a.Gate.Current()
	rel := filepath.Join(snapshotDir, owner.UID+".csv")
	path := filepath.Join(a.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	var buf bytes.Buffer
	if err := ledgercsv.WriteTransactions(&buf, entries); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	repo, err := gitops.Init(a.Dir)
	if err != nil {
		return err
	}
	author := gitops.Author{Name: owner.DisplayName, Email: owner.UID + "@finora.local"}
	if author.Name == "" {
		author.Name = owner.UID
	}
	hash, err := repo.Commit(fmt.Sprintf("snapshot: %s, %d transactions", owner.UID, len(entries)), author, rel)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot unchanged (%d transactions)\n", len(entries))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s (%d transactions)\n", hash, len(entries))
	return nil
}

func newImportCommand(opts *globalOptions) *cobra.Command {
	var format string
	var dir string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Record transactions from bank or ledger CSV files",
		Long: "Record transactions from CSV files. Without file arguments every CSV in the\n" +
			"import directory is read and moved to its processed/ subdirectory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := importer.DefaultRegistry()
			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q (available: %s)", format, strings.Join(registry.Formats(), ", "))
			}

			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			importDir := dir
			if importDir == "" {
				importDir = filepath.Join(a.Dir, "import")
			}

			paths := args
			scanned := len(args) == 0
			if scanned {
				files, err := importer.Scan(importDir)
				if err != nil {
					return err
				}
				for _, f := range files {
					paths = append(paths, f.Path)
				}
			}

			total := 0
			for _, path := range paths {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", path, err)
				}
				entries, err := parser.Parse(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("parsing %s: %w", path, err)
				}

				n, err := importer.Import(cmd.Context(), a.Gateway, entries)
				total += n
				if err != nil {
					return fmt.Errorf("%s: %w (%d imported before the failure)", path, err, total)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions from %s\n", n, filepath.Base(path))

				if scanned {
					if err := importer.MarkProcessed(importDir, filepath.Base(path)); err != nil {
						return err
					}
				}
			}
			if len(paths) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No CSV files in %s\n", importDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "finora", "file format: finora or chase")
	cmd.Flags().StringVar(&dir, "dir", "", "import directory (default <ledger>/import)")

	return cmd
}
