package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finora-dev/finora/internal/app"
	"github.com/finora-dev/finora/internal/id"
	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/money"
	"github.com/finora-dev/finora/internal/replica"
)

// syncTimeout bounds how long a command waits for the store to push the
// snapshot that reflects its write.
const syncTimeout = 10 * time.Second

func newAddCommand(opts *globalOptions) *cobra.Command {
	var e model.Entry
	var typ string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e.Type = model.TransactionType(typ)
			return runAdd(cmd, opts, e)
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "income or expense (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVarP(&e.Amount, "amount", "a", "", "amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVarP(&e.Description, "desc", "d", "", "description")
	cmd.Flags().StringVarP(&e.Category, "category", "c", "", "category (default General)")
	cmd.Flags().StringVar(&e.Date, "date", "", "date as YYYY-MM-DD (default today)")

	return cmd
}

func runAdd(cmd *cobra.Command, opts *globalOptions, e model.Entry) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	rec, err := a.Gateway.Create(ctx, e)
	if err != nil {
		return err
	}
	if err := awaitSync(ctx, a, func(v replica.View) bool { return contains(v, rec.ID) }); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s %s for %q on %s\n",
		id.Short(rec.ID), rec.Type, money.FormatRaw(rec.Amount, a.Config.Currency), rec.Description, rec.Date)
	return nil
}

func newEditCommand(opts *globalOptions) *cobra.Command {
	var desc, amount, typ, category, date string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p model.Patch
			flags := cmd.Flags()
			if flags.Changed("desc") {
				p.Description = &desc
			}
			if flags.Changed("amount") {
				p.Amount = &amount
			}
			if flags.Changed("type") {
				t := model.TransactionType(typ)
				p.Type = &t
			}
			if flags.Changed("category") {
				p.Category = &category
			}
			if flags.Changed("date") {
				p.Date = &date
			}
			if p.IsEmpty() {
				return fmt.Errorf("nothing to change: pass at least one of --desc, --amount, --type, --category, --date")
			}
			return runEdit(cmd, opts, args[0], p)
		},
	}

	cmd.Flags().StringVarP(&desc, "desc", "d", "", "new description")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "new amount")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "new type: income or expense")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category")
	cmd.Flags().StringVar(&date, "date", "", "new date as YYYY-MM-DD")

	return cmd
}

func runEdit(cmd *cobra.Command, opts *globalOptions, prefix string, p model.Patch) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	txID, err := resolveID(ctx, a, prefix)
	if err != nil {
		return err
	}
	before := a.Engine.View().Version
	if err := a.Gateway.Update(ctx, txID, p); err != nil {
		return err
	}
	if err := awaitSync(ctx, a, func(v replica.View) bool { return v.Version > before }); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", id.Short(txID))
	return nil
}

func newRemoveCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, opts, args[0])
		},
	}
}

func runRemove(cmd *cobra.Command, opts *globalOptions, prefix string) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	txID, err := resolveID(ctx, a, prefix)
	if err != nil {
		return err
	}
	if err := a.Gateway.Remove(ctx, txID); err != nil {
		return err
	}
	if err := awaitSync(ctx, a, func(v replica.View) bool { return !contains(v, txID) }); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id.Short(txID))
	return nil
}

// resolveID maps a typed id prefix to a record in the owner's ledger.
func resolveID(ctx context.Context, a *app.App, prefix string) (string, error) {
	v, err := loadLedger(ctx, a)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(v.Entries))
	for i, t := range v.Entries {
		ids[i] = t.ID
	}
	return id.Resolve(prefix, ids)
}

// loadLedger waits for the first snapshot of the signed-in owner's ledger.
func loadLedger(ctx context.Context, a *app.App) (replica.View, error) {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	v, err := a.Ledger(ctx)
	if err != nil {
		return v, fmt.Errorf("waiting for ledger: %w", err)
	}
	if v.Err != nil {
		return v, v.Err
	}
	return v, nil
}

// awaitSync waits until the replica satisfies cond, which a completed write
// guarantees once the store pushes its next snapshot.
func awaitSync(ctx context.Context, a *app.App, cond func(replica.View) bool) error {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	v, err := a.Engine.WaitFor(ctx, func(v replica.View) bool {
		return v.Err != nil || (v.Loaded && cond(v))
	})
	if err != nil {
		return fmt.Errorf("waiting for ledger to sync: %w", err)
	}
	return v.Err
}

func find(v replica.View, txID string) (model.Transaction, bool) {
	for _, t := range v.Entries {
		if t.ID == txID {
			return t, true
		}
	}
	return model.Transaction{}, false
}

func contains(v replica.View, txID string) bool {
	_, ok := find(v, txID)
	return ok
}
