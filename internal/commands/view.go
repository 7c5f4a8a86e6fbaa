package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/finora-dev/finora/internal/aggregate"
	"github.com/finora-dev/finora/internal/filter"
	"github.com/finora-dev/finora/internal/id"
	"github.com/finora-dev/finora/internal/model"
	"github.com/finora-dev/finora/internal/money"
)

func newListCommand(opts *globalOptions) *cobra.Command {
	var c filter.Criteria

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List transactions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.SearchCategory = true
			return runList(cmd, opts, c)
		},
	}

	cmd.Flags().StringVarP(&c.Text, "search", "s", "", "match description or category")
	cmd.Flags().StringVarP(&c.Category, "category", "c", filter.All, "only this category")
	cmd.Flags().StringVarP(&c.Type, "type", "t", filter.All, "only income or expense")

	return cmd
}

func runList(cmd *cobra.Command, opts *globalOptions, c filter.Criteria) error {
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
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No transactions found.")
		return nil
	}

	if err := writeTable(out, entries, a.Config.Currency); err != nil {
		return err
	}

	s := aggregate.Compute(entries)
	fmt.Fprintf(out, "\n%d transactions  income %s  expense %s\n",
		s.Count, money.Format(s.TotalIncome, a.Config.Currency), money.Format(s.TotalExpense, a.Config.Currency))
	return nil
}

func writeTable(w io.Writer, entries []model.Transaction, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, t := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			id.Short(t.ID), t.Date, t.Type, t.CategoryName(), money.FormatRaw(t.Amount, currency), t.Description)
	}
	return tw.Flush()
}

func newSummaryCommand(opts *globalOptions) *cobra.Command {
	var c filter.Criteria

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals, balance, savings rate and spending by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, opts, c)
		},
	}

	cmd.Flags().StringVarP(&c.Category, "category", "c", filter.All, "only this category")
	cmd.Flags().StringVarP(&c.Type, "type", "t", filter.All, "only income or expense")

	return cmd
}

func runSummary(cmd *cobra.Command, opts *globalOptions, c filter.Criteria) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := loadLedger(cmd.Context(), a)
	if err != nil {
		return err
	}

	s := aggregate.Compute(filter.Apply(v.Entries, c))
	return writeSummary(cmd.OutOrStdout(), s, a.Config.Currency)
}

func writeSummary(w io.Writer, s aggregate.Summary, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total income\t%s\n", money.Format(s.TotalIncome, currency))
	fmt.Fprintf(tw, "Total expense\t%s\n", money.Format(s.TotalExpense, currency))
	fmt.Fprintf(tw, "Net balance\t%s\n", money.Format(s.NetBalance, currency))
	fmt.Fprintf(tw, "Savings rate\t%s%%\n", s.SavingsRatePercent.StringFixed(1))
	fmt.Fprintf(tw, "Transactions\t%d\n", s.Count)
	if s.Malformed > 0 {
		fmt.Fprintf(tw, "Unreadable amounts\t%d (counted as zero)\n", s.Malformed)
	}

	if rows := s.Breakdown(); len(rows) > 0 {
		fmt.Fprintln(tw, "\nSpending by category\t")
		for _, r := range rows {
			fmt.Fprintf(tw, "  %s\t%s\n", r.Category, money.Format(r.Amount, currency))
		}
	}
	return tw.Flush()
}

func newCategoriesCommand(opts *globalOptions) *cobra.Command {
	var withDefaults bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the categories used in the ledger",
		Args:  cobra.NoArgs,
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

			cats := filter.Categories(v.Entries)
			if withDefaults {
				cats = mergeCategories(model.DefaultCategories(), cats)
			}
			for _, c := range cats {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDefaults, "defaults", false, "include the default category palette")
	return cmd
}

// mergeCategories appends the names in extra missing from base.
func mergeCategories(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := append([]string(nil), base...)
	for _, c := range base {
		seen[c] = true
	}
	for _, c := range extra {
		if !seen[c] {
			out = append(out, c)
			seen[c] = true
		}
	}
	return out
}
