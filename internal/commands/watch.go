package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/finora-dev/finora/internal/aggregate"
	"github.com/finora-dev/finora/internal/money"
	"github.com/finora-dev/finora/internal/replica"
)

func newWatchCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the ledger balance every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var last uint64
			for {
				v, err := a.Engine.WaitFor(ctx, func(v replica.View) bool { return v.Version > last })
				if err != nil {
					// interrupted
					return nil
				}
				last = v.Version
				switch {
				case v.Owner == nil:
					fmt.Fprintln(out, "signed out")
				case v.Err != nil:
					fmt.Fprintf(out, "%s: ledger unavailable: %v\n", v.Owner.UID, v.Err)
				case !v.Loaded:
					fmt.Fprintf(out, "%s: loading...\n", v.Owner.UID)
				default:
					s := aggregate.Compute(v.Entries)
					fmt.Fprintf(out, "%s: %d transactions  balance %s  savings %s%%\n",
						v.Owner.UID, s.Count, money.Format(s.NetBalance, a.Config.Currency), s.SavingsRatePercent.StringFixed(1))
				}
			}
		},
	}
}
