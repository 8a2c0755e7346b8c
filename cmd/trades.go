package cmd

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/viktsys/tradejournal/models"
)

var tradesAccount string

var tradesCMD = &cobra.Command{
	Use:   "trades",
	Short: "List journal trades for an account",
	Long:  `Print the journal of an account followed by its summary statistics. Without --account the known accounts are listed.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cfg)
		defer closeStore()
		if err != nil {
			return err
		}

		ctx := context.Background()
		out := cmd.OutOrStdout()

		if tradesAccount == "" {
			lister, ok := store.(accountLister)
			if !ok {
				return fmt.Errorf("--account is required for the %s store", cfg.Journal.Store)
			}
			accounts, err := lister.Accounts(ctx)
			if err != nil {
				return err
			}
			for _, account := range accounts {
				fmt.Fprintln(out, account)
			}
			return nil
		}

		trades, err := store.TradesForAccount(ctx, tradesAccount)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSYMBOL\tDIR\tENTRY\tEXIT\tQTY\tGROSS\tFEES\tNET\tOUTCOME")
		for _, t := range trades {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				t.Date.Format(models.DateLayout), t.Symbol, t.Direction,
				t.EntryTime, t.ExitTime, t.Contracts,
				t.PL.StringFixed(2), t.Fees.StringFixed(2), t.NetPL.StringFixed(2), t.Outcome)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		stats := models.ComputeStats(tradesAccount, trades)
		fmt.Fprintf(out, "\n%d trades, %d wins, %d losses, %d breakeven, win rate %.1f%%, net %s\n",
			stats.Total, stats.Wins, stats.Losses, stats.Breakevens,
			stats.WinRate*100, stats.NetPL.StringFixed(2))
		return nil
	},
}

func init() {
	tradesCMD.Flags().StringVarP(&tradesAccount, "account", "a", "", "account to list")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
