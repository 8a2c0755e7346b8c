package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/viktsys/tradejournal/ingest"
	"github.com/viktsys/tradejournal/models"
)

var (
	ingestAccount string
	ingestDryRun  bool
)

var ingestCMD = &cobra.Command{
	Use:   "ingest <file|directory>...",
	Short: "Import execution CSV exports into the trade journal",
	Long: `Reconstruct round-trip trades from per-execution CSV exports and merge
them into the journal. Directories are scanned for *.csv files, which are
imported concurrently. Trades already in the journal are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor := ingest.NewProcessor(log, nil, cfg.Ingest.FileWorkers)

		var results []*models.ImportResult
		for _, path := range args {
			info, err := os.Stat(path)
			if err == nil && info.IsDir() {
				dirResults, err := processor.ProcessDirectory(path)
				if err != nil {
					return err
				}
				results = append(results, dirResults...)
				continue
			}
			results = append(results, processor.ProcessFile(path))
		}

		var trades []models.Trade
		for _, result := range results {
			printResult(cmd, result)
			if result.Success() {
				trades = append(trades, result.Trades...)
			}
		}

		if ingestDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "Dry run: %d trades not merged\n", len(trades))
			return nil
		}

		j, closeStore, err := newJournal(nil)
		defer closeStore()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if ingestAccount != "" {
			n, err := j.Merge(ctx, ingestAccount, trades)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new trades\n", ingestAccount, n)
			return nil
		}

		counts, err := j.MergeByAccount(ctx, trades)
		if err != nil {
			return err
		}
		for _, account := range sortedKeys(counts) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new trades\n", account, counts[account])
		}
		return nil
	},
}

func init() {
	ingestCMD.Flags().StringVarP(&ingestAccount, "account", "a", "", "merge every trade into this account instead of each trade's own")
	ingestCMD.Flags().BoolVar(&ingestDryRun, "dry-run", false, "parse and report without touching the journal")
}

func printResult(cmd *cobra.Command, result *models.ImportResult) {
	out := cmd.OutOrStdout()
	status := "ok"
	if !result.Success() {
		status = "FAILED"
	}
	fmt.Fprintf(out, "%s [%s] rows=%d trades=%d errors=%d warnings=%d\n",
		result.File, status, result.TotalRowsParsed, result.SuccessfulTrades,
		len(result.Errors), len(result.Warnings))
	for _, msg := range result.Errors {
		fmt.Fprintf(out, "  error: %s\n", msg)
	}
	for _, msg := range result.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", msg)
	}
}
