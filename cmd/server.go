package cmd

import (
	"github.com/spf13/cobra"

	"github.com/viktsys/tradejournal/api"
	"github.com/viktsys/tradejournal/ingest"
	"github.com/viktsys/tradejournal/observability"
)

var serverCMD = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long:  `Start the HTTP API server to import exports and serve journal trades and statistics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics := observability.NewMetrics("tradejournal")

		j, closeStore, err := newJournal(metrics)
		defer closeStore()
		if err != nil {
			return err
		}

		processor := ingest.NewProcessor(log, metrics, cfg.Ingest.FileWorkers)
		r := api.NewHandler(processor, j, metrics, cfg.Ingest.ImportDir, log).SetupRoutes()

		port := ":" + cfg.Server.Port
		log.WithField("port", port).Info("Starting server")
		return r.Run(port)
	},
}
