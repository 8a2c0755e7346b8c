package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/viktsys/tradejournal/config"
	"github.com/viktsys/tradejournal/database"
	"github.com/viktsys/tradejournal/journal"
	"github.com/viktsys/tradejournal/observability"
	"github.com/viktsys/tradejournal/storage/file"
	"github.com/viktsys/tradejournal/storage/memory"
)

var (
	configPath string

	cfg *config.Config
	log *logrus.Logger
)

var rootCMD = &cobra.Command{
	Use:   "tradejournal",
	Short: "Trade journal import and reconciliation tool",
	Long: `A CLI application that reconstructs round-trip trades from
per-execution CSV exports and merges them into a per-account trade journal
without creating duplicates on repeated imports.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log, err = newLogger(cfg.Log)
		return err
	},
}

func Execute() {
	err := rootCMD.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCMD.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCMD.AddCommand(ingestCMD)
	rootCMD.AddCommand(tradesCMD)
	rootCMD.AddCommand(serverCMD)
}

func newLogger(c config.LogConfig) (*logrus.Logger, error) {
	l := logrus.New()
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	l.SetLevel(level)
	if c.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	l.SetOutput(os.Stderr)
	return l, nil
}

var (
	_ journal.Store = (*memory.JournalStore)(nil)
	_ journal.Store = (*file.JournalStore)(nil)
	_ journal.Store = (*database.TradeStore)(nil)

	_ accountLister = (*memory.JournalStore)(nil)
	_ accountLister = (*file.JournalStore)(nil)
	_ accountLister = (*database.TradeStore)(nil)
)

// accountLister is implemented by every journal store the CLI can open.
type accountLister interface {
	Accounts(ctx context.Context) ([]string, error)
}

// openStore builds the configured journal store. The returned close
// function is never nil.
func openStore(c *config.Config) (journal.Store, func(), error) {
	noop := func() {}

	switch c.Journal.Store {
	case config.StoreMemory:
		return memory.NewJournalStore(), noop, nil
	case config.StoreFile:
		store, err := file.Open(c.Journal.File)
		if err != nil {
			return nil, noop, err
		}
		log.WithField("file", store.Path()).Debug("Using file journal")
		return store, noop, nil
	case config.StorePostgres:
		db, err := database.Open(c.Database.DSN(), log)
		if err != nil {
			return nil, noop, err
		}
		return database.NewTradeStore(db), func() {
			if err := database.Close(db); err != nil {
				log.WithError(err).Warn("Failed to close database")
			}
		}, nil
	default:
		return nil, noop, fmt.Errorf("unknown journal store %q", c.Journal.Store)
	}
}

func newJournal(metrics *observability.Metrics) (*journal.Journal, func(), error) {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, closeStore, fmt.Errorf("failed to open journal store: %w", err)
	}
	return journal.New(store, log, metrics), closeStore, nil
}
