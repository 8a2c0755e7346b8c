package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/observability"
	"github.com/viktsys/tradejournal/storage"
)

// Journal appends synthesized trades to a Store, skipping trades whose
// merge key is already recorded for the target account.
type Journal struct {
	store   Store
	log     logrus.FieldLogger
	metrics *observability.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Journal over store. log and metrics may be nil.
func New(store Store, log logrus.FieldLogger, metrics *observability.Metrics) *Journal {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Journal{
		store:   store,
		log:     log,
		metrics: metrics,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Store returns the underlying store.
func (j *Journal) Store() Store {
	return j.store
}

func (j *Journal) lock(account string) func() {
	j.mu.Lock()
	l, ok := j.locks[account]
	if !ok {
		l = &sync.Mutex{}
		j.locks[account] = l
	}
	j.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Merge appends every trade not already present in account and returns how
// many were appended. Each trade is recorded under account regardless of
// its own Account field. Duplicates are dropped without error.
func (j *Journal) Merge(ctx context.Context, account string, trades []models.Trade) (int, error) {
	if strings.TrimSpace(account) == "" {
		return 0, fmt.Errorf("merge: %w: empty account", storage.ErrInvalidInput)
	}

	unlock := j.lock(account)
	defer unlock()

	existing, err := j.store.TradesForAccount(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("load journal for %s: %w", account, err)
	}

	seen := make(map[string]struct{}, len(existing)+len(trades))
	for _, t := range existing {
		seen[t.MergeKey()] = struct{}{}
	}

	appended, skipped := 0, 0
	for _, trade := range trades {
		key := trade.MergeKey()
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}

		trade.Account = account
		if trade.ID == "" {
			trade.ID = uuid.NewString()
		}

		if err := j.store.Append(ctx, account, trade); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				seen[key] = struct{}{}
				skipped++
				continue
			}
			j.metrics.ObserveMerge(account, appended, skipped)
			return appended, fmt.Errorf("append trade %s to %s: %w", trade.ID, account, err)
		}

		seen[key] = struct{}{}
		appended++
	}

	j.metrics.ObserveMerge(account, appended, skipped)
	j.log.WithFields(logrus.Fields{
		"account":  account,
		"appended": appended,
		"skipped":  skipped,
	}).Info("Journal merge completed")

	return appended, nil
}

// MergeByAccount groups trades by their own Account field and merges each
// group into that account. Trades with a blank account are ignored.
func (j *Journal) MergeByAccount(ctx context.Context, trades []models.Trade) (map[string]int, error) {
	var order []string
	byAccount := make(map[string][]models.Trade)
	for _, trade := range trades {
		account := strings.TrimSpace(trade.Account)
		if account == "" {
			continue
		}
		if _, ok := byAccount[account]; !ok {
			order = append(order, account)
		}
		byAccount[account] = append(byAccount[account], trade)
	}

	counts := make(map[string]int, len(order))
	for _, account := range order {
		n, err := j.Merge(ctx, account, byAccount[account])
		counts[account] = n
		if err != nil {
			return counts, err
		}
	}
	return counts, nil
}
