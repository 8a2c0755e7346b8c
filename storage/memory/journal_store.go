package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/storage"
)

// JournalStore is an in-memory per-account trade journal.
type JournalStore struct {
	mu   sync.RWMutex
	data map[string][]models.Trade // keyed by account
}

// NewJournalStore creates an empty in-memory journal.
func NewJournalStore() *JournalStore {
	return &JournalStore{
		data: make(map[string][]models.Trade),
	}
}

// TradesForAccount returns a copy of the account's trades in append order.
func (s *JournalStore) TradesForAccount(_ context.Context, account string) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.data[account]
	result := make([]models.Trade, len(trades))
	copy(result, trades)
	return result, nil
}

// Append adds a trade to the account's journal.
func (s *JournalStore) Append(_ context.Context, account string, trade models.Trade) error {
	if strings.TrimSpace(account) == "" || trade.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[account] = append(s.data[account], trade)
	return nil
}

// Accounts returns the known account identifiers, sorted.
func (s *JournalStore) Accounts(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]string, 0, len(s.data))
	for account := range s.data {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts, nil
}
