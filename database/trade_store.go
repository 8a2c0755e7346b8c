package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/storage"
)

const pgErrUniqueViolation = "23505"

// TradeStore keeps the journal in the journal_trades table. The unique
// index on (account, dedup_key) rejects duplicates written by concurrent
// processes.
type TradeStore struct {
	db *gorm.DB
}

func NewTradeStore(db *gorm.DB) *TradeStore {
	return &TradeStore{db: db}
}

// TradesForAccount returns the account's trades in insertion order.
func (s *TradeStore) TradesForAccount(ctx context.Context, account string) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at, id").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

// Append inserts one trade. Returns storage.ErrDuplicateKey when an equal
// trade already exists for the account.
func (s *TradeStore) Append(ctx context.Context, account string, trade models.Trade) error {
	if account == "" || trade.ID == "" {
		return storage.ErrInvalidInput
	}
	trade.Account = account

	if err := s.db.WithContext(ctx).Create(&trade).Error; err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return nil
}

// Accounts returns the distinct account identifiers, sorted.
func (s *TradeStore) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	err := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Distinct("account").
		Order("account").
		Pluck("account", &accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	return false
}
