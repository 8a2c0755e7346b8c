package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DateLayout is the calendar-date layout used in merge keys and JSON output.
const DateLayout = "2006-01-02"

// Direction is the side of a round-trip trade.
type Direction string

const (
	DirectionLong    Direction = "Long"
	DirectionShort   Direction = "Short"
	DirectionUnknown Direction = ""
)

// Outcome classifies a trade by its net P&L.
type Outcome string

const (
	OutcomeWin       Outcome = "Win"
	OutcomeLoss      Outcome = "Loss"
	OutcomeBreakeven Outcome = "Breakeven"
)

// Trade representa uma operação completa (round-trip) no journal de uma conta.
type Trade struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	Account    string          `gorm:"index:idx_journal_account_date;size:64;uniqueIndex:uidx_journal_dedup" json:"account"`
	Date       time.Time       `gorm:"type:date;index:idx_journal_account_date" json:"date"`
	Symbol     string          `gorm:"size:64" json:"symbol"`
	Direction  Direction       `gorm:"size:8" json:"direction"`
	EntryTime  string          `gorm:"size:16" json:"entry_time"`
	ExitTime   string          `gorm:"size:16" json:"exit_time"`
	EntryPrice decimal.Decimal `gorm:"type:numeric(20,8)" json:"entry_price"`
	ExitPrice  decimal.Decimal `gorm:"type:numeric(20,8)" json:"exit_price"`
	Contracts  int             `json:"contracts"`
	PL         decimal.Decimal `gorm:"type:numeric(20,8)" json:"pl"`
	Fees       decimal.Decimal `gorm:"type:numeric(20,8)" json:"fees"`
	NetPL      decimal.Decimal `gorm:"type:numeric(20,8)" json:"net_pl"`
	Outcome    Outcome         `gorm:"size:16" json:"outcome"`
	Notes      string          `gorm:"type:text" json:"notes,omitempty"`
	DedupKey   string          `gorm:"size:64;uniqueIndex:uidx_journal_dedup" json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName keeps the journal apart from any raw execution tables.
func (Trade) TableName() string {
	return "journal_trades"
}

// MergeKey renders the duplicate-detection tuple:
// date|symbol|entry time|gross P&L|contracts.
func (t Trade) MergeKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		t.Date.Format(DateLayout),
		t.Symbol,
		t.EntryTime,
		t.PL.String(),
		t.Contracts,
	)
}

// BeforeSave fills the hashed merge key used by the unique index.
func (t *Trade) BeforeSave(_ *gorm.DB) error {
	t.DedupKey = HashMergeKey(t.MergeKey())
	return nil
}

// HashMergeKey returns the hex SHA256 of a merge key (64 characters).
func HashMergeKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// JournalStats representa as estatísticas agregadas de uma conta.
type JournalStats struct {
	Account    string          `json:"account"`
	Total      int             `json:"total"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	Breakevens int             `json:"breakevens"`
	GrossPL    decimal.Decimal `json:"gross_pl"`
	Fees       decimal.Decimal `json:"fees"`
	NetPL      decimal.Decimal `json:"net_pl"`
	WinRate    float64         `json:"win_rate"`
}

// ComputeStats aggregates a journal's trades for one account.
func ComputeStats(account string, trades []Trade) JournalStats {
	stats := JournalStats{Account: account}
	for _, t := range trades {
		stats.Total++
		switch t.Outcome {
		case OutcomeWin:
			stats.Wins++
		case OutcomeLoss:
			stats.Losses++
		case OutcomeBreakeven:
			stats.Breakevens++
		}
		stats.GrossPL = stats.GrossPL.Add(t.PL)
		stats.Fees = stats.Fees.Add(t.Fees)
		stats.NetPL = stats.NetPL.Add(t.NetPL)
	}
	if decided := stats.Wins + stats.Losses; decided > 0 {
		stats.WinRate = float64(stats.Wins) / float64(decided)
	}
	return stats
}
