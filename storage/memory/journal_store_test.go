package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/storage"
)

func TestJournalStore_AppendAndList(t *testing.T) {
	store := NewJournalStore()
	ctx := context.Background()

	if err := store.Append(ctx, "SIM101", models.Trade{ID: "t1", Symbol: "ES"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "SIM101", models.Trade{ID: "t2", Symbol: "NQ"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "APEX-1", models.Trade{ID: "t3", Symbol: "CL"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	trades, err := store.TradesForAccount(ctx, "SIM101")
	if err != nil {
		t.Fatalf("TradesForAccount failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(trades))
	}
	if trades[0].ID != "t1" || trades[1].ID != "t2" {
		t.Errorf("Expected append order t1,t2, got %s,%s", trades[0].ID, trades[1].ID)
	}

	accounts, _ := store.Accounts(ctx)
	if len(accounts) != 2 || accounts[0] != "APEX-1" {
		t.Errorf("Unexpected accounts: %v", accounts)
	}
}

func TestJournalStore_ReturnsCopy(t *testing.T) {
	store := NewJournalStore()
	ctx := context.Background()
	_ = store.Append(ctx, "SIM101", models.Trade{ID: "t1", Symbol: "ES"})

	trades, _ := store.TradesForAccount(ctx, "SIM101")
	trades[0].Symbol = "changed"

	again, _ := store.TradesForAccount(ctx, "SIM101")
	if again[0].Symbol != "ES" {
		t.Errorf("Store was mutated through returned slice")
	}
}

func TestJournalStore_InvalidInput(t *testing.T) {
	store := NewJournalStore()
	ctx := context.Background()

	if err := store.Append(ctx, " ", models.Trade{ID: "t1"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank account, got %v", err)
	}
	if err := store.Append(ctx, "SIM101", models.Trade{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing id, got %v", err)
	}
}

func TestJournalStore_UnknownAccount(t *testing.T) {
	store := NewJournalStore()

	trades, err := store.TradesForAccount(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("TradesForAccount failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("Expected no trades, got %d", len(trades))
	}
}
