package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/viktsys/tradejournal/journal"
	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/storage"
)

func TestIsDuplicateKeyError(t *testing.T) {
	assert.False(t, isDuplicateKeyError(nil))
	assert.False(t, isDuplicateKeyError(errors.New("boom")))
	assert.True(t, isDuplicateKeyError(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKeyError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("journal"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := Open(dsn, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func newTrade(id, symbol string, pl string) models.Trade {
	return models.Trade{
		ID:        id,
		Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Symbol:    symbol,
		Direction: models.DirectionLong,
		EntryTime: "09:30:00",
		ExitTime:  "09:45:00",
		Contracts: 1,
		PL:        decimal.RequireFromString(pl),
		Outcome:   models.OutcomeWin,
	}
}

func TestTradeStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewTradeStore(db)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "SIM101", newTrade("00000000-0000-0000-0000-000000000001", "ES", "12.5")))
	require.NoError(t, store.Append(ctx, "SIM101", newTrade("00000000-0000-0000-0000-000000000002", "NQ", "-40")))

	trades, err := store.TradesForAccount(ctx, "SIM101")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "ES", trades[0].Symbol)
	assert.Equal(t, "2024-01-15", trades[0].Date.Format(models.DateLayout))
	assert.True(t, trades[0].PL.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, newTrade("", "ES", "12.5").MergeKey(), trades[0].MergeKey())

	// Same merge key, new id.
	err = store.Append(ctx, "SIM101", newTrade("00000000-0000-0000-0000-000000000003", "ES", "12.50"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same merge key, other account.
	require.NoError(t, store.Append(ctx, "APEX-7", newTrade("00000000-0000-0000-0000-000000000004", "ES", "12.5")))

	accounts, err := store.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"APEX-7", "SIM101"}, accounts)
}

func TestTradeStoreWithJournal(t *testing.T) {
	db := setupTestDB(t)
	j := journal.New(NewTradeStore(db), nil, nil)
	ctx := context.Background()

	batch := []models.Trade{newTrade("", "ES", "12.5"), newTrade("", "NQ", "3")}

	n, err := j.Merge(ctx, "SIM101", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = j.Merge(ctx, "SIM101", batch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
