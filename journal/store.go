package journal

import (
	"context"

	"github.com/viktsys/tradejournal/models"
)

// Store is the persistence a Journal merges into. Append must durably
// commit before it returns. A store with its own uniqueness check may
// return storage.ErrDuplicateKey, which the Journal treats as a skip.
type Store interface {
	TradesForAccount(ctx context.Context, account string) ([]models.Trade, error)
	Append(ctx context.Context, account string, trade models.Trade) error
}
