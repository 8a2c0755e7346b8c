package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OptimizeIndexes cria índices para as consultas do journal
func OptimizeIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	// Substituído pelo índice composto abaixo
	if err := db.Exec("DROP INDEX IF EXISTS idx_journal_trades_account").Error; err != nil {
		log.WithError(err).Warn("Could not drop old index idx_journal_trades_account")
	}

	// Listagem por conta em ordem de inclusão
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_account_created
		ON journal_trades (account, created_at, id)
	`).Error; err != nil {
		return fmt.Errorf("failed to create journal listing index: %w", err)
	}

	// Estatísticas por resultado
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_account_outcome
		ON journal_trades (account, outcome)
		WHERE outcome IS NOT NULL
	`).Error; err != nil {
		return fmt.Errorf("failed to create journal outcome index: %w", err)
	}

	log.Debug("Database indexes optimized successfully")
	return nil
}
