// Package storage provides the Postgres-backed implementations of the
// repository.TradeRepository and repository.PatternRepository contracts,
// grounded on internal/repositories/trade_repository.go and
// playbook_repository.go generalized from those files' app-specific
// schemas to the TradeRecord/Pattern shapes this module defines.
package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens a Postgres connection pool and runs AutoMigrate for every
// row type this package owns.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	if err := db.AutoMigrate(&tradeRow{}, &patternRow{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return db, nil
}
