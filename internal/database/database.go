package database

import (
	"fmt"
	"time"

	"github.com/montrack/montrack/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the postgres database, applies the schema and returns the
// gorm handle.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	// Configure GORM with optimized settings
	config := &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true, // Prepare statement for better performance
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := migrateSchema(db); err != nil {
		return nil, err
	}

	return db, nil
}

func migrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Wallet{},
		&models.Pool{},
		&models.ProcessedTransaction{},
		&models.Swap{},
		&models.NFTTrade{},
		&models.Position{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Composite indexes for common query patterns
	db.Exec("CREATE INDEX IF NOT EXISTS ix_swap_wallet_timestamp ON swaps(wallet, timestamp)")
	db.Exec("CREATE INDEX IF NOT EXISTS ix_swap_block ON swaps(block_number, block_hash)")
	db.Exec("CREATE INDEX IF NOT EXISTS ix_nft_wallet_timestamp ON nft_trades(wallet, timestamp)")
	db.Exec("CREATE INDEX IF NOT EXISTS ix_nft_block ON nft_trades(block_number, block_hash)")
	db.Exec("CREATE INDEX IF NOT EXISTS ix_processed_block_hash ON processed_transactions(block_number, block_hash)")
	db.Exec("CREATE INDEX IF NOT EXISTS ix_position_amount ON positions(amount)")

	return nil
}
