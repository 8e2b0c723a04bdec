package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/montrack/montrack/internal/metrics"
	"github.com/montrack/montrack/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL is the postgres-backed Stores implementation.
type SQL struct {
	db *gorm.DB
}

// NewSQL wraps a gorm handle in the repository layer.
func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) Pools() PoolStore         { return (*poolStore)(s) }
func (s *SQL) Transactions() TxStore    { return (*txStore)(s) }
func (s *SQL) Swaps() SwapStore         { return (*swapStore)(s) }
func (s *SQL) NFTTrades() NFTStore      { return (*nftStore)(s) }
func (s *SQL) Positions() PositionStore { return (*positionStore)(s) }
func (s *SQL) Wallets() WalletStore     { return (*walletStore)(s) }

func (s *SQL) WithinTransaction(ctx context.Context, fn func(Stores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewSQL(tx))
	})
}

func (s *SQL) RollbackFrom(ctx context.Context, fromBlock int64) (ReorgRollback, error) {
	result := ReorgRollback{FromBlock: fromBlock}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("block_number >= ?", fromBlock).Delete(&models.Swap{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete swaps: %w", res.Error)
		}
		result.DeletedSwaps = res.RowsAffected

		res = tx.Where("block_number >= ?", fromBlock).Delete(&models.NFTTrade{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete nft trades: %w", res.Error)
		}
		result.DeletedNFTTrades = res.RowsAffected

		res = tx.Where("block_number >= ?", fromBlock).Delete(&models.ProcessedTransaction{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete processed transactions: %w", res.Error)
		}
		result.DeletedProcessed = res.RowsAffected

		return nil
	})
	if err != nil {
		metrics.RecordDatabaseOperation("reorg_rollback", "failed")
		return ReorgRollback{FromBlock: fromBlock}, err
	}

	metrics.RecordDatabaseOperation("reorg_rollback", "success")
	return result, nil
}

type poolStore SQL

func (s *poolStore) Get(ctx context.Context, address string) (*models.Pool, error) {
	var pool models.Pool
	err := s.db.WithContext(ctx).First(&pool, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pool %s: %w", address, err)
	}
	return &pool, nil
}

func (s *poolStore) Create(ctx context.Context, pool *models.Pool) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(pool).Error
	if err != nil {
		metrics.RecordDatabaseOperation("insert_pool", "failed")
		return fmt.Errorf("failed to insert pool %s: %w", pool.Address, err)
	}
	metrics.RecordDatabaseOperation("insert_pool", "success")
	return nil
}

type txStore SQL

func (s *txStore) IsProcessed(ctx context.Context, txHash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ProcessedTransaction{}).
		Where("tx_hash = ?", txHash).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check processed transaction %s: %w", txHash, err)
	}
	return count > 0, nil
}

func (s *txStore) MarkProcessed(ctx context.Context, txHash string, blockNumber int64, blockHash string) (bool, error) {
	record := models.ProcessedTransaction{
		TxHash:      txHash,
		BlockNumber: blockNumber,
		BlockHash:   blockHash,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record)
	if res.Error != nil {
		metrics.RecordDatabaseOperation("mark_processed", "failed")
		return false, fmt.Errorf("failed to mark transaction %s processed: %w", txHash, res.Error)
	}
	metrics.RecordDatabaseOperation("mark_processed", "success")
	return res.RowsAffected > 0, nil
}

func (s *txStore) AnyInBlock(ctx context.Context, blockNumber int64) (*models.ProcessedTransaction, error) {
	var record models.ProcessedTransaction
	err := s.db.WithContext(ctx).
		Where("block_number = ?", blockNumber).
		Limit(1).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query block %d: %w", blockNumber, err)
	}
	return &record, nil
}

type swapStore SQL

func (s *swapStore) Create(ctx context.Context, swap *models.Swap) error {
	if swap.ID == uuid.Nil {
		swap.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tx_hash"}}, DoNothing: true}).
		Create(swap).Error
	if err != nil {
		metrics.RecordDatabaseOperation("insert_swap", "failed")
		return fmt.Errorf("failed to insert swap %s: %w", swap.TxHash, err)
	}
	metrics.RecordDatabaseOperation("insert_swap", "success")
	return nil
}

func (s *swapStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]models.Swap, error) {
	var swaps []models.Swap
	err := s.db.WithContext(ctx).
		Where("wallet = ?", wallet).
		Order("timestamp DESC").
		Limit(limit).
		Find(&swaps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list swaps for %s: %w", wallet, err)
	}
	return swaps, nil
}

type nftStore SQL

func (s *nftStore) Create(ctx context.Context, trade *models.NFTTrade) error {
	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tx_hash"}}, DoNothing: true}).
		Create(trade).Error
	if err != nil {
		metrics.RecordDatabaseOperation("insert_nft_trade", "failed")
		return fmt.Errorf("failed to insert nft trade %s: %w", trade.TxHash, err)
	}
	metrics.RecordDatabaseOperation("insert_nft_trade", "success")
	return nil
}

type positionStore SQL

func (s *positionStore) Get(ctx context.Context, wallet, token string) (*models.Position, error) {
	var pos models.Position
	err := s.db.WithContext(ctx).
		Where("wallet = ? AND token = ?", wallet, token).
		Take(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load position %s/%s: %w", wallet, token, err)
	}
	return &pos, nil
}

func (s *positionStore) Mutate(ctx context.Context, wallet, token string, fn func(pos *models.Position, found bool) error) (*models.Position, error) {
	var out models.Position

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ensure the row exists so FOR UPDATE has something to latch onto.
		// If the conditional insert wins, the position did not exist before
		// this call; if it conflicts, it did.
		stub := models.Position{Wallet: wallet, Token: token}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&stub)
		if res.Error != nil {
			return fmt.Errorf("failed to ensure position row %s/%s: %w", wallet, token, res.Error)
		}
		found := res.RowsAffected == 0

		var pos models.Position
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("wallet = ? AND token = ?", wallet, token).
			Take(&pos).Error; err != nil {
			return fmt.Errorf("failed to lock position %s/%s: %w", wallet, token, err)
		}

		if err := fn(&pos, found); err != nil {
			return err
		}

		if err := tx.Save(&pos).Error; err != nil {
			return fmt.Errorf("failed to save position %s/%s: %w", wallet, token, err)
		}
		out = pos
		return nil
	})
	if err != nil {
		metrics.RecordDatabaseOperation("mutate_position", "failed")
		return nil, err
	}

	metrics.RecordDatabaseOperation("mutate_position", "success")
	return &out, nil
}

func (s *positionStore) ListByWallet(ctx context.Context, wallet string, activeOnly bool) ([]models.Position, error) {
	q := s.db.WithContext(ctx).Where("wallet = ?", wallet)
	if activeOnly {
		q = q.Where("amount > 0")
	}
	var positions []models.Position
	if err := q.Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("failed to list positions for %s: %w", wallet, err)
	}
	return positions, nil
}

func (s *positionStore) TopByPnl(ctx context.Context, limit int) ([]models.Position, error) {
	var positions []models.Position
	err := s.db.WithContext(ctx).
		Order("realized_pnl_mon + unrealized_pnl_mon DESC").
		Limit(limit).
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return positions, nil
}

func (s *positionStore) MarkUnrealized(ctx context.Context, token string, currentPriceMon decimal.Decimal) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Position{}).
		Where("token = ? AND amount > 0", token).
		Update("unrealized_pnl_mon", gorm.Expr("(? - average_entry_price_mon) * amount", currentPriceMon))
	if res.Error != nil {
		metrics.RecordDatabaseOperation("mark_unrealized", "failed")
		return 0, fmt.Errorf("failed to mark unrealized pnl for %s: %w", token, res.Error)
	}
	metrics.RecordDatabaseOperation("mark_unrealized", "success")
	return res.RowsAffected, nil
}

type walletStore SQL

func (s *walletStore) Upsert(ctx context.Context, wallet *models.Wallet) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"twitter_name", "twitter_pfp"}),
		}).
		Create(wallet).Error
	if err != nil {
		metrics.RecordDatabaseOperation("upsert_wallet", "failed")
		return fmt.Errorf("failed to upsert wallet %s: %w", wallet.Address, err)
	}
	metrics.RecordDatabaseOperation("upsert_wallet", "success")
	return nil
}

func (s *walletStore) Delete(ctx context.Context, address string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Wallet{}, "address = ?", address)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete wallet %s: %w", address, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *walletStore) Exists(ctx context.Context, address string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("address = ?", address).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wallet %s: %w", address, err)
	}
	return count > 0, nil
}

func (s *walletStore) List(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := s.db.WithContext(ctx).Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}
