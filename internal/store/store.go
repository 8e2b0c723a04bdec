package store

import (
	"context"
	"errors"

	"github.com/montrack/montrack/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// PoolStore persists pool -> (token0, token1) mappings.
type PoolStore interface {
	// Get returns the pool for the given normalized address, or ErrNotFound.
	Get(ctx context.Context, address string) (*models.Pool, error)
	// Create inserts the pool. A racing duplicate insert is treated as
	// already-present, never an error.
	Create(ctx context.Context, pool *models.Pool) error
}

// TxStore is the transaction ledger guard: the sole source of truth for
// "has this transaction already affected the ledger".
type TxStore interface {
	IsProcessed(ctx context.Context, txHash string) (bool, error)
	// MarkProcessed records the hash with its block witness. It reports
	// false when the hash was already present (conditional insert, no
	// separate exists check).
	MarkProcessed(ctx context.Context, txHash string, blockNumber int64, blockHash string) (bool, error)
	// AnyInBlock returns any processed transaction recorded for the block,
	// or ErrNotFound. The reorg check is block-level, any row suffices.
	AnyInBlock(ctx context.Context, blockNumber int64) (*models.ProcessedTransaction, error)
}

// SwapStore persists swap fact records.
type SwapStore interface {
	// Create inserts the swap, ignoring a duplicate tx hash.
	Create(ctx context.Context, swap *models.Swap) error
	ListByWallet(ctx context.Context, wallet string, limit int) ([]models.Swap, error)
}

// NFTStore persists NFT trade records.
type NFTStore interface {
	Create(ctx context.Context, trade *models.NFTTrade) error
}

// PositionStore persists per-(wallet, token) cost-basis rows. The position
// ledger is the only caller of Mutate.
type PositionStore interface {
	Get(ctx context.Context, wallet, token string) (*models.Position, error)
	// Mutate runs fn under exclusive access to the (wallet, token) row for
	// the duration of the read-modify-write. found reports whether the
	// position existed before this call; fn mutates pos in place and the
	// result is persisted atomically.
	Mutate(ctx context.Context, wallet, token string, fn func(pos *models.Position, found bool) error) (*models.Position, error)
	ListByWallet(ctx context.Context, wallet string, activeOnly bool) ([]models.Position, error)
	TopByPnl(ctx context.Context, limit int) ([]models.Position, error)
	// MarkUnrealized recomputes unrealized PnL for every open position of
	// the token at the given price and returns the number of rows updated.
	MarkUnrealized(ctx context.Context, token string, currentPriceMon decimal.Decimal) (int64, error)
}

// WalletStore persists tracked wallets.
type WalletStore interface {
	Upsert(ctx context.Context, wallet *models.Wallet) error
	Delete(ctx context.Context, address string) (bool, error)
	Exists(ctx context.Context, address string) (bool, error)
	List(ctx context.Context) ([]models.Wallet, error)
}

// ReorgRollback reports what a reorg cleanup removed.
type ReorgRollback struct {
	FromBlock        int64 `json:"from_block"`
	DeletedSwaps     int64 `json:"deleted_swaps"`
	DeletedNFTTrades int64 `json:"deleted_nfts"`
	DeletedProcessed int64 `json:"deleted_processed"`
}

// Stores bundles the repositories behind one transactional scope.
type Stores interface {
	Pools() PoolStore
	Transactions() TxStore
	Swaps() SwapStore
	NFTTrades() NFTStore
	Positions() PositionStore
	Wallets() WalletStore

	// WithinTransaction runs fn against a Stores view bound to a single
	// database transaction; fn returning an error rolls everything back.
	WithinTransaction(ctx context.Context, fn func(Stores) error) error

	// RollbackFrom atomically deletes all Swap, NFTTrade and
	// ProcessedTransaction rows with block_number >= fromBlock. All three
	// deletions succeed or none do.
	RollbackFrom(ctx context.Context, fromBlock int64) (ReorgRollback, error)
}
