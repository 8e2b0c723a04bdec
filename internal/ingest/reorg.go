package ingest

import (
	"context"
	"errors"

	"github.com/montrack/montrack/internal/metrics"
	"github.com/montrack/montrack/internal/store"
	"github.com/rs/zerolog"
)

// ReorgResolver detects chain reorganizations from block-hash mismatches
// and cascades deletion of everything derived from the reorged blocks.
type ReorgResolver struct {
	stores store.Stores
	logger zerolog.Logger
}

// NewReorgResolver creates a reorg resolver over the given stores.
func NewReorgResolver(stores store.Stores, logger zerolog.Logger) *ReorgResolver {
	return &ReorgResolver{
		stores: stores,
		logger: logger.With().Str("component", "reorg_resolver").Logger(),
	}
}

// Check probes the block witness for blockNumber and, on a hash mismatch,
// atomically deletes all swap, NFT trade and processed-transaction rows
// from that block onward. The check is best-effort: storage errors are
// logged and swallowed so a transient failure never blocks ingestion.
// It returns the rollback result when a reorg was handled, nil otherwise.
func (r *ReorgResolver) Check(ctx context.Context, blockNumber int64, blockHash string) *store.ReorgRollback {
	if blockNumber <= 0 || blockHash == "" {
		return nil
	}

	witness, err := r.stores.Transactions().AnyInBlock(ctx, blockNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		r.logger.Error().Err(err).Int64("block", blockNumber).Msg("Reorg check failed, continuing without it")
		return nil
	}

	if witness.BlockHash == blockHash {
		return nil
	}

	r.logger.Warn().
		Int64("block", blockNumber).
		Str("old_hash", witness.BlockHash).
		Str("new_hash", blockHash).
		Msg("Blockchain reorg detected")

	rollback, err := r.stores.RollbackFrom(ctx, blockNumber)
	if err != nil {
		r.logger.Error().Err(err).Int64("block", blockNumber).Msg("Reorg cleanup failed, continuing without it")
		return nil
	}

	metrics.RecordReorg(rollback.DeletedSwaps, rollback.DeletedNFTTrades, rollback.DeletedProcessed)
	// Positions are NOT recomputed after a rollback; the ledger keeps the
	// effects of the deleted swaps. Logged loudly so the drift is visible.
	r.logger.Warn().
		Int64("from_block", rollback.FromBlock).
		Int64("deleted_swaps", rollback.DeletedSwaps).
		Int64("deleted_nfts", rollback.DeletedNFTTrades).
		Int64("deleted_processed", rollback.DeletedProcessed).
		Msg("Reorg cleanup completed; position ledger left as-is")

	return &rollback
}
