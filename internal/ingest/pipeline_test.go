package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/montrack/montrack/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	monAddress  = "0x760afe86e5de5fa0ee542fc7b7b713e1c5425701"
	poolAddress = "0xcccccccccccccccccccccccccccccccccccccccc"
	traderAddr  = "0x1111111111111111111111111111111111111111"
)

type stubPools struct {
	token0 string
	token1 string
	err    error
	calls  int
}

func (s *stubPools) Resolve(_ context.Context, _ string) (string, string, error) {
	s.calls++
	if s.err != nil {
		return "", "", s.err
	}
	return s.token0, s.token1, nil
}

type pipelineFixture struct {
	stores   *store.Memory
	pools    *stubPools
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T, token0, token1 string) *pipelineFixture {
	t.Helper()
	memory := store.NewMemory()
	pools := &stubPools{token0: token0, token1: token1}
	resolver := NewWalletResolver(memory.Wallets(), nil, zerolog.Nop())
	reorg := NewReorgResolver(memory, zerolog.Nop())
	return &pipelineFixture{
		stores:   memory,
		pools:    pools,
		pipeline: NewPipeline(memory, pools, resolver, reorg, monAddress, zerolog.Nop()),
	}
}

func (f *pipelineFixture) trackWallet(t *testing.T, address string) {
	t.Helper()
	require.NoError(t, f.stores.Wallets().Upsert(context.Background(), walletRow(address)))
}

func swapEvent(txHash string, block int64, amount0, amount1 string) SwapEvent {
	return SwapEvent{
		TxHash:      txHash,
		BlockNumber: BlockNumber(block),
		BlockHash:   fmt.Sprintf("0xhash%d", block),
		Pool:        poolAddress,
		Amount0:     amount0,
		Amount1:     amount1,
		Sender:      traderAddr,
	}
}

func TestProcessSwapBuyUpdatesPosition(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)
	f.trackWallet(t, traderAddr)
	ctx := context.Background()

	// 100 MON in, 50 tokenB out: a buy of 50 at 2 MON each.
	outcome := f.pipeline.ProcessSwap(ctx, swapEvent("0xabc1", 100, "-100000000000000000000", "50000000000000000000"))
	require.Equal(t, StatusApplied, outcome.Status, "err: %v reason: %s", outcome.Err, outcome.Reason)

	pos, err := f.stores.Positions().Get(ctx, traderAddr, tokenB)
	require.NoError(t, err)
	assert.True(t, pos.Amount.Equal(decimal.RequireFromString("50")), "amount: %s", pos.Amount)
	assert.True(t, pos.AverageEntryPriceMon.Equal(decimal.RequireFromString("2")), "avg: %s", pos.AverageEntryPriceMon)

	swaps, err := f.stores.Swaps().ListByWallet(ctx, traderAddr, 0)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.False(t, swaps[0].IsSell)
	assert.True(t, swaps[0].MonAmount.Equal(decimal.RequireFromString("100")))

	processed, err := f.stores.Transactions().IsProcessed(ctx, "0xabc1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestProcessSwapSellRealizesPnl(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)
	f.trackWallet(t, traderAddr)
	ctx := context.Background()

	// Buy 50 at 2 MON, then sell 20 for 100 MON (5 MON each).
	outcome := f.pipeline.ProcessSwap(ctx, swapEvent("0xabc1", 100, "-100000000000000000000", "50000000000000000000"))
	require.Equal(t, StatusApplied, outcome.Status)

	outcome = f.pipeline.ProcessSwap(ctx, swapEvent("0xabc2", 101, "100000000000000000000", "-20000000000000000000"))
	require.Equal(t, StatusApplied, outcome.Status, "err: %v reason: %s", outcome.Err, outcome.Reason)

	pos, err := f.stores.Positions().Get(ctx, traderAddr, tokenB)
	require.NoError(t, err)
	assert.True(t, pos.Amount.Equal(decimal.RequireFromString("30")), "amount: %s", pos.Amount)
	assert.True(t, pos.RealizedPnlMon.Equal(decimal.RequireFromString("60")), "realized: %s", pos.RealizedPnlMon)

	swaps, err := f.stores.Swaps().ListByWallet(ctx, traderAddr, 0)
	require.NoError(t, err)
	require.Len(t, swaps, 2)
}

func TestProcessSwapDuplicateIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)
	f.trackWallet(t, traderAddr)
	ctx := context.Background()

	event := swapEvent("0xabc1", 100, "-100000000000000000000", "50000000000000000000")
	require.Equal(t, StatusApplied, f.pipeline.ProcessSwap(ctx, event).Status)

	before, err := f.stores.Positions().Get(ctx, traderAddr, tokenB)
	require.NoError(t, err)

	outcome := f.pipeline.ProcessSwap(ctx, event)
	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, "already processed", outcome.Reason)

	after, err := f.stores.Positions().Get(ctx, traderAddr, tokenB)
	require.NoError(t, err)
	assert.True(t, before.Amount.Equal(after.Amount))
	assert.Equal(t, before.TradeCount, after.TradeCount)
}

func TestProcessSwapNonMonIsRecordedButInert(t *testing.T) {
	f := newPipelineFixture(t, tokenA, tokenB)
	f.trackWallet(t, traderAddr)
	ctx := context.Background()

	outcome := f.pipeline.ProcessSwap(ctx, swapEvent("0xabc1", 100, "-1000000000000000000", "2000000000000000000"))
	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, "no MON involvement", outcome.Reason)

	// The swap fact is kept; no position exists.
	swaps, err := f.stores.Swaps().ListByWallet(ctx, traderAddr, 0)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.True(t, swaps[0].MonAmount.IsZero())

	_, err = f.stores.Positions().Get(ctx, traderAddr, tokenB)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProcessSwapUnknownWallet(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)
	ctx := context.Background()

	outcome := f.pipeline.ProcessSwap(ctx, swapEvent("0xabc1", 100, "-100000000000000000000", "50000000000000000000"))
	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, "no tracked wallet", outcome.Reason)

	swaps, err := f.stores.Swaps().ListByWallet(ctx, UnknownWallet, 0)
	require.NoError(t, err)
	require.Len(t, swaps, 1)

	processed, err := f.stores.Transactions().IsProcessed(ctx, "0xabc1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestProcessSwapResolutionFailureIsRetryable(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)
	f.trackWallet(t, traderAddr)
	f.pools.err = errors.New("rpc down")
	ctx := context.Background()

	event := swapEvent("0xabc1", 100, "-100000000000000000000", "50000000000000000000")
	outcome := f.pipeline.ProcessSwap(ctx, event)
	require.Equal(t, StatusFailed, outcome.Status)
	require.Error(t, outcome.Err)

	// Not marked processed, so a redelivery succeeds.
	processed, err := f.stores.Transactions().IsProcessed(ctx, "0xabc1")
	require.NoError(t, err)
	assert.False(t, processed)

	f.pools.err = nil
	outcome = f.pipeline.ProcessSwap(ctx, event)
	assert.Equal(t, StatusApplied, outcome.Status)
}

func TestProcessSwapUnmappableIsMarkedProcessed(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)
	f.trackWallet(t, traderAddr)
	ctx := context.Background()

	outcome := f.pipeline.ProcessSwap(ctx, swapEvent("0xabc1", 100, "0", "0"))
	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, "unmappable amounts", outcome.Reason)

	processed, err := f.stores.Transactions().IsProcessed(ctx, "0xabc1")
	require.NoError(t, err)
	assert.True(t, processed)

	// A redelivery short-circuits on the dedup guard.
	outcome = f.pipeline.ProcessSwap(ctx, swapEvent("0xabc1", 100, "0", "0"))
	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, "already processed", outcome.Reason)
}

func TestProcessSwapReorgRollsBackBlock(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)
	f.trackWallet(t, traderAddr)
	ctx := context.Background()

	// Blocks 100..105 processed on the original fork.
	for block := int64(100); block <= 105; block++ {
		event := swapEvent(fmt.Sprintf("0xtx%d", block), block, "-100000000000000000000", "50000000000000000000")
		require.Equal(t, StatusApplied, f.pipeline.ProcessSwap(ctx, event).Status)
	}

	// A new event for block 102 with a different hash reveals the reorg.
	event := swapEvent("0xreorged", 102, "-100000000000000000000", "50000000000000000000")
	event.BlockHash = "0xforkedhash"
	outcome := f.pipeline.ProcessSwap(ctx, event)
	require.Equal(t, StatusApplied, outcome.Status, "err: %v", outcome.Err)

	// Everything from block 102 onward was deleted before reprocessing.
	for block := int64(102); block <= 105; block++ {
		processed, err := f.stores.Transactions().IsProcessed(ctx, fmt.Sprintf("0xtx%d", block))
		require.NoError(t, err)
		assert.False(t, processed, "block %d should be rolled back", block)
	}
	for block := int64(100); block <= 101; block++ {
		processed, err := f.stores.Transactions().IsProcessed(ctx, fmt.Sprintf("0xtx%d", block))
		require.NoError(t, err)
		assert.True(t, processed, "block %d should survive", block)
	}

	swaps, err := f.stores.Swaps().ListByWallet(ctx, traderAddr, 0)
	require.NoError(t, err)
	assert.Len(t, swaps, 3) // blocks 100, 101 and the reprocessed 102
}

func TestProcessSwapMissingTxHash(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)

	outcome := f.pipeline.ProcessSwap(context.Background(), SwapEvent{Pool: poolAddress})
	assert.Equal(t, StatusFailed, outcome.Status)
}

func TestProcessNFTTrade(t *testing.T) {
	f := newPipelineFixture(t, monAddress, tokenB)
	f.trackWallet(t, traderAddr)
	ctx := context.Background()

	event := NFTTradeEvent{
		TxHash:      "0xnft1",
		BlockNumber: 200,
		BlockHash:   "0xhash200",
		Contract:    "0xdddddddddddddddddddddddddddddddddddddddd",
		TokenID:     "42",
		ValueMon:    "3500000000000000000",
		IsSell:      true,
		Sender:      traderAddr,
	}

	outcome := f.pipeline.ProcessNFTTrade(ctx, event)
	require.Equal(t, StatusApplied, outcome.Status, "err: %v", outcome.Err)

	// NFT trades never touch positions.
	_, err := f.stores.Positions().Get(ctx, traderAddr, event.Contract)
	assert.ErrorIs(t, err, store.ErrNotFound)

	outcome = f.pipeline.ProcessNFTTrade(ctx, event)
	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, "already processed", outcome.Reason)
}
