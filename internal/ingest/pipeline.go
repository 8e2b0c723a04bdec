package ingest

import (
	"context"
	"errors"

	"github.com/montrack/montrack/internal/ledger"
	"github.com/montrack/montrack/internal/models"
	"github.com/montrack/montrack/internal/store"
	"github.com/montrack/montrack/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// errAlreadyProcessed aborts an event transaction when the conditional
// processed-marker insert loses the race to a concurrent duplicate.
var errAlreadyProcessed = errors.New("transaction already processed")

// PoolResolver resolves a pool address to its (token0, token1) pair.
type PoolResolver interface {
	Resolve(ctx context.Context, poolAddress string) (string, string, error)
}

type side int

const (
	sideNone side = iota
	sideBuy
	sideSell
)

// Pipeline processes a single webhook event end to end: reorg probe,
// dedup, pool resolution, direction mapping, wallet resolution and the
// position ledger update, all inside one transactional scope per event.
type Pipeline struct {
	stores     store.Stores
	pools      PoolResolver
	wallets    *WalletResolver
	reorg      *ReorgResolver
	monAddress string
	logger     zerolog.Logger
}

// NewPipeline wires the per-event processing pipeline.
func NewPipeline(stores store.Stores, pools PoolResolver, wallets *WalletResolver, reorg *ReorgResolver, monAddress string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		stores:     stores,
		pools:      pools,
		wallets:    wallets,
		reorg:      reorg,
		monAddress: utils.NormalizeAddress(monAddress),
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// ProcessSwap runs one swap event through the pipeline and classifies the
// result. A failure at any stage affects this event only.
func (p *Pipeline) ProcessSwap(ctx context.Context, event SwapEvent) Outcome {
	txHash := utils.NormalizeAddress(event.TxHash)
	if txHash == "" {
		return Failed("", errors.New("swap event has no txHash"))
	}
	blockNumber := int64(event.BlockNumber)
	blockHash := utils.NormalizeAddress(event.BlockHash)

	// Best-effort: a transient failure here never blocks ingestion.
	p.reorg.Check(ctx, blockNumber, blockHash)

	// Cheap duplicate pre-check. The conditional insert inside the event
	// transaction below is the authoritative guard.
	if processed, err := p.stores.Transactions().IsProcessed(ctx, txHash); err == nil && processed {
		return Skipped(txHash, "already processed")
	}

	token0, token1, err := p.pools.Resolve(ctx, event.Pool)
	if err != nil {
		return Failed(txHash, err)
	}

	mapped, err := MapSwap(token0, token1, event.Amount0, event.Amount1)
	if err != nil {
		// No position effect, but still recorded as a no-op so the event is
		// not redelivered forever.
		markErr := p.stores.WithinTransaction(ctx, func(tx store.Stores) error {
			_, err := tx.Transactions().MarkProcessed(ctx, txHash, blockNumber, blockHash)
			return err
		})
		if markErr != nil {
			return Failed(txHash, markErr)
		}
		p.logger.Info().Str("tx_hash", txHash).Str("pool", event.Pool).Msg("Ignored swap with unmappable amounts")
		return Skipped(txHash, "unmappable amounts")
	}

	// MON pricing comes solely from the swap itself.
	var monAmount decimal.Decimal
	var token string
	var tokenAmount decimal.Decimal
	tradeSide := sideNone
	switch {
	case mapped.TokenIn == p.monAddress:
		// Wallet spent MON to acquire token_out.
		tradeSide = sideBuy
		monAmount = mapped.AmountIn
		token = mapped.TokenOut
		tokenAmount = mapped.AmountOut
	case mapped.TokenOut == p.monAddress:
		// Wallet disposed of token_in and received MON.
		tradeSide = sideSell
		monAmount = mapped.AmountOut
		token = mapped.TokenIn
		tokenAmount = mapped.AmountIn
	}

	wallet := p.wallets.Resolve(ctx, candidates(event.Sender, event.Recipient, event.From, event.To))

	var skipReason string
	err = p.stores.WithinTransaction(ctx, func(tx store.Stores) error {
		marked, err := tx.Transactions().MarkProcessed(ctx, txHash, blockNumber, blockHash)
		if err != nil {
			return err
		}
		if !marked {
			return errAlreadyProcessed
		}

		swap := &models.Swap{
			TxHash:       txHash,
			BlockNumber:  blockNumber,
			BlockHash:    blockHash,
			Pool:         utils.NormalizeAddress(event.Pool),
			TokenIn:      mapped.TokenIn,
			TokenOut:     mapped.TokenOut,
			AmountInRaw:  mapped.AmountInRaw,
			AmountOutRaw: mapped.AmountOutRaw,
			AmountIn:     mapped.AmountIn,
			AmountOut:    mapped.AmountOut,
			MonAmount:    monAmount,
			IsSell:       tradeSide == sideSell,
			Wallet:       wallet,
		}
		if err := tx.Swaps().Create(ctx, swap); err != nil {
			return err
		}

		switch {
		case tradeSide == sideNone:
			skipReason = "no MON involvement"
			return nil
		case wallet == UnknownWallet:
			skipReason = "no tracked wallet"
			return nil
		case !tokenAmount.IsPositive():
			skipReason = "zero token amount"
			return nil
		}

		price := monAmount.Div(tokenAmount)
		engine := ledger.NewEngine(tx.Positions(), p.logger)
		if tradeSide == sideBuy {
			_, err = engine.RecordBuy(ctx, wallet, token, tokenAmount, price)
		} else {
			_, err = engine.RecordSell(ctx, wallet, token, tokenAmount, price)
		}
		return err
	})
	if errors.Is(err, errAlreadyProcessed) {
		return Skipped(txHash, "already processed")
	}
	if err != nil {
		return Failed(txHash, err)
	}
	if skipReason != "" {
		return Skipped(txHash, skipReason)
	}

	p.logger.Info().
		Str("tx_hash", txHash).
		Str("wallet", wallet).
		Str("token", token).
		Str("mon_amount", monAmount.String()).
		Bool("is_sell", tradeSide == sideSell).
		Msg("Processed swap")
	return Applied(txHash)
}

// ProcessNFTTrade records an NFT trade. NFT trades are deduped and
// reorg-rolled-back like swaps but never touch the position ledger.
func (p *Pipeline) ProcessNFTTrade(ctx context.Context, event NFTTradeEvent) Outcome {
	txHash := utils.NormalizeAddress(event.TxHash)
	if txHash == "" {
		return Failed("", errors.New("nft trade event has no txHash"))
	}
	blockNumber := int64(event.BlockNumber)
	blockHash := utils.NormalizeAddress(event.BlockHash)

	p.reorg.Check(ctx, blockNumber, blockHash)

	if processed, err := p.stores.Transactions().IsProcessed(ctx, txHash); err == nil && processed {
		return Skipped(txHash, "already processed")
	}

	wallet := p.wallets.Resolve(ctx, candidates(event.Sender, event.Recipient, event.From, event.To))

	err := p.stores.WithinTransaction(ctx, func(tx store.Stores) error {
		marked, err := tx.Transactions().MarkProcessed(ctx, txHash, blockNumber, blockHash)
		if err != nil {
			return err
		}
		if !marked {
			return errAlreadyProcessed
		}

		return tx.NFTTrades().Create(ctx, &models.NFTTrade{
			TxHash:      txHash,
			BlockNumber: blockNumber,
			BlockHash:   blockHash,
			Contract:    utils.NormalizeAddress(event.Contract),
			TokenID:     event.TokenID,
			ValueMon:    utils.NormalizeAmount(event.ValueMon),
			IsSell:      event.IsSell,
			Wallet:      wallet,
		})
	})
	if errors.Is(err, errAlreadyProcessed) {
		return Skipped(txHash, "already processed")
	}
	if err != nil {
		return Failed(txHash, err)
	}

	return Applied(txHash)
}
