// Package ledger implements the weighted-average cost-basis position
// engine. All PnL is denominated in MON. The engine is the sole writer of
// position rows; every mutation runs under the store's per-(wallet, token)
// exclusive access.
package ledger

import (
	"context"
	"fmt"

	"github.com/montrack/montrack/internal/metrics"
	"github.com/montrack/montrack/internal/models"
	"github.com/montrack/montrack/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Engine applies buys and sells to the position store.
type Engine struct {
	positions store.PositionStore
	logger    zerolog.Logger
}

// NewEngine creates a position ledger engine.
func NewEngine(positions store.PositionStore, logger zerolog.Logger) *Engine {
	return &Engine{
		positions: positions,
		logger:    logger.With().Str("component", "position_ledger").Logger(),
	}
}

// RecordBuy applies a buy fill to the (wallet, token) position, folding the
// fill into the volume-weighted average entry price.
func (e *Engine) RecordBuy(ctx context.Context, wallet, token string, buyAmount, buyPriceMon decimal.Decimal) (*models.Position, error) {
	if !buyAmount.IsPositive() {
		return nil, fmt.Errorf("buy amount must be positive, got %s", buyAmount)
	}
	if buyPriceMon.IsNegative() {
		return nil, fmt.Errorf("buy price must not be negative, got %s", buyPriceMon)
	}

	pos, err := e.positions.Mutate(ctx, wallet, token, func(pos *models.Position, found bool) error {
		ApplyBuy(pos, found, buyAmount, buyPriceMon)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record buy for %s/%s: %w", wallet, token, err)
	}

	metrics.RecordPositionUpdate("buy")
	e.logger.Debug().
		Str("wallet", wallet).
		Str("token", token).
		Str("amount", buyAmount.String()).
		Str("price_mon", buyPriceMon.String()).
		Str("avg_entry", pos.AverageEntryPriceMon.String()).
		Msg("Recorded buy")

	return pos, nil
}

// RecordSell applies a sell fill to the (wallet, token) position, realizing
// PnL against the average entry price.
func (e *Engine) RecordSell(ctx context.Context, wallet, token string, sellAmount, sellPriceMon decimal.Decimal) (*models.Position, error) {
	if !sellAmount.IsPositive() {
		return nil, fmt.Errorf("sell amount must be positive, got %s", sellAmount)
	}
	if sellPriceMon.IsNegative() {
		return nil, fmt.Errorf("sell price must not be negative, got %s", sellPriceMon)
	}

	pos, err := e.positions.Mutate(ctx, wallet, token, func(pos *models.Position, found bool) error {
		ApplySell(pos, found, sellAmount, sellPriceMon)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record sell for %s/%s: %w", wallet, token, err)
	}

	metrics.RecordPositionUpdate("sell")
	e.logger.Debug().
		Str("wallet", wallet).
		Str("token", token).
		Str("amount", sellAmount.String()).
		Str("price_mon", sellPriceMon.String()).
		Str("realized_pnl", pos.RealizedPnlMon.String()).
		Msg("Recorded sell")

	return pos, nil
}

// MarkUnrealized recomputes unrealized PnL for every open position of the
// token at the given price. A pure recomputation, never additive.
func (e *Engine) MarkUnrealized(ctx context.Context, token string, currentPriceMon decimal.Decimal) (int64, error) {
	updated, err := e.positions.MarkUnrealized(ctx, token, currentPriceMon)
	if err != nil {
		return 0, fmt.Errorf("failed to mark unrealized pnl for %s: %w", token, err)
	}

	e.logger.Debug().
		Str("token", token).
		Str("price_mon", currentPriceMon.String()).
		Int64("positions", updated).
		Msg("Marked unrealized PnL")

	return updated, nil
}

// ApplyBuy folds a buy fill into pos. found reports whether the position
// existed before this fill.
func ApplyBuy(pos *models.Position, found bool, buyAmount, buyPriceMon decimal.Decimal) {
	if !found {
		pos.Amount = buyAmount
		pos.AverageEntryPriceMon = buyPriceMon
		pos.TotalCostMon = buyAmount.Mul(buyPriceMon)
		pos.TotalBought = buyAmount
		pos.TradeCount = 1
		return
	}

	newTotalCost := pos.TotalCostMon.Add(buyAmount.Mul(buyPriceMon))
	newAmount := pos.Amount.Add(buyAmount)

	if newAmount.IsPositive() {
		pos.AverageEntryPriceMon = newTotalCost.Div(newAmount)
	} else {
		pos.AverageEntryPriceMon = decimal.Zero
	}
	pos.TotalCostMon = newTotalCost
	pos.Amount = newAmount
	pos.TotalBought = pos.TotalBought.Add(buyAmount)
	pos.TradeCount++
}

// ApplySell applies a sell fill to pos, realizing PnL against the average
// entry price. A full close resets the cost basis; an oversell leaves the
// amount negative with a zeroed cost basis and the average entry price
// retained for display only.
func ApplySell(pos *models.Position, found bool, sellAmount, sellPriceMon decimal.Decimal) {
	if !found {
		// Sell with no cost-basis history: document a short at the sell
		// price with zero realized PnL.
		pos.Amount = sellAmount.Neg()
		pos.AverageEntryPriceMon = sellPriceMon
		pos.TotalCostMon = decimal.Zero
		pos.RealizedPnlMon = decimal.Zero
		pos.TotalSold = sellAmount
		pos.TradeCount = 1
		return
	}

	pnl := sellPriceMon.Sub(pos.AverageEntryPriceMon).Mul(sellAmount)
	pos.RealizedPnlMon = pos.RealizedPnlMon.Add(pnl)

	newAmount := pos.Amount.Sub(sellAmount)
	switch {
	case newAmount.IsPositive():
		// Partial sell: reduce the cost basis by the sold portion, the
		// average entry price is unchanged.
		pos.TotalCostMon = pos.TotalCostMon.Sub(pos.AverageEntryPriceMon.Mul(sellAmount))
		pos.Amount = newAmount
	case newAmount.IsZero():
		// Full close: a subsequent buy starts a fresh cost basis.
		pos.Amount = decimal.Zero
		pos.TotalCostMon = decimal.Zero
		pos.AverageEntryPriceMon = decimal.Zero
	default:
		// Oversell: the amount goes negative, the cost basis is zeroed and
		// the entry price is kept for display only.
		pos.Amount = newAmount
		pos.TotalCostMon = decimal.Zero
	}

	pos.TotalSold = pos.TotalSold.Add(sellAmount)
	pos.TradeCount++
}
