package ingest

import (
	"errors"

	"github.com/montrack/montrack/internal/utils"
	"github.com/shopspring/decimal"
)

// ErrUnmappable means neither amount carries a usable sign (both zero);
// the event has no position effect but is still recorded as a no-op so the
// caller marks it processed and avoids retry loops.
var ErrUnmappable = errors.New("swap direction unmappable")

// MappedSwap is the directional view of a raw swap event: which token the
// wallet sent (in) and received (out), with raw and normalized amounts.
type MappedSwap struct {
	TokenIn      string
	TokenOut     string
	AmountInRaw  string
	AmountOutRaw string
	AmountIn     decimal.Decimal
	AmountOut    decimal.Decimal
}

// MapSwap binds token_in to whichever pool token has the negative (sent)
// amount and token_out to the positive (received) one. When the amounts do
// not form a clean two-asset swap, the nonzero side's sign is authoritative;
// with both sides zero the swap is unmappable.
func MapSwap(token0, token1, amount0Raw, amount1Raw string) (*MappedSwap, error) {
	a0 := utils.ParseRawAmount(amount0Raw)
	a1 := utils.ParseRawAmount(amount1Raw)

	var token0In bool
	switch {
	case a0.IsNegative() && a1.IsPositive():
		token0In = true
	case a1.IsNegative() && a0.IsPositive():
		token0In = false
	case !a0.IsZero():
		token0In = a0.IsNegative()
	case !a1.IsZero():
		token0In = !a1.IsNegative()
	default:
		return nil, ErrUnmappable
	}

	in, out := a0.Abs(), a1.Abs()
	tokenIn, tokenOut := token0, token1
	if !token0In {
		in, out = a1.Abs(), a0.Abs()
		tokenIn, tokenOut = token1, token0
	}

	return &MappedSwap{
		TokenIn:      tokenIn,
		TokenOut:     tokenOut,
		AmountInRaw:  in.String(),
		AmountOutRaw: out.String(),
		AmountIn:     utils.ToTokenUnits(in),
		AmountOut:    utils.ToTokenUnits(out),
	}, nil
}
