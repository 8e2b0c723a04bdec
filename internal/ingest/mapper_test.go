package ingest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	tokenB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestMapSwapCleanDirections(t *testing.T) {
	tests := []struct {
		name      string
		amount0   string
		amount1   string
		tokenIn   string
		tokenOut  string
		amountIn  string
		amountOut string
	}{
		{
			name:      "token0 sent",
			amount0:   "-50000000000000000000",
			amount1:   "30000000000000000000",
			tokenIn:   tokenA,
			tokenOut:  tokenB,
			amountIn:  "50",
			amountOut: "30",
		},
		{
			name:      "token1 sent",
			amount0:   "30000000000000000000",
			amount1:   "-50000000000000000000",
			tokenIn:   tokenB,
			tokenOut:  tokenA,
			amountIn:  "50",
			amountOut: "30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped, err := MapSwap(tokenA, tokenB, tt.amount0, tt.amount1)
			require.NoError(t, err)

			assert.Equal(t, tt.tokenIn, mapped.TokenIn)
			assert.Equal(t, tt.tokenOut, mapped.TokenOut)
			assert.True(t, mapped.AmountIn.Equal(decimal.RequireFromString(tt.amountIn)), "in: %s", mapped.AmountIn)
			assert.True(t, mapped.AmountOut.Equal(decimal.RequireFromString(tt.amountOut)), "out: %s", mapped.AmountOut)
			assert.Equal(t, "50000000000000000000", mapped.AmountInRaw)
			assert.Equal(t, "30000000000000000000", mapped.AmountOutRaw)
		})
	}
}

func TestMapSwapNonzeroSideDecides(t *testing.T) {
	// amount1 is zero; amount0's sign is authoritative.
	mapped, err := MapSwap(tokenA, tokenB, "-1000000000000000000", "0")
	require.NoError(t, err)
	assert.Equal(t, tokenA, mapped.TokenIn)
	assert.Equal(t, tokenB, mapped.TokenOut)
	assert.True(t, mapped.AmountOut.IsZero())

	mapped, err = MapSwap(tokenA, tokenB, "1000000000000000000", "0")
	require.NoError(t, err)
	assert.Equal(t, tokenB, mapped.TokenIn)
	assert.Equal(t, tokenA, mapped.TokenOut)

	// amount0 is zero; amount1 decides.
	mapped, err = MapSwap(tokenA, tokenB, "0", "2000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, tokenA, mapped.TokenIn)
	assert.Equal(t, tokenB, mapped.TokenOut)
}

func TestMapSwapSameSignAmount0Wins(t *testing.T) {
	mapped, err := MapSwap(tokenA, tokenB, "-1000000000000000000", "-2000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, tokenA, mapped.TokenIn)
	assert.Equal(t, tokenB, mapped.TokenOut)
}

func TestMapSwapBothZeroUnmappable(t *testing.T) {
	_, err := MapSwap(tokenA, tokenB, "0", "0")
	assert.ErrorIs(t, err, ErrUnmappable)

	// Garbage amounts parse to zero and are unmappable too.
	_, err = MapSwap(tokenA, tokenB, "not-a-number", "")
	assert.ErrorIs(t, err, ErrUnmappable)
}
