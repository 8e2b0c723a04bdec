package chainrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// 4-byte selectors of token0() and token1() on pair contracts.
const (
	selectorToken0 = "0x0dfe1681"
	selectorToken1 = "0xd21220a7"
)

// PoolTokens resolves the two constituent token addresses of a pool via
// eth_call. Addresses are returned lowercased.
func (c *Client) PoolTokens(ctx context.Context, poolAddress string) (string, string, error) {
	poolAddress = strings.ToLower(poolAddress)

	token0, err := c.callForAddress(ctx, poolAddress, selectorToken0)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve token0 of %s: %w", poolAddress, err)
	}

	token1, err := c.callForAddress(ctx, poolAddress, selectorToken1)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve token1 of %s: %w", poolAddress, err)
	}

	c.logger.Info().
		Str("pool", poolAddress).
		Str("token0", token0).
		Str("token1", token1).
		Msg("Resolved pool tokens")

	return token0, token1, nil
}

// callForAddress performs an eth_call returning a single ABI-encoded
// address and decodes the low 20 bytes of the 32-byte word.
func (c *Client) callForAddress(ctx context.Context, to, selector string) (string, error) {
	result, err := c.Call(ctx, "eth_call", []interface{}{
		map[string]string{"to": to, "data": selector},
		"latest",
	})
	if err != nil {
		return "", err
	}

	var hexResult string
	if err := json.Unmarshal(result, &hexResult); err != nil {
		return "", fmt.Errorf("unexpected eth_call result shape: %w", err)
	}

	raw, err := hexutil.Decode(hexResult)
	if err != nil {
		return "", fmt.Errorf("malformed eth_call result %q: %w", hexResult, err)
	}
	if len(raw) < common.AddressLength {
		return "", fmt.Errorf("eth_call result too short: %q", hexResult)
	}

	addr := common.BytesToAddress(raw)
	if addr == (common.Address{}) {
		return "", fmt.Errorf("eth_call returned the zero address")
	}

	return strings.ToLower(addr.Hex()), nil
}
