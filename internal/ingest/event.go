package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// BlockNumber tolerates both numeric and quoted-string JSON encodings,
// which the webhook stream mixes freely.
type BlockNumber int64

func (b *BlockNumber) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*b = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid block number %q: %w", data, err)
	}
	*b = BlockNumber(n)
	return nil
}

// SwapEvent is a single swap as delivered by the webhook stream. Amounts
// are signed decimal strings in raw 18-decimal units; a negative amount is
// the wallet's outflow.
type SwapEvent struct {
	TxHash      string      `json:"txHash"`
	BlockNumber BlockNumber `json:"blockNumber"`
	BlockHash   string      `json:"blockHash"`
	Pool        string      `json:"pool"`
	Amount0     string      `json:"amount0"`
	Amount1     string      `json:"amount1"`
	Sender      string      `json:"sender"`
	Recipient   string      `json:"recipient"`
	From        string      `json:"from"`
	To          string      `json:"to"`
}

// NFTTradeEvent is a single NFT trade as delivered by the webhook stream.
type NFTTradeEvent struct {
	TxHash      string      `json:"txHash"`
	BlockNumber BlockNumber `json:"blockNumber"`
	BlockHash   string      `json:"blockHash"`
	Contract    string      `json:"contract"`
	TokenID     string      `json:"tokenId"`
	ValueMon    string      `json:"valueMon"`
	IsSell      bool        `json:"isSell"`
	Sender      string      `json:"sender"`
	Recipient   string      `json:"recipient"`
	From        string      `json:"from"`
	To          string      `json:"to"`
}

// Payload is the webhook batch envelope.
type Payload struct {
	Swaps     []SwapEvent     `json:"swaps"`
	NFTTrades []NFTTradeEvent `json:"nftTrades"`
}

// candidates lists the event's address fields in resolution order.
func candidates(sender, recipient, from, to string) []string {
	return []string{sender, recipient, from, to}
}

var _ json.Unmarshaler = (*BlockNumber)(nil)
