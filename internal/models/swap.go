package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Swap is an append-only fact record of a single trade. Rows are deleted
// only by reorg rollback of their block.
type Swap struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TxHash      string    `gorm:"size:66;uniqueIndex;not null"`
	BlockNumber int64     `gorm:"not null;index;index:ix_swap_block"`
	BlockHash   string    `gorm:"size:66;not null;index:ix_swap_block"`
	Pool        string    `gorm:"size:42;index"`

	TokenIn  string `gorm:"size:42;not null;index"`
	TokenOut string `gorm:"size:42;not null;index"`

	AmountInRaw  string          `gorm:"size:80"`
	AmountOutRaw string          `gorm:"size:80"`
	AmountIn     decimal.Decimal `gorm:"type:numeric(36,18)"`
	AmountOut    decimal.Decimal `gorm:"type:numeric(36,18)"`

	// MonAmount is the MON leg of the swap, zero when no MON is involved.
	MonAmount decimal.Decimal `gorm:"type:numeric(36,18);not null"`
	// IsSell is true when the wallet disposed of a token and received MON.
	IsSell bool `gorm:"not null;default:false"`

	Wallet    string    `gorm:"size:42;not null;index;index:ix_swap_wallet_timestamp"`
	Timestamp time.Time `gorm:"autoCreateTime;index;index:ix_swap_wallet_timestamp"`
}

func (Swap) TableName() string {
	return "swaps"
}
