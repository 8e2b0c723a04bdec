package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NFTTrade records a single NFT sale or purchase. Structurally parallel to
// Swap for reorg purposes: rows are deleted by block number on rollback.
type NFTTrade struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TxHash      string    `gorm:"size:66;uniqueIndex;not null"`
	BlockNumber int64     `gorm:"not null;index;index:ix_nft_block"`
	BlockHash   string    `gorm:"size:66;not null;index:ix_nft_block"`

	Contract string `gorm:"size:42;not null;index:ix_nft_contract_token"`
	TokenID  string `gorm:"size:80;not null;index:ix_nft_contract_token"`

	ValueMon decimal.Decimal `gorm:"type:numeric(36,18);not null"`
	IsSell   bool            `gorm:"not null;default:false"`

	Wallet    string    `gorm:"size:42;not null;index;index:ix_nft_wallet_timestamp"`
	Timestamp time.Time `gorm:"autoCreateTime;index;index:ix_nft_wallet_timestamp"`
}

func (NFTTrade) TableName() string {
	return "nft_trades"
}
