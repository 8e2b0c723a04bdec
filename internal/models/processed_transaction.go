package models

import "time"

// ProcessedTransaction marks a transaction hash as ingested and doubles as
// the reorg-detection witness for its block. Created once per tx hash,
// never updated, deleted only by reorg rollback.
type ProcessedTransaction struct {
	TxHash      string    `gorm:"primaryKey;size:66"`
	BlockNumber int64     `gorm:"not null;index;index:ix_processed_block_hash"`
	BlockHash   string    `gorm:"size:66;not null;index:ix_processed_block_hash"`
	Timestamp   time.Time `gorm:"autoCreateTime"`
}

func (ProcessedTransaction) TableName() string {
	return "processed_transactions"
}
