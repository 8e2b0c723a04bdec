package models

import "time"

// Pool caches the two constituent token addresses of a liquidity pool.
// Rows are immutable once created except LastUpdated.
type Pool struct {
	Address     string    `gorm:"primaryKey;size:42"`
	Token0      string    `gorm:"size:42;not null;index:ix_pool_tokens"`
	Token1      string    `gorm:"size:42;not null;index:ix_pool_tokens"`
	LastUpdated time.Time `gorm:"autoUpdateTime"`
}

func (Pool) TableName() string {
	return "pools"
}
