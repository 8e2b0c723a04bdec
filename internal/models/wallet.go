package models

import "time"

// Wallet is a tracked wallet address with optional social metadata.
type Wallet struct {
	Address     string    `gorm:"primaryKey;size:42"`
	TwitterName string    `gorm:"size:64"`
	TwitterPfp  string    `gorm:"size:256"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Wallet) TableName() string {
	return "wallets"
}
