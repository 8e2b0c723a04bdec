package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the per-(wallet, token) cost-basis row. The position ledger
// is its sole writer.
//
// Invariants under normal operation:
//   - Amount >= 0, and TotalCostMon == AverageEntryPriceMon * Amount while
//     Amount > 0.
//   - AverageEntryPriceMon is the volume-weighted average of all buy fills
//     and is unaffected by sells.
//   - RealizedPnlMon accumulates only on sells.
//
// UnrealizedPnlMon is a point-in-time mark from an externally supplied
// price; it is stale until refreshed.
type Position struct {
	Wallet string `gorm:"primaryKey;size:42"`
	Token  string `gorm:"primaryKey;size:42"`

	Amount decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0;index"`

	AverageEntryPriceMon decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`
	TotalCostMon         decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`

	RealizedPnlMon   decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`
	UnrealizedPnlMon decimal.Decimal `gorm:"type:numeric(36,18);default:0"`

	TotalBought decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`
	TotalSold   decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`
	TradeCount  int64           `gorm:"not null;default:0"`

	FirstTradeAt time.Time `gorm:"autoCreateTime"`
	LastUpdated  time.Time `gorm:"autoUpdateTime"`
}

func (Position) TableName() string {
	return "positions"
}

// TotalPnl is realized plus unrealized PnL in MON.
func (p *Position) TotalPnl() decimal.Decimal {
	return p.RealizedPnlMon.Add(p.UnrealizedPnlMon)
}
