// internal/models/marketplace_state.go
package models

import "time"

// MarketplaceState is the single administrative record of the ledger.
// Exactly one row exists, keyed by StateRowID.
type MarketplaceState struct {
	ID              uint8     `json:"-" gorm:"primaryKey;autoIncrement:false"`
	Owner           string    `json:"owner" gorm:"size:128;not null"`
	FeeBps          uint32    `json:"fee_bps" gorm:"not null"`
	AccumulatedFees uint64    `json:"accumulated_fees" gorm:"not null;default:0"`
	TotalSales      uint64    `json:"total_sales" gorm:"not null;default:0"`
	ProductCount    uint64    `json:"product_count" gorm:"not null;default:0"`
	Paused          bool      `json:"paused" gorm:"not null;default:false"`
	UpdatedAt       time.Time `json:"updated_at"`
}

const StateRowID uint8 = 1
