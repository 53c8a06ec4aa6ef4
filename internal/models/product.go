// internal/models/product.go
package models

import "time"

// Field bounds enforced by the ledger before a Product is ever stored.
const (
	MaxNameLen        = 100
	MaxDescriptionLen = 500
	MaxCategoryLen    = 50
	MaxContentRefLen  = 512

	MaxFeeBps      = 1000 // 10%
	FeeDenominator = 10000
)

// Product is a digital-product listing. Ids are dense and monotonically
// assigned starting at 1; rows are never deleted, only deactivated.
type Product struct {
	ID           uint64    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Seller       string    `json:"seller" gorm:"size:128;not null;index"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Description  string    `json:"description" gorm:"size:500"`
	Category     string    `json:"category" gorm:"size:50;not null;index"`
	Price        uint64    `json:"price" gorm:"not null"`
	URI          string    `json:"uri" gorm:"size:512;not null"`
	ThumbnailURI string    `json:"thumbnail_uri" gorm:"size:512;not null"`
	SalesCount   uint64    `json:"sales_count" gorm:"not null;default:0"`
	Active       bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
