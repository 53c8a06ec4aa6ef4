// internal/models/purchase.go
package models

import "time"

// PurchaseRecord marks that a buyer has bought a product. A row is written
// exactly once per (product, buyer) pair and never modified afterwards.
type PurchaseRecord struct {
	ProductID uint64    `json:"product_id" gorm:"primaryKey;autoIncrement:false"`
	Buyer     string    `json:"buyer" gorm:"primaryKey;size:128"`
	CreatedAt time.Time `json:"created_at"`
}
