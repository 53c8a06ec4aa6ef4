// internal/models/event.go
package models

import "time"

type EventKind string

const (
	EventMarketplaceInitialized EventKind = "marketplace.initialized"
	EventMarketplacePaused      EventKind = "marketplace.paused"
	EventMarketplaceUnpaused    EventKind = "marketplace.unpaused"
	EventFeeUpdated             EventKind = "marketplace.fee_updated"
	EventFeesWithdrawn          EventKind = "marketplace.fees_withdrawn"
	EventOwnershipTransferred   EventKind = "marketplace.ownership_transferred"
	EventProductCreated         EventKind = "product.created"
	EventProductUpdated         EventKind = "product.updated"
	EventProductMediaUpdated    EventKind = "product.media_updated"
	EventProductDeactivated     EventKind = "product.deactivated"
	EventProductPurchased       EventKind = "product.purchased"
)

// LedgerEvent is one entry of the append-only event log. Sequence numbers
// are dense and monotonic; indexers read forward from any offset instead of
// replaying ledger state.
type LedgerEvent struct {
	Sequence  uint64    `json:"sequence" gorm:"primaryKey;autoIncrement:false"`
	Kind      EventKind `json:"kind" gorm:"size:64;not null;index"`
	Payload   JSONB     `json:"payload" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`
}
