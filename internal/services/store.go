// internal/services/store.go
package services

import (
	"sync"

	"github.com/bytemarket/marketplace-backend/internal/models"
)

// LedgerSnapshot is everything the ledger needs to resume after a restart.
// State is nil when the store has never been written.
type LedgerSnapshot struct {
	State             *models.MarketplaceState
	Products          []*models.Product
	Purchases         []*models.PurchaseRecord
	LastEventSequence uint64
}

// LedgerStore persists committed ledger mutations. Each Commit* call must be
// atomic: either every row it names is written or none are. The ledger
// serializes calls, so implementations never see concurrent commits.
type LedgerStore interface {
	Load() (*LedgerSnapshot, error)

	// CommitProduct writes a created or updated product row together with
	// the state row and the event describing the change.
	CommitProduct(p *models.Product, st *models.MarketplaceState, ev *models.LedgerEvent) error

	// CommitPurchase writes the purchase record, the updated product and
	// state rows, and the purchase event in one transaction.
	CommitPurchase(p *models.Product, rec *models.PurchaseRecord, st *models.MarketplaceState, ev *models.LedgerEvent) error

	// CommitState writes the state row and an administrative event.
	CommitState(st *models.MarketplaceState, ev *models.LedgerEvent) error

	// Events returns up to limit events with sequence greater than afterSeq,
	// in ascending sequence order.
	Events(afterSeq uint64, limit int) ([]models.LedgerEvent, error)
}

// MemoryStore is a LedgerStore with no durability beyond process lifetime.
// It backs tests and DB-less development runs.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.LedgerEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*LedgerSnapshot, error) {
	return &LedgerSnapshot{}, nil
}

func (m *MemoryStore) CommitProduct(p *models.Product, st *models.MarketplaceState, ev *models.LedgerEvent) error {
	return m.appendEvent(ev)
}

func (m *MemoryStore) CommitPurchase(p *models.Product, rec *models.PurchaseRecord, st *models.MarketplaceState, ev *models.LedgerEvent) error {
	return m.appendEvent(ev)
}

func (m *MemoryStore) CommitState(st *models.MarketplaceState, ev *models.LedgerEvent) error {
	return m.appendEvent(ev)
}

func (m *MemoryStore) Events(afterSeq uint64, limit int) ([]models.LedgerEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.LedgerEvent
	for _, ev := range m.events {
		if ev.Sequence <= afterSeq {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) appendEvent(ev *models.LedgerEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}
