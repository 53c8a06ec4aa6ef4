// internal/database/ledger_store.go
package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bytemarket/marketplace-backend/internal/models"
	"github.com/bytemarket/marketplace-backend/internal/services"
)

// LedgerStore persists ledger commits to Postgres. Each commit runs in one
// transaction so every mutating ledger operation is an atomic multi-row
// write, matching the no-partial-commits guarantee of the core.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) Load() (*services.LedgerSnapshot, error) {
	snap := &services.LedgerSnapshot{}

	var state models.MarketplaceState
	err := s.db.First(&state, "id = ?", models.StateRowID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return snap, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load marketplace state: %w", err)
	}
	snap.State = &state

	if err := s.db.Order("id asc").Find(&snap.Products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	if err := s.db.Find(&snap.Purchases).Error; err != nil {
		return nil, fmt.Errorf("failed to load purchase records: %w", err)
	}

	if err := s.db.Model(&models.LedgerEvent{}).
		Select("COALESCE(MAX(sequence), 0)").Scan(&snap.LastEventSequence).Error; err != nil {
		return nil, fmt.Errorf("failed to load event sequence: %w", err)
	}

	return snap, nil
}

func (s *LedgerStore) CommitProduct(p *models.Product, st *models.MarketplaceState, ev *models.LedgerEvent) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, p); err != nil {
			return fmt.Errorf("failed to write product: %w", err)
		}
		if err := upsert(tx, st); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}
		if err := tx.Create(ev).Error; err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
		return nil
	})
}

func (s *LedgerStore) CommitPurchase(p *models.Product, rec *models.PurchaseRecord, st *models.MarketplaceState, ev *models.LedgerEvent) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, p); err != nil {
			return fmt.Errorf("failed to write product: %w", err)
		}
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to write purchase record: %w", err)
		}
		if err := upsert(tx, st); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}
		if err := tx.Create(ev).Error; err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
		return nil
	})
}

func (s *LedgerStore) CommitState(st *models.MarketplaceState, ev *models.LedgerEvent) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, st); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}
		if err := tx.Create(ev).Error; err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
		return nil
	})
}

func (s *LedgerStore) Events(afterSeq uint64, limit int) ([]models.LedgerEvent, error) {
	var events []models.LedgerEvent
	query := s.db.Where("sequence > ?", afterSeq).Order("sequence asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

// Rows carry their primary keys from the ledger, so inserts and updates go
// through the same conflict-aware write.
func upsert(tx *gorm.DB, value interface{}) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}
