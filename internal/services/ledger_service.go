// internal/services/ledger_service.go
package services

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bytemarket/marketplace-backend/internal/config"
	"github.com/bytemarket/marketplace-backend/internal/models"
	"github.com/bytemarket/marketplace-backend/internal/utils"
)

// LedgerService is the authoritative marketplace ledger: products, purchase
// records and the administrative state, with all invariants enforced here.
//
// It is a single logical sequencer. Every mutating operation takes the write
// lock, validates, commits the full row set through the LedgerStore, applies
// the result in memory and only then signals the PaymentChannel — still under
// the lock, so no other mutation can observe intermediate state or start
// before the external transfer call returns. PaymentChannel implementations
// must never call back into the ledger.
type LedgerService struct {
	mu       sync.RWMutex
	store    LedgerStore
	payments PaymentChannel
	cfg      config.MarketplaceConfig

	state     models.MarketplaceState
	products  []*models.Product // index i holds product id i+1; ids are dense
	purchases map[purchaseKey]bool
	lastSeq   uint64
}

type purchaseKey struct {
	ProductID uint64
	Buyer     string
}

type CreateProductRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"max=500"`
	Category     string `json:"category" validate:"required,max=50"`
	Price        uint64 `json:"price" validate:"required"`
	URI          string `json:"uri" validate:"required,max=512"`
	ThumbnailURI string `json:"thumbnail_uri" validate:"required,max=512"`
}

type UpdateProductRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Category    string `json:"category" validate:"required,max=50"`
	Price       uint64 `json:"price" validate:"required"`
}

type UpdateProductMediaRequest struct {
	URI          string `json:"uri" validate:"required,max=512"`
	ThumbnailURI string `json:"thumbnail_uri" validate:"required,max=512"`
}

// PurchaseReceipt reports the exact split of a successful purchase;
// Fee + SellerProceeds always equals Price.
type PurchaseReceipt struct {
	ProductID      uint64 `json:"product_id"`
	Buyer          string `json:"buyer"`
	Price          uint64 `json:"price"`
	Fee            uint64 `json:"fee"`
	SellerProceeds uint64 `json:"seller_proceeds"`
}

// Stats is a consistent snapshot of the marketplace counters.
type Stats struct {
	ProductCount    uint64 `json:"product_count"`
	TotalSales      uint64 `json:"total_sales"`
	AccumulatedFees uint64 `json:"accumulated_fees"`
	FeeBps          uint32 `json:"fee_bps"`
	Paused          bool   `json:"paused"`
}

// NewLedgerService loads the persisted snapshot, or seeds a fresh state from
// the marketplace configuration when the store has never been written.
func NewLedgerService(store LedgerStore, payments PaymentChannel, cfg config.MarketplaceConfig) (*LedgerService, error) {
	snap, err := store.Load()
	if err != nil {
		return nil, err
	}

	s := &LedgerService{
		store:     store,
		payments:  payments,
		cfg:       cfg,
		purchases: make(map[purchaseKey]bool),
		lastSeq:   snap.LastEventSequence,
	}

	if snap.State != nil {
		s.state = *snap.State
		s.products = snap.Products
		for _, rec := range snap.Purchases {
			s.purchases[purchaseKey{rec.ProductID, rec.Buyer}] = true
		}
		return s, nil
	}

	s.state = models.MarketplaceState{
		ID:        models.StateRowID,
		Owner:     cfg.OwnerAddress,
		FeeBps:    cfg.FeeBps,
		UpdatedAt: time.Now().UTC(),
	}
	ev := s.nextEvent(models.EventMarketplaceInitialized, models.JSONB{
		"owner":   cfg.OwnerAddress,
		"fee_bps": cfg.FeeBps,
	})
	if err := store.CommitState(&s.state, ev); err != nil {
		return nil, err
	}
	s.lastSeq = ev.Sequence
	return s, nil
}

// CreateProduct lists a new product for the calling seller and allocates the
// next dense product id.
func (s *LedgerService) CreateProduct(caller string, req *CreateProductRequest) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Paused {
		return nil, ErrPaused
	}
	if caller == "" {
		return nil, ErrUnauthorized
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Field: "request", Reason: err.Error()}
	}
	if err := s.validateListing(req.Name, req.Description, req.Category, req.Price); err != nil {
		return nil, err
	}
	if err := validateContentRef("uri", req.URI); err != nil {
		return nil, err
	}
	if err := validateContentRef("thumbnail_uri", req.ThumbnailURI); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:           s.state.ProductCount + 1,
		Seller:       caller,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		URI:          req.URI,
		ThumbnailURI: req.ThumbnailURI,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	st := s.state
	st.ProductCount++
	st.UpdatedAt = now

	ev := s.nextEvent(models.EventProductCreated, models.JSONB{
		"product_id": product.ID,
		"seller":     product.Seller,
		"price":      product.Price,
	})
	if err := s.store.CommitProduct(product, &st, ev); err != nil {
		return nil, err
	}

	s.state = st
	s.products = append(s.products, product)
	s.lastSeq = ev.Sequence
	return cloneProduct(product), nil
}

// UpdateProduct replaces a product's metadata and price. Seller-only.
func (s *LedgerService) UpdateProduct(caller string, id uint64, req *UpdateProductRequest) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Paused {
		return nil, ErrPaused
	}
	product := s.productByID(id)
	if product == nil {
		return nil, ErrNotFound
	}
	if caller != product.Seller {
		return nil, ErrUnauthorized
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Field: "request", Reason: err.Error()}
	}
	if err := s.validateListing(req.Name, req.Description, req.Category, req.Price); err != nil {
		return nil, err
	}

	updated := *product
	updated.Name = req.Name
	updated.Description = req.Description
	updated.Category = req.Category
	updated.Price = req.Price
	updated.UpdatedAt = time.Now().UTC()

	ev := s.nextEvent(models.EventProductUpdated, models.JSONB{
		"product_id": id,
		"price":      updated.Price,
	})
	if err := s.store.CommitProduct(&updated, &s.state, ev); err != nil {
		return nil, err
	}

	*product = updated
	s.lastSeq = ev.Sequence
	return cloneProduct(product), nil
}

// UpdateProductMedia replaces a product's content references. Seller-only.
func (s *LedgerService) UpdateProductMedia(caller string, id uint64, req *UpdateProductMediaRequest) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Paused {
		return nil, ErrPaused
	}
	product := s.productByID(id)
	if product == nil {
		return nil, ErrNotFound
	}
	if caller != product.Seller {
		return nil, ErrUnauthorized
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, &ValidationError{Field: "request", Reason: err.Error()}
	}
	if err := validateContentRef("uri", req.URI); err != nil {
		return nil, err
	}
	if err := validateContentRef("thumbnail_uri", req.ThumbnailURI); err != nil {
		return nil, err
	}

	updated := *product
	updated.URI = req.URI
	updated.ThumbnailURI = req.ThumbnailURI
	updated.UpdatedAt = time.Now().UTC()

	ev := s.nextEvent(models.EventProductMediaUpdated, models.JSONB{
		"product_id": id,
	})
	if err := s.store.CommitProduct(&updated, &s.state, ev); err != nil {
		return nil, err
	}

	*product = updated
	s.lastSeq = ev.Sequence
	return cloneProduct(product), nil
}

// DeactivateProduct logically deletes a listing. The row stays queryable by
// id but drops out of available listings. Idempotent for the seller.
func (s *LedgerService) DeactivateProduct(caller string, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Paused {
		return ErrPaused
	}
	product := s.productByID(id)
	if product == nil {
		return ErrNotFound
	}
	if caller != product.Seller {
		return ErrUnauthorized
	}
	if !product.Active {
		return nil
	}

	updated := *product
	updated.Active = false
	updated.UpdatedAt = time.Now().UTC()

	ev := s.nextEvent(models.EventProductDeactivated, models.JSONB{
		"product_id": id,
	})
	if err := s.store.CommitProduct(&updated, &s.state, ev); err != nil {
		return err
	}

	*product = updated
	s.lastSeq = ev.Sequence
	return nil
}

// PurchaseProduct records a purchase if the caller is admitted: marketplace
// not paused, product available, caller not the seller, exact payment amount
// and no prior purchase of this product by this buyer. On success the fee
// split is fee = price * feeBps / 10000 (truncating) with the remainder going
// to the seller through the payment channel.
func (s *LedgerService) PurchaseProduct(caller string, id uint64, attachedAmount uint64) (*PurchaseReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Paused {
		return nil, ErrPaused
	}
	product := s.productByID(id)
	if product == nil || !product.Active {
		return nil, ErrNotFound
	}
	if caller == "" || caller == product.Seller {
		return nil, ErrUnauthorized
	}
	if attachedAmount != product.Price {
		return nil, ErrPriceMismatch
	}
	key := purchaseKey{id, caller}
	if s.purchases[key] {
		return nil, ErrAlreadyPurchased
	}

	fee := product.Price * uint64(s.state.FeeBps) / models.FeeDenominator
	proceeds := product.Price - fee

	now := time.Now().UTC()
	updated := *product
	updated.SalesCount++
	updated.UpdatedAt = now

	st := s.state
	st.TotalSales++
	st.AccumulatedFees += fee
	st.UpdatedAt = now

	record := &models.PurchaseRecord{ProductID: id, Buyer: caller, CreatedAt: now}
	ev := s.nextEvent(models.EventProductPurchased, models.JSONB{
		"product_id":      id,
		"buyer":           caller,
		"price":           product.Price,
		"fee":             fee,
		"seller_proceeds": proceeds,
	})
	if err := s.store.CommitPurchase(&updated, record, &st, ev); err != nil {
		return nil, err
	}

	*product = updated
	s.state = st
	s.purchases[key] = true
	s.lastSeq = ev.Sequence

	// Bookkeeping is committed; the lock stays held across the transfer so
	// nothing can reenter before this call returns. Transfer failures are the
	// channel's to resolve: the intended movement is already on the ledger.
	s.signalTransfer(product.Seller, proceeds, ev)

	return &PurchaseReceipt{
		ProductID:      id,
		Buyer:          caller,
		Price:          product.Price,
		Fee:            fee,
		SellerProceeds: proceeds,
	}, nil
}

// SetFeeBps changes the marketplace fee rate. Owner-only.
func (s *LedgerService) SetFeeBps(caller string, bps uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.state.Owner {
		return ErrUnauthorized
	}
	if bps > models.MaxFeeBps {
		return &ValidationError{Field: "fee_bps", Reason: "must not exceed 1000"}
	}

	st := s.state
	st.FeeBps = bps
	st.UpdatedAt = time.Now().UTC()

	ev := s.nextEvent(models.EventFeeUpdated, models.JSONB{"fee_bps": bps})
	if err := s.store.CommitState(&st, ev); err != nil {
		return err
	}

	s.state = st
	s.lastSeq = ev.Sequence
	return nil
}

// Pause halts creation, update and purchase operations. Owner-only and
// idempotent: pausing an already-paused marketplace succeeds without effect.
func (s *LedgerService) Pause(caller string) error {
	return s.setPaused(caller, true, models.EventMarketplacePaused)
}

// Unpause restores normal operation. Owner-only and idempotent.
func (s *LedgerService) Unpause(caller string) error {
	return s.setPaused(caller, false, models.EventMarketplaceUnpaused)
}

func (s *LedgerService) setPaused(caller string, paused bool, kind models.EventKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.state.Owner {
		return ErrUnauthorized
	}
	if s.state.Paused == paused {
		return nil
	}

	st := s.state
	st.Paused = paused
	st.UpdatedAt = time.Now().UTC()

	ev := s.nextEvent(kind, models.JSONB{})
	if err := s.store.CommitState(&st, ev); err != nil {
		return err
	}

	s.state = st
	s.lastSeq = ev.Sequence
	return nil
}

// WithdrawFees transfers all accumulated fees to the owner and zeroes the
// balance. Owner-only; rejects when nothing has accrued.
func (s *LedgerService) WithdrawFees(caller string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.state.Owner {
		return 0, ErrUnauthorized
	}
	amount := s.state.AccumulatedFees
	if amount == 0 {
		return 0, ErrNothingToWithdraw
	}

	st := s.state
	st.AccumulatedFees = 0
	st.UpdatedAt = time.Now().UTC()

	ev := s.nextEvent(models.EventFeesWithdrawn, models.JSONB{
		"owner":  s.state.Owner,
		"amount": amount,
	})
	if err := s.store.CommitState(&st, ev); err != nil {
		return 0, err
	}

	s.state = st
	s.lastSeq = ev.Sequence

	s.signalTransfer(st.Owner, amount, ev)
	return amount, nil
}

// TransferOwnership hands administrative control to a new owner. Owner-only.
func (s *LedgerService) TransferOwnership(caller, newOwner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.state.Owner {
		return ErrUnauthorized
	}
	if strings.TrimSpace(newOwner) == "" {
		return &ValidationError{Field: "new_owner", Reason: "must not be empty"}
	}

	st := s.state
	st.Owner = newOwner
	st.UpdatedAt = time.Now().UTC()

	ev := s.nextEvent(models.EventOwnershipTransferred, models.JSONB{
		"previous_owner": s.state.Owner,
		"new_owner":      newOwner,
	})
	if err := s.store.CommitState(&st, ev); err != nil {
		return err
	}

	s.state = st
	s.lastSeq = ev.Sequence
	return nil
}

// GetProduct returns the product with the given id, deactivated or not.
func (s *LedgerService) GetProduct(id uint64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product := s.productByID(id)
	if product == nil {
		return nil, ErrNotFound
	}
	return cloneProduct(product), nil
}

// AvailableProducts returns all active products in ascending id order.
func (s *LedgerService) AvailableProducts() []*models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Active {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

// SellerProducts returns every product listed by the seller, including
// deactivated ones, in ascending id order.
func (s *LedgerService) SellerProducts(seller string) []*models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Product
	for _, p := range s.products {
		if p.Seller == seller {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

// ProductsByCategory returns active products of the category in ascending
// id order.
func (s *LedgerService) ProductsByCategory(category string) []*models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Product
	for _, p := range s.products {
		if p.Active && p.Category == category {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}

// HasPurchased reports whether the buyer holds a purchase record for the
// product. Never fails; unknown ids simply report false.
func (s *LedgerService) HasPurchased(id uint64, buyer string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.purchases[purchaseKey{id, buyer}]
}

// Stats returns a consistent snapshot of the marketplace counters.
func (s *LedgerService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		ProductCount:    s.state.ProductCount,
		TotalSales:      s.state.TotalSales,
		AccumulatedFees: s.state.AccumulatedFees,
		FeeBps:          s.state.FeeBps,
		Paused:          s.state.Paused,
	}
}

// Owner returns the current administrative identity.
func (s *LedgerService) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Owner
}

// Events returns up to limit committed events after the given sequence, for
// external indexers reading the log forward.
func (s *LedgerService) Events(afterSeq uint64, limit int) ([]models.LedgerEvent, error) {
	return s.store.Events(afterSeq, limit)
}

// Helper methods

func (s *LedgerService) productByID(id uint64) *models.Product {
	if id == 0 || id > uint64(len(s.products)) {
		return nil
	}
	return s.products[id-1]
}

func (s *LedgerService) nextEvent(kind models.EventKind, payload models.JSONB) *models.LedgerEvent {
	return &models.LedgerEvent{
		Sequence:  s.lastSeq + 1,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *LedgerService) signalTransfer(to string, amount uint64, ev *models.LedgerEvent) {
	if err := s.payments.Transfer(to, amount, string(ev.Kind)); err != nil {
		logrus.WithFields(logrus.Fields{
			"to":       to,
			"amount":   amount,
			"sequence": ev.Sequence,
		}).WithError(err).Warn("payment channel transfer failed")
	}
}

func (s *LedgerService) validateListing(name, description, category string, price uint64) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(name) > models.MaxNameLen {
		return &ValidationError{Field: "name", Reason: "must be at most 100 characters"}
	}
	if len(description) > models.MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: "must be at most 500 characters"}
	}
	if strings.TrimSpace(category) == "" {
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if len(category) > models.MaxCategoryLen {
		return &ValidationError{Field: "category", Reason: "must be at most 50 characters"}
	}
	if price == 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if price > s.cfg.PriceCap {
		return &ValidationError{Field: "price", Reason: "exceeds the price cap"}
	}
	return nil
}

func validateContentRef(field, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if len(ref) > models.MaxContentRefLen {
		return &ValidationError{Field: field, Reason: "must be at most 512 characters"}
	}
	return nil
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	return &cp
}
