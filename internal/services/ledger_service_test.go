// internal/services/ledger_service_test.go
package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/bytemarket/marketplace-backend/internal/config"
	"github.com/bytemarket/marketplace-backend/internal/models"
)

type recordedTransfer struct {
	To        string
	Amount    uint64
	Reference string
}

type fakePaymentChannel struct {
	transfers []recordedTransfer
}

func (f *fakePaymentChannel) Transfer(to string, amount uint64, reference string) error {
	f.transfers = append(f.transfers, recordedTransfer{To: to, Amount: amount, Reference: reference})
	return nil
}

type LedgerSuite struct {
	suite.Suite
	ledger   *LedgerService
	payments *fakePaymentChannel
}

func (s *LedgerSuite) SetupTest() {
	cfg := config.MarketplaceConfig{
		OwnerAddress: "owner",
		FeeBps:       250, // 2.5%
		PriceCap:     1_000_000_000,
	}

	s.payments = &fakePaymentChannel{}
	ledger, err := NewLedgerService(NewMemoryStore(), s.payments, cfg)
	s.Require().NoError(err)
	s.ledger = ledger
}

func (s *LedgerSuite) createProduct(seller string, price uint64) *models.Product {
	product, err := s.ledger.CreateProduct(seller, &CreateProductRequest{
		Name:         "Synthwave Sample Pack",
		Description:  "200 loops and one-shots",
		Category:     "music",
		Price:        price,
		URI:          "s3://content/packs/synthwave.zip",
		ThumbnailURI: "s3://content/thumbs/synthwave.png",
	})
	s.Require().NoError(err)
	return product
}

func (s *LedgerSuite) TestCreateProductAssignsDenseIDs() {
	first := s.createProduct("alice", 1000)
	second := s.createProduct("bob", 2000)
	third := s.createProduct("alice", 3000)

	s.Equal(uint64(1), first.ID)
	s.Equal(uint64(2), second.ID)
	s.Equal(uint64(3), third.ID)
	s.Equal(uint64(3), s.ledger.Stats().ProductCount)

	s.Equal("alice", first.Seller)
	s.True(first.Active)
	s.Zero(first.SalesCount)
}

func (s *LedgerSuite) TestCreateProductValidation() {
	cases := []struct {
		name string
		req  CreateProductRequest
	}{
		{"empty name", CreateProductRequest{Name: " ", Category: "music", Price: 1, URI: "u", ThumbnailURI: "t"}},
		{"name too long", CreateProductRequest{Name: strings.Repeat("x", 101), Category: "music", Price: 1, URI: "u", ThumbnailURI: "t"}},
		{"description too long", CreateProductRequest{Name: "n", Description: strings.Repeat("x", 501), Category: "music", Price: 1, URI: "u", ThumbnailURI: "t"}},
		{"empty category", CreateProductRequest{Name: "n", Category: "  ", Price: 1, URI: "u", ThumbnailURI: "t"}},
		{"category too long", CreateProductRequest{Name: "n", Category: strings.Repeat("x", 51), Price: 1, URI: "u", ThumbnailURI: "t"}},
		{"zero price", CreateProductRequest{Name: "n", Category: "music", Price: 0, URI: "u", ThumbnailURI: "t"}},
		{"price above cap", CreateProductRequest{Name: "n", Category: "music", Price: 1_000_000_001, URI: "u", ThumbnailURI: "t"}},
		{"empty uri", CreateProductRequest{Name: "n", Category: "music", Price: 1, URI: " ", ThumbnailURI: "t"}},
		{"uri too long", CreateProductRequest{Name: "n", Category: "music", Price: 1, URI: strings.Repeat("x", 513), ThumbnailURI: "t"}},
	}

	for _, tc := range cases {
		req := tc.req
		_, err := s.ledger.CreateProduct("alice", &req)
		s.Truef(IsValidationError(err), "%s: expected validation error, got %v", tc.name, err)
	}

	s.Zero(s.ledger.Stats().ProductCount)
}

func (s *LedgerSuite) TestUpdateProduct() {
	product := s.createProduct("alice", 1000)

	updated, err := s.ledger.UpdateProduct("alice", product.ID, &UpdateProductRequest{
		Name:        "Synthwave Sample Pack Vol. 2",
		Description: "Extended edition",
		Category:    "audio",
		Price:       1500,
	})
	s.Require().NoError(err)
	s.Equal("Synthwave Sample Pack Vol. 2", updated.Name)
	s.Equal(uint64(1500), updated.Price)
	s.Equal("alice", updated.Seller)
}

func (s *LedgerSuite) TestUpdateProductRejections() {
	product := s.createProduct("alice", 1000)

	req := &UpdateProductRequest{Name: "n", Category: "music", Price: 500}

	_, err := s.ledger.UpdateProduct("mallory", product.ID, req)
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.ledger.UpdateProduct("alice", 42, req)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.ledger.UpdateProduct("alice", product.ID, &UpdateProductRequest{Name: "n", Category: "music", Price: 2_000_000_000})
	s.True(IsValidationError(err))

	// No mutation happened
	got, err := s.ledger.GetProduct(product.ID)
	s.Require().NoError(err)
	s.Equal(product.Name, got.Name)
	s.Equal(product.Price, got.Price)
}

func (s *LedgerSuite) TestUpdateProductMedia() {
	product := s.createProduct("alice", 1000)

	updated, err := s.ledger.UpdateProductMedia("alice", product.ID, &UpdateProductMediaRequest{
		URI:          "s3://content/packs/synthwave-v2.zip",
		ThumbnailURI: "s3://content/thumbs/synthwave-v2.png",
	})
	s.Require().NoError(err)
	s.Equal("s3://content/packs/synthwave-v2.zip", updated.URI)

	_, err = s.ledger.UpdateProductMedia("mallory", product.ID, &UpdateProductMediaRequest{URI: "u", ThumbnailURI: "t"})
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *LedgerSuite) TestDeactivateProduct() {
	product := s.createProduct("alice", 1000)

	s.Require().NoError(s.ledger.DeactivateProduct("alice", product.ID))
	s.Empty(s.ledger.AvailableProducts())

	// The row never disappears
	got, err := s.ledger.GetProduct(product.ID)
	s.Require().NoError(err)
	s.False(got.Active)

	// Idempotent for the seller
	s.NoError(s.ledger.DeactivateProduct("alice", product.ID))

	// Deactivated products cannot be purchased
	_, err = s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.ErrorIs(err, ErrNotFound)

	s.ErrorIs(s.ledger.DeactivateProduct("mallory", product.ID), ErrUnauthorized)
}

func (s *LedgerSuite) TestPurchaseHappyPath() {
	product := s.createProduct("alice", 1000)

	receipt, err := s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.Require().NoError(err)

	s.Equal(uint64(25), receipt.Fee)
	s.Equal(uint64(975), receipt.SellerProceeds)
	s.Equal(receipt.Price, receipt.Fee+receipt.SellerProceeds)

	stats := s.ledger.Stats()
	s.Equal(uint64(25), stats.AccumulatedFees)
	s.Equal(uint64(1), stats.TotalSales)

	got, err := s.ledger.GetProduct(product.ID)
	s.Require().NoError(err)
	s.Equal(uint64(1), got.SalesCount)

	s.True(s.ledger.HasPurchased(product.ID, "bob"))
	s.False(s.ledger.HasPurchased(product.ID, "carol"))

	s.Require().Len(s.payments.transfers, 1)
	s.Equal("alice", s.payments.transfers[0].To)
	s.Equal(uint64(975), s.payments.transfers[0].Amount)
}

func (s *LedgerSuite) TestPurchaseFeeTruncates() {
	product := s.createProduct("alice", 999)

	receipt, err := s.ledger.PurchaseProduct("bob", product.ID, 999)
	s.Require().NoError(err)

	// 999 * 250 / 10000 = 24.975, truncated
	s.Equal(uint64(24), receipt.Fee)
	s.Equal(uint64(975), receipt.SellerProceeds)
	s.Equal(uint64(999), receipt.Fee+receipt.SellerProceeds)
}

func (s *LedgerSuite) TestPurchaseWithZeroFee() {
	s.Require().NoError(s.ledger.SetFeeBps("owner", 0))
	product := s.createProduct("alice", 1000)

	receipt, err := s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.Require().NoError(err)
	s.Zero(receipt.Fee)
	s.Equal(uint64(1000), receipt.SellerProceeds)
	s.Zero(s.ledger.Stats().AccumulatedFees)
}

func (s *LedgerSuite) TestPurchasePriceMismatch() {
	product := s.createProduct("alice", 1000)

	_, err := s.ledger.PurchaseProduct("bob", product.ID, 999)
	s.ErrorIs(err, ErrPriceMismatch)

	_, err = s.ledger.PurchaseProduct("bob", product.ID, 1001)
	s.ErrorIs(err, ErrPriceMismatch)

	stats := s.ledger.Stats()
	s.Zero(stats.TotalSales)
	s.Zero(stats.AccumulatedFees)
	s.False(s.ledger.HasPurchased(product.ID, "bob"))
	s.Empty(s.payments.transfers)
}

func (s *LedgerSuite) TestPurchaseTwiceRejected() {
	product := s.createProduct("alice", 1000)

	_, err := s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.Require().NoError(err)

	_, err = s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.ErrorIs(err, ErrAlreadyPurchased)

	// Counters unchanged by the rejected call
	stats := s.ledger.Stats()
	s.Equal(uint64(1), stats.TotalSales)
	s.Equal(uint64(25), stats.AccumulatedFees)

	got, err := s.ledger.GetProduct(product.ID)
	s.Require().NoError(err)
	s.Equal(uint64(1), got.SalesCount)
	s.Len(s.payments.transfers, 1)
}

func (s *LedgerSuite) TestSellerCannotBuyOwnProduct() {
	product := s.createProduct("alice", 1000)

	_, err := s.ledger.PurchaseProduct("alice", product.ID, 1000)
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *LedgerSuite) TestPurchaseUnknownProduct() {
	_, err := s.ledger.PurchaseProduct("bob", 7, 1000)
	s.ErrorIs(err, ErrNotFound)
}

func (s *LedgerSuite) TestPauseGatesMutationsButNotQueries() {
	product := s.createProduct("alice", 1000)

	s.Require().NoError(s.ledger.Pause("owner"))

	_, err := s.ledger.CreateProduct("alice", &CreateProductRequest{
		Name: "n", Category: "music", Price: 1, URI: "u", ThumbnailURI: "t",
	})
	s.ErrorIs(err, ErrPaused)

	_, err = s.ledger.UpdateProduct("alice", product.ID, &UpdateProductRequest{Name: "n", Category: "music", Price: 1})
	s.ErrorIs(err, ErrPaused)

	_, err = s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.ErrorIs(err, ErrPaused)

	s.ErrorIs(s.ledger.DeactivateProduct("alice", product.ID), ErrPaused)

	// Queries stay available
	got, err := s.ledger.GetProduct(product.ID)
	s.NoError(err)
	s.NotNil(got)
	s.Len(s.ledger.AvailableProducts(), 1)
	s.True(s.ledger.Stats().Paused)

	// Unpause restores normal operation
	s.Require().NoError(s.ledger.Unpause("owner"))
	_, err = s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.NoError(err)
}

func (s *LedgerSuite) TestPauseIsOwnerOnlyAndIdempotent() {
	s.ErrorIs(s.ledger.Pause("mallory"), ErrUnauthorized)
	s.False(s.ledger.Stats().Paused)

	s.Require().NoError(s.ledger.Pause("owner"))
	s.Require().NoError(s.ledger.Pause("owner")) // no-op success
	s.True(s.ledger.Stats().Paused)

	s.ErrorIs(s.ledger.Unpause("mallory"), ErrUnauthorized)
	s.True(s.ledger.Stats().Paused)
}

func (s *LedgerSuite) TestSetFeeBps() {
	s.ErrorIs(s.ledger.SetFeeBps("mallory", 100), ErrUnauthorized)

	err := s.ledger.SetFeeBps("owner", models.MaxFeeBps+1)
	s.True(IsValidationError(err))
	s.Equal(uint32(250), s.ledger.Stats().FeeBps)

	s.Require().NoError(s.ledger.SetFeeBps("owner", 1000))
	s.Equal(uint32(1000), s.ledger.Stats().FeeBps)

	product := s.createProduct("alice", 1000)
	receipt, err := s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.Require().NoError(err)
	s.Equal(uint64(100), receipt.Fee)
	s.Equal(uint64(900), receipt.SellerProceeds)
}

func (s *LedgerSuite) TestWithdrawFees() {
	product := s.createProduct("alice", 1000)
	_, err := s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.Require().NoError(err)

	_, err = s.ledger.WithdrawFees("mallory")
	s.ErrorIs(err, ErrUnauthorized)

	amount, err := s.ledger.WithdrawFees("owner")
	s.Require().NoError(err)
	s.Equal(uint64(25), amount)
	s.Zero(s.ledger.Stats().AccumulatedFees)

	// Last transfer goes to the owner
	s.Require().Len(s.payments.transfers, 2)
	s.Equal("owner", s.payments.transfers[1].To)
	s.Equal(uint64(25), s.payments.transfers[1].Amount)

	_, err = s.ledger.WithdrawFees("owner")
	s.ErrorIs(err, ErrNothingToWithdraw)
}

func (s *LedgerSuite) TestTransferOwnership() {
	s.ErrorIs(s.ledger.TransferOwnership("mallory", "mallory"), ErrUnauthorized)
	s.True(IsValidationError(s.ledger.TransferOwnership("owner", "  ")))

	s.Require().NoError(s.ledger.TransferOwnership("owner", "new-owner"))
	s.Equal("new-owner", s.ledger.Owner())

	// Old owner loses administrative rights
	s.ErrorIs(s.ledger.Pause("owner"), ErrUnauthorized)
	s.NoError(s.ledger.Pause("new-owner"))
}

func (s *LedgerSuite) TestFilteredViews() {
	s.createProduct("alice", 1000)
	bobs := s.createProduct("bob", 2000)

	music, err := s.ledger.UpdateProduct("bob", bobs.ID, &UpdateProductRequest{
		Name: "Drum Kit", Category: "percussion", Price: 2000,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.ledger.DeactivateProduct("alice", 1))

	// Seller view includes deactivated listings
	aliceView := s.ledger.SellerProducts("alice")
	s.Require().Len(aliceView, 1)
	s.False(aliceView[0].Active)

	// Category view is active-only
	s.Empty(s.ledger.ProductsByCategory("music"))
	byCategory := s.ledger.ProductsByCategory("percussion")
	s.Require().Len(byCategory, 1)
	s.Equal(music.ID, byCategory[0].ID)

	available := s.ledger.AvailableProducts()
	s.Require().Len(available, 1)
	s.Equal(bobs.ID, available[0].ID)
}

func (s *LedgerSuite) TestAvailableProductsAscendingOrder() {
	for i := 0; i < 5; i++ {
		s.createProduct("alice", 1000)
	}

	available := s.ledger.AvailableProducts()
	s.Require().Len(available, 5)
	for i, p := range available {
		s.Equal(uint64(i+1), p.ID)
	}
}

func (s *LedgerSuite) TestEventLog() {
	product := s.createProduct("alice", 1000)
	_, err := s.ledger.PurchaseProduct("bob", product.ID, 1000)
	s.Require().NoError(err)

	events, err := s.ledger.Events(0, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 3)

	s.Equal(models.EventMarketplaceInitialized, events[0].Kind)
	s.Equal(models.EventProductCreated, events[1].Kind)
	s.Equal(models.EventProductPurchased, events[2].Kind)

	// Sequences are dense and ascending
	for i, ev := range events {
		s.Equal(uint64(i+1), ev.Sequence)
	}

	// Indexers resume from any offset
	tail, err := s.ledger.Events(events[1].Sequence, 10)
	s.Require().NoError(err)
	s.Require().Len(tail, 1)
	s.Equal(models.EventProductPurchased, tail[0].Kind)

	limited, err := s.ledger.Events(0, 2)
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *LedgerSuite) TestSalesCountMatchesPurchaseRecords() {
	product := s.createProduct("alice", 1000)
	buyers := []string{"bob", "carol", "dave"}

	for _, buyer := range buyers {
		_, err := s.ledger.PurchaseProduct(buyer, product.ID, 1000)
		s.Require().NoError(err)
	}

	got, err := s.ledger.GetProduct(product.ID)
	s.Require().NoError(err)

	var records uint64
	for _, buyer := range buyers {
		if s.ledger.HasPurchased(product.ID, buyer) {
			records++
		}
	}
	s.Equal(records, got.SalesCount)
	s.Equal(uint64(len(buyers)), s.ledger.Stats().TotalSales)
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "price", Reason: "must be positive"}
	assert.Equal(t, "invalid price: must be positive", err.Error())
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(ErrPaused))
}
