// internal/config/config_test.go
package config

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytemarket/marketplace-backend/internal/models"
)

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Marketplace: MarketplaceConfig{
			OwnerAddress: "owner",
			FeeBps:       250,
			PriceCap:     1_000_000_000_000,
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsEmptyOwner(t *testing.T) {
	cfg := validConfig()
	cfg.Marketplace.OwnerAddress = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsExcessiveFee(t *testing.T) {
	cfg := validConfig()
	cfg.Marketplace.FeeBps = models.MaxFeeBps + 1
	assert.Error(t, cfg.Validate())
}

func TestValidatePriceCapBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Marketplace.PriceCap = 0
	assert.Error(t, cfg.Validate())

	// The largest cap whose fee multiplication still fits in uint64.
	cfg.Marketplace.PriceCap = math.MaxUint64 / models.MaxFeeBps
	require.NoError(t, cfg.Validate())

	// One past it would let price*feeBps wrap and undercharge the fee.
	cfg.Marketplace.PriceCap = math.MaxUint64/models.MaxFeeBps + 1
	assert.Error(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "ledger",
		Password: "hunter2",
		Database: "marketplace",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=ledger password=hunter2 dbname=marketplace sslmode=require",
		db.DSN(),
	)
}
