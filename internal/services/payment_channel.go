// internal/services/payment_channel.go
package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/transfer"

	"github.com/bytemarket/marketplace-backend/internal/config"
)

// PaymentChannel moves funds outside the ledger. The ledger computes amounts
// and signals intended transfers; settlement is the channel's problem.
// Implementations must not call back into the LedgerService — transfers are
// signalled while the ledger's write lock is held.
type PaymentChannel interface {
	Transfer(to string, amount uint64, reference string) error
}

// StripePaymentChannel settles transfers through Stripe Connect. Party
// addresses are treated as connected-account ids.
type StripePaymentChannel struct {
	currency string
}

func NewStripePaymentChannel(cfg *config.Config) *StripePaymentChannel {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &StripePaymentChannel{
		currency: cfg.Payment.Currency,
	}
}

func (c *StripePaymentChannel) Transfer(to string, amount uint64, reference string) error {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(amount)),
		Currency:    stripe.String(c.currency),
		Destination: stripe.String(to),
	}
	params.AddMetadata("reference", reference)

	if _, err := transfer.New(params); err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

// LogPaymentChannel records intended transfers in the log only. Used when no
// Stripe key is configured and in tests.
type LogPaymentChannel struct{}

func (LogPaymentChannel) Transfer(to string, amount uint64, reference string) error {
	logrus.WithFields(logrus.Fields{
		"to":        to,
		"amount":    amount,
		"reference": reference,
	}).Info("payment transfer recorded")
	return nil
}
