// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ledger. Every rejection leaves state untouched;
// retry policy belongs to the caller. ErrPaused is the only transient kind.
var (
	ErrPaused            = errors.New("marketplace is paused")
	ErrNotFound          = errors.New("product not found")
	ErrUnauthorized      = errors.New("caller is not authorized for this operation")
	ErrPriceMismatch     = errors.New("attached amount does not match product price")
	ErrAlreadyPurchased  = errors.New("product already purchased by this buyer")
	ErrNothingToWithdraw = errors.New("no accumulated fees to withdraw")
)

// ValidationError reports a field that failed the ledger's bound checks.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
