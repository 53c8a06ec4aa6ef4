// internal/handlers/respond.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bytemarket/marketplace-backend/internal/services"
	"github.com/bytemarket/marketplace-backend/internal/utils"
)

// respondLedgerError maps ledger error kinds to HTTP responses. Paused is the
// one transient kind and gets its own status so clients can retry.
func respondLedgerError(c *gin.Context, err error) {
	var ve *services.ValidationError

	switch {
	case errors.Is(err, services.ErrPaused):
		utils.PausedResponse(c)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, "Product not found")
	case errors.Is(err, services.ErrUnauthorized):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrPriceMismatch):
		utils.ErrorResponse(c, http.StatusBadRequest, "PRICE_MISMATCH", err.Error(), nil)
	case errors.Is(err, services.ErrAlreadyPurchased):
		utils.ConflictResponse(c, "ALREADY_PURCHASED", err.Error())
	case errors.Is(err, services.ErrNothingToWithdraw):
		utils.ConflictResponse(c, "NOTHING_TO_WITHDRAW", err.Error())
	case errors.As(err, &ve):
		utils.ValidationFailedResponse(c, ve.Error(), ve)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

func parseProductID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return 0, false
	}
	return id, true
}
