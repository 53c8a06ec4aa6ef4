// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bytemarket/marketplace-backend/internal/services"
	"github.com/bytemarket/marketplace-backend/internal/utils"
)

// AdminHandler exposes the owner-only ledger operations. Routes only require
// authentication; the ledger itself rejects callers that are not the owner.
type AdminHandler struct {
	ledger *services.LedgerService
}

func NewAdminHandler(ledger *services.LedgerService) *AdminHandler {
	return &AdminHandler{
		ledger: ledger,
	}
}

// POST /admin/pause
func (h *AdminHandler) Pause(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.ledger.Pause(caller); err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"paused": true,
	})
}

// POST /admin/unpause
func (h *AdminHandler) Unpause(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.ledger.Unpause(caller); err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"paused": false,
	})
}

type setFeeRequest struct {
	FeeBps uint32 `json:"fee_bps"`
}

// PUT /admin/fee
func (h *AdminHandler) SetFee(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req setFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.ledger.SetFeeBps(caller, req.FeeBps); err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"fee_bps": req.FeeBps,
	})
}

// POST /admin/withdraw
func (h *AdminHandler) WithdrawFees(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	amount, err := h.ledger.WithdrawFees(caller)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"amount": amount,
	})
}

type transferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// PUT /admin/owner
func (h *AdminHandler) TransferOwnership(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req transferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.ledger.TransferOwnership(caller, req.NewOwner); err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"owner": req.NewOwner,
	})
}
