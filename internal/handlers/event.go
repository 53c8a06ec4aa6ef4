// internal/handlers/event.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bytemarket/marketplace-backend/internal/services"
	"github.com/bytemarket/marketplace-backend/internal/utils"
)

const maxEventPageSize = 500

// EventHandler serves the append-only event log to external indexers, who
// read forward from any sequence offset.
type EventHandler struct {
	ledger *services.LedgerService
}

func NewEventHandler(ledger *services.LedgerService) *EventHandler {
	return &EventHandler{
		ledger: ledger,
	}
}

// GET /events?after=&limit=
func (h *EventHandler) GetEvents(c *gin.Context) {
	after, err := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid after parameter", nil)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > maxEventPageSize {
		limit = 100
	}

	events, err := h.ledger.Events(after, limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"events": events,
	})
}
