// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bytemarket/marketplace-backend/internal/services"
	"github.com/bytemarket/marketplace-backend/internal/utils"
)

type ProductHandler struct {
	ledger *services.LedgerService
}

func NewProductHandler(ledger *services.LedgerService) *ProductHandler {
	return &ProductHandler{
		ledger: ledger,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	if seller := c.Query("seller"); seller != "" {
		utils.SuccessResponse(c, gin.H{
			"products": h.ledger.SellerProducts(seller),
		})
		return
	}

	if category := c.Query("category"); category != "" {
		utils.SuccessResponse(c, gin.H{
			"products": h.ledger.ProductsByCategory(category),
		})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"products": h.ledger.AvailableProducts(),
	})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := h.ledger.GetProduct(id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.ledger.CreateProduct(caller, &req)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"product": product,
	})
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseProductID(c)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.ledger.UpdateProduct(caller, id, &req)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// PUT /products/:id/media
func (h *ProductHandler) UpdateProductMedia(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseProductID(c)
	if !ok {
		return
	}

	var req services.UpdateProductMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	product, err := h.ledger.UpdateProductMedia(caller, id, &req)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// DELETE /products/:id
func (h *ProductHandler) DeactivateProduct(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := h.ledger.DeactivateProduct(caller, id); err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"deactivated": true,
	})
}

type purchaseRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

// POST /products/:id/purchase
func (h *ProductHandler) PurchaseProduct(c *gin.Context) {
	caller, exists := utils.GetCallerFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := parseProductID(c)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	receipt, err := h.ledger.PurchaseProduct(caller, id, req.Amount)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"receipt": receipt,
	})
}

// GET /products/:id/purchased?buyer=
func (h *ProductHandler) HasPurchased(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	buyer := c.Query("buyer")
	if buyer == "" {
		utils.BadRequestResponse(c, "buyer query parameter is required", nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"purchased": h.ledger.HasPurchased(id, buyer),
	})
}

// GET /stats
func (h *ProductHandler) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"stats": h.ledger.Stats(),
	})
}
