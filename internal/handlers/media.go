// internal/handlers/media.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bytemarket/marketplace-backend/internal/services"
	"github.com/bytemarket/marketplace-backend/internal/utils"
)

// MediaHandler uploads product files to the content store and returns the
// opaque URI a listing can carry.
type MediaHandler struct {
	storageService *services.StorageService
}

func NewMediaHandler(storageService *services.StorageService) *MediaHandler {
	return &MediaHandler{
		storageService: storageService,
	}
}

// POST /media
func (h *MediaHandler) Upload(c *gin.Context) {
	if _, exists := utils.GetCallerFromContext(c); !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file uploaded", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Failed to open uploaded file", err.Error())
		return
	}
	defer file.Close()

	ref, err := h.storageService.UploadFile(file, fileHeader, "products")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"content": ref,
	})
}

// DELETE /media/*key
func (h *MediaHandler) Delete(c *gin.Context) {
	if _, exists := utils.GetCallerFromContext(c); !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		utils.BadRequestResponse(c, "Missing content key", nil)
		return
	}

	if err := h.storageService.DeleteFile(key); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"deleted": key,
	})
}
