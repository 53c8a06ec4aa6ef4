// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bytemarket/marketplace-backend/internal/config"
	"github.com/bytemarket/marketplace-backend/internal/handlers"
	"github.com/bytemarket/marketplace-backend/internal/middleware"
	"github.com/bytemarket/marketplace-backend/internal/services"
	"github.com/bytemarket/marketplace-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, ledger *services.LedgerService) (*gin.Engine, error) {
	// Initialize services
	authService := services.NewAuthService(db, cfg)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(ledger)
	adminHandler := handlers.NewAdminHandler(ledger)
	eventHandler := handlers.NewEventHandler(ledger)
	mediaHandler := handlers.NewMediaHandler(storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.BrowseRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Identity routes
		auth := v1.Group("/auth")
		auth.Use(middleware.TokenRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/token", authHandler.Token)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.GET("/:id/purchased", productHandler.HasPurchased)

			// Mutating routes; seller checks happen inside the ledger
			protected := products.Group("")
			protected.Use(middleware.AuthRequired(), middleware.TradeRateLimit())
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.PUT("/:id/media", productHandler.UpdateProductMedia)
				protected.DELETE("/:id", productHandler.DeactivateProduct)
				protected.POST("/:id/purchase", productHandler.PurchaseProduct)
			}
		}

		// Marketplace statistics and event log (public, read-only)
		v1.GET("/stats", productHandler.GetStats)
		v1.GET("/events", eventHandler.GetEvents)

		// Media upload
		media := v1.Group("/media")
		media.Use(middleware.AuthRequired(), middleware.UploadRateLimit())
		{
			media.POST("", mediaHandler.Upload)
			media.DELETE("/*key", mediaHandler.Delete)
		}

		// Admin routes; owner checks happen inside the ledger
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired())
		{
			admin.POST("/pause", adminHandler.Pause)
			admin.POST("/unpause", adminHandler.Unpause)
			admin.PUT("/fee", adminHandler.SetFee)
			admin.POST("/withdraw", adminHandler.WithdrawFees)
			admin.PUT("/owner", adminHandler.TransferOwnership)
		}
	}

	return r, nil
}
