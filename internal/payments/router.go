package payments

import (
	"wedbook/internal/shared/config"
	"wedbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	payments := rg.Group("/payments")
	payments.Use(middleware.OptionalAuthWithConfig(cfg))
	{
		payments.POST("/callback", controller.Callback)                     // POST /api/v1/payments/callback
		payments.GET("/checkouts/:receipt", controller.GetPendingCheckout) // GET /api/v1/payments/checkouts/:receipt
	}
}
