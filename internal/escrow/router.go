package escrow

import (
	"wedbook/internal/shared/config"
	"wedbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEscrowRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	escrow := rg.Group("/escrow")
	escrow.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireAdmin())
	{
		escrow.GET("/:id", controller.GetAccount)       // GET /api/v1/escrow/:id
		escrow.POST("/:id/release", controller.Release) // POST /api/v1/escrow/:id/release
		escrow.POST("/:id/refund", controller.Refund)   // POST /api/v1/escrow/:id/refund
	}
}
