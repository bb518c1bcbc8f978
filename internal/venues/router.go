package venues

import (
	"wedbook/internal/shared/config"
	"wedbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupListingRoutes registers public reads and admin writes.
// GET /listings/:id/availability is registered by the availability package.
func SetupListingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	listings := rg.Group("/listings")
	{
		listings.GET("", controller.ListListings)   // GET /api/v1/listings
		listings.GET("/:id", controller.GetListing) // GET /api/v1/listings/:id
	}

	admin := rg.Group("/admin/listings")
	admin.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateListing)       // POST /api/v1/admin/listings
		admin.PATCH("/:id", controller.UpdateListing) // PATCH /api/v1/admin/listings/:id
	}
}
