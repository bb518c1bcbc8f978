package bookings

import (
	"wedbook/internal/shared/config"
	"wedbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes registers the draft flow and booking reads. Drafts can be
// started anonymously; a signed-in draft is visible to its owner only.
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	drafts := rg.Group("/drafts")
	drafts.Use(middleware.OptionalAuthWithConfig(cfg))
	{
		drafts.POST("", controller.StartDraft)               // POST /api/v1/drafts
		drafts.GET("/:id", controller.GetDraft)              // GET /api/v1/drafts/:id
		drafts.PUT("/:id/details", controller.SubmitDetails) // PUT /api/v1/drafts/:id/details
		drafts.POST("/:id/back", controller.Back)            // POST /api/v1/drafts/:id/back
		drafts.POST("/:id/pay", controller.Pay)              // POST /api/v1/drafts/:id/pay
		drafts.POST("/:id/cancel", controller.Cancel)        // POST /api/v1/drafts/:id/cancel
	}

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuthWithConfig(cfg))
	{
		bookings.GET("/:id", controller.GetBooking) // GET /api/v1/bookings/:id
	}

	users := rg.Group("/users")
	users.Use(middleware.JWTAuthWithConfig(cfg))
	{
		users.GET("/bookings", controller.ListUserBookings) // GET /api/v1/users/bookings
	}
}
