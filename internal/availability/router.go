package availability

import "github.com/gin-gonic/gin"

func SetupAvailabilityRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.GET("/listings/:id/availability", controller.GetAvailability)
}
