package venues

import (
	"errors"
	"net/http"

	"wedbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) GetListing(ctx *gin.Context) {
	listing, err := c.service.GetListing(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		statusCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrListingNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrInvalidListing):
			statusCode = http.StatusBadRequest
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get listing", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Listing retrieved successfully", listing, nil)
}

func (c *Controller) ListListings(ctx *gin.Context) {
	var filters ListingFilters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListListings(ctx.Request.Context(), filters)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list listings", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Listings retrieved successfully", result, nil)
}

func (c *Controller) CreateListing(ctx *gin.Context) {
	var req CreateListingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	listing, err := c.service.CreateListing(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create listing", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Listing created successfully", listing, nil)
}

func (c *Controller) UpdateListing(ctx *gin.Context) {
	var req UpdateListingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	listing, err := c.service.UpdateListing(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrListingNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to update listing", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Listing updated successfully", listing, nil)
}
