package bookings

import (
	"errors"
	"net/http"

	"wedbook/internal/shared/middleware"
	"wedbook/internal/shared/utils/response"
	"wedbook/internal/venues"
	"wedbook/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// StartDraft handles POST /api/v1/drafts
func (c *Controller) StartDraft(ctx *gin.Context) {
	var req StartDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	draft, err := c.service.StartDraft(ctx.Request.Context(), middleware.UserID(ctx), req)
	if err != nil {
		respondError(ctx, "Failed to start booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking draft started", DraftResponse{Draft: draft}, nil)
}

// GetDraft handles GET /api/v1/drafts/:id
func (c *Controller) GetDraft(ctx *gin.Context) {
	draft, err := c.service.GetDraft(ctx.Request.Context(), ctx.Param("id"), middleware.UserID(ctx))
	if err != nil {
		respondError(ctx, "Failed to get booking draft", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking draft retrieved successfully", DraftResponse{Draft: draft}, nil)
}

// SubmitDetails handles PUT /api/v1/drafts/:id/details
func (c *Controller) SubmitDetails(ctx *gin.Context) {
	var req DetailsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	draft, result, err := c.service.SubmitDetails(ctx.Request.Context(), ctx.Param("id"), middleware.UserID(ctx), req)
	if err != nil {
		respondError(ctx, "Failed to submit booking details", err)
		return
	}
	if !result.Valid() {
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Please correct the highlighted fields",
			DraftResponse{Draft: draft, Errors: result}, result)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking details accepted", DraftResponse{Draft: draft}, nil)
}

// Back handles POST /api/v1/drafts/:id/back
func (c *Controller) Back(ctx *gin.Context) {
	draft, err := c.service.Back(ctx.Request.Context(), ctx.Param("id"), middleware.UserID(ctx))
	if err != nil {
		respondError(ctx, "Failed to go back", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Returned to booking details", DraftResponse{Draft: draft}, nil)
}

// Pay handles POST /api/v1/drafts/:id/pay
func (c *Controller) Pay(ctx *gin.Context) {
	var req PayRequestBody
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	draft, outcome, err := c.service.Pay(ctx.Request.Context(), ctx.Param("id"), middleware.UserID(ctx), req)
	if err != nil {
		respondError(ctx, "Payment could not be started", err)
		return
	}

	data := PayResponse{Draft: draft, Outcome: outcome}
	switch outcome.Kind {
	case OutcomeConfirmed:
		response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed", data, nil)
	case OutcomeRejected:
		response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, outcome.Message, data, outcome.Errors)
	case OutcomePaymentFailed:
		response.RespondJSON(ctx, "error", http.StatusPaymentRequired, outcome.Message, data, outcome.Reason)
	default:
		response.RespondJSON(ctx, "error", http.StatusConflict, outcome.Message, data, outcome.Reason)
	}
}

// Cancel handles POST /api/v1/drafts/:id/cancel
func (c *Controller) Cancel(ctx *gin.Context) {
	if err := c.service.Cancel(ctx.Request.Context(), ctx.Param("id"), middleware.UserID(ctx)); err != nil {
		respondError(ctx, "Failed to cancel booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking draft cancelled", nil, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	booking, err := c.service.GetBooking(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, "Failed to get booking", err)
		return
	}

	role, _ := ctx.Get(middleware.ContextUserRole)
	if role != middleware.RoleAdmin && booking.UserID != middleware.UserID(ctx) {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Failed to get booking", nil, ErrBookingNotFound.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// ListUserBookings handles GET /api/v1/users/bookings
func (c *Controller) ListUserBookings(ctx *gin.Context) {
	var query ListBookingsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := c.service.ListUserBookings(ctx.Request.Context(), middleware.UserID(ctx), query.Limit, query.Offset)
	if err != nil {
		respondError(ctx, "Failed to list bookings", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", list, nil)
}

func respondError(ctx *gin.Context, message string, err error) {
	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrDraftNotFound),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, venues.ErrListingNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, ErrInvalidBookingID),
		errors.Is(err, venues.ErrInvalidListing):
		statusCode = http.StatusBadRequest
	case errors.Is(err, ErrPaymentInFlight),
		errors.Is(err, ErrDraftBusy),
		errors.Is(err, ErrAlreadyConfirmed),
		errors.Is(err, ErrInvalidTransition):
		statusCode = http.StatusConflict
	default:
		logger.GetDefault().WithUserID(middleware.UserID(ctx)).LogHTTPError(ctx, err, statusCode)
	}
	response.RespondJSON(ctx, "error", statusCode, message, nil, err.Error())
}
