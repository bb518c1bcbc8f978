package availability

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

// slotView adds the derived selectability flag to the wire form
type slotView struct {
	Date          string     `json:"date"`
	Status        Status     `json:"status"`
	PriceOverride *int64     `json:"priceOverride,omitempty"`
	MaxGuests     *int       `json:"maxGuests,omitempty"`
	TimeSlots     []TimeSlot `json:"timeSlots"`
	Selectable    bool       `json:"selectable"`
}

func toView(s *Slot, guestCount int) slotView {
	ts := s.TimeSlots
	if ts == nil {
		ts = []TimeSlot{}
	}
	return slotView{
		Date:          s.DateKey(),
		Status:        s.Status,
		PriceOverride: s.PriceOverride,
		MaxGuests:     s.MaxGuests,
		TimeSlots:     ts,
		Selectable:    IsSelectable(s, guestCount),
	}
}

type availabilityQuery struct {
	Date       string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	GuestCount int    `form:"guestCount" binding:"omitempty,min=1"`
}

// GetAvailability handles GET /listings/:id/availability[?date=&guestCount=]
func (c *Controller) GetAvailability(ctx *gin.Context) {
	var q availabilityQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}
	entityID := ctx.Param("id")

	if q.Date != "" {
		date, _ := ParseDate(q.Date)
		slot, err := c.service.Lookup(ctx.Request.Context(), entityID, date)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				response.RespondJSON(ctx, "error", http.StatusNotFound, "Date not available", nil, err.Error())
				return
			}
			response.RespondJSON(ctx, "error", http.StatusBadGateway, "Failed to load availability", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", toView(slot, q.GuestCount), nil)
		return
	}

	slots, err := c.service.List(ctx.Request.Context(), entityID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadGateway, "Failed to load availability", nil, err.Error())
		return
	}
	views := make([]slotView, 0, len(slots))
	for i := range slots {
		views = append(views, toView(&slots[i], q.GuestCount))
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", views, nil)
}
