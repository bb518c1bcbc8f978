package bookings

type StartDraftRequest struct {
	ListingID string `json:"listingId" binding:"required,uuid"`
}

// DetailsRequest carries the DETAILS step fields. Field rules are applied by
// the draft validator so errors come back per field instead of as a bind error.
type DetailsRequest struct {
	EventDate       string `json:"eventDate"`
	TimeSlotID      string `json:"timeSlotId"`
	GuestCount      int    `json:"guestCount"`
	EventType       string `json:"eventType"`
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	SpecialRequests string `json:"specialRequests"`
}

func (r DetailsRequest) toDetails() Details {
	return Details{
		EventDate:       r.EventDate,
		TimeSlotID:      r.TimeSlotID,
		GuestCount:      r.GuestCount,
		EventType:       r.EventType,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		SpecialRequests: r.SpecialRequests,
	}
}

type PayRequestBody struct {
	PaymentType   string `json:"paymentType" binding:"required,oneof=ADVANCE FULL"`
	PaymentMethod string `json:"paymentMethod"`
}

type ListBookingsQuery struct {
	Limit  int `form:"limit,default=10" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}
