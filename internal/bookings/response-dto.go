package bookings

type DraftResponse struct {
	Draft  *Draft           `json:"draft"`
	Errors ValidationResult `json:"errors,omitempty"`
}

type PayResponse struct {
	Draft   *Draft         `json:"draft"`
	Outcome BookingOutcome `json:"outcome"`
}

type BookingList struct {
	Bookings []Booking `json:"bookings"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}
