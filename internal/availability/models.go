package availability

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusLimited   Status = "LIMITED"
	StatusBooked    Status = "BOOKED"
	StatusBlocked   Status = "BLOCKED"
)

// ParseStatus accepts any casing; unknown values map to BLOCKED so they are never selectable
func ParseStatus(s string) Status {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusAvailable:
		return StatusAvailable
	case StatusLimited:
		return StatusLimited
	case StatusBooked:
		return StatusBooked
	default:
		return StatusBlocked
	}
}

var (
	ErrUnavailable         = errors.New("date is not available for booking")
	ErrTimeSlotNotFound    = errors.New("time slot not found")
	ErrTimeSlotUnavailable = errors.New("time slot is not available")
)

// TimeSlot is one bookable window within a date
type TimeSlot struct {
	ID     string `json:"id"`
	Time   string `json:"time"`
	Status Status `json:"status"` // AVAILABLE or BOOKED
	Price  *int64 `json:"price,omitempty"`
}

// Slot is the availability of one entity on one date.
// An empty TimeSlots means the date is booked as a whole day.
type Slot struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EntityID      string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_availability_entity_date" json:"entityId"`
	Date          time.Time  `gorm:"type:date;not null;uniqueIndex:idx_availability_entity_date" json:"date"`
	Status        Status     `gorm:"type:varchar(20);not null" json:"status"`
	PriceOverride *int64     `json:"priceOverride,omitempty"`
	MaxGuests     *int       `json:"maxGuests,omitempty"`
	TimeSlots     []TimeSlot `gorm:"type:jsonb;serializer:json" json:"timeSlots"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (Slot) TableName() string {
	return "availability_slots"
}

// DateKey is the slot's calendar date in DateLayout
func (s *Slot) DateKey() string {
	return s.Date.Format(DateLayout)
}

// HasTimeSlots reports whether the date is subdivided into windows
func (s *Slot) HasTimeSlots() bool {
	return len(s.TimeSlots) > 0
}

// ParseDate parses a DateLayout string into a UTC midnight time
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
