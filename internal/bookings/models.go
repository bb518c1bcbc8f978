package bookings

import (
	"errors"
	"time"

	"wedbook/internal/payments"
	"wedbook/internal/pricing"

	"github.com/google/uuid"
)

var (
	ErrDraftNotFound     = errors.New("booking draft not found")
	ErrDraftBusy         = errors.New("booking draft is being updated")
	ErrInvalidTransition = errors.New("invalid draft transition")
	ErrPaymentInFlight   = errors.New("a payment for this draft is already in progress")
	ErrAlreadyConfirmed  = errors.New("booking draft is already confirmed")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidBookingID  = errors.New("invalid booking ID")
)

// Details are the user-entered fields of a draft
type Details struct {
	EventDate       string `json:"eventDate" validate:"required,datetime=2006-01-02"`
	TimeSlotID      string `json:"timeSlotId,omitempty"`
	GuestCount      int    `json:"guestCount" validate:"min=1"`
	EventType       string `json:"eventType" validate:"required"`
	CustomerName    string `json:"customerName" validate:"required"`
	CustomerEmail   string `json:"customerEmail" validate:"required,contactemail"`
	CustomerPhone   string `json:"customerPhone" validate:"required,phone"`
	SpecialRequests string `json:"specialRequests,omitempty" validate:"max=2000"`
}

// Draft is the mutable booking request owned by one user session
type Draft struct {
	ID        string `json:"id"`
	ListingID string `json:"listingId"`
	UserID    string `json:"userId,omitempty"`
	State     State  `json:"state"`
	Details

	Breakdown   *pricing.Breakdown   `json:"breakdown,omitempty"`
	PaymentType payments.PaymentType `json:"paymentType,omitempty"`
	LastFailure string               `json:"lastFailure,omitempty"`

	// set after an integrity failure; further payments need support
	IntegrityHold bool `json:"integrityHold,omitempty"`

	EscrowID          string               `json:"escrowId,omitempty"`
	EscrowPaymentType payments.PaymentType `json:"escrowPaymentType,omitempty"`
	BookingID         string               `json:"bookingId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidationResult maps a JSON field name to its error message
type ValidationResult map[string]string

func (v ValidationResult) Valid() bool {
	return len(v) == 0
}

// Booking is the persisted record written once a payment is verified.
// Only PaymentStatus changes after creation.
type Booking struct {
	ID              uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ListingID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"listingId"`
	DraftID         string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"draftId"`
	UserID          string        `gorm:"type:varchar(64);index" json:"userId,omitempty"`
	EventDate       time.Time     `gorm:"type:date;not null" json:"eventDate"`
	TimeSlotID      string        `json:"timeSlotId,omitempty"`
	GuestCount      int           `gorm:"not null" json:"guestCount"`
	EventType       string        `gorm:"not null" json:"eventType"`
	TotalAmount     int64         `gorm:"not null" json:"totalAmount"`
	AdvanceAmount   int64         `gorm:"not null" json:"advanceAmount"`
	AmountPaid      int64         `gorm:"not null" json:"amountPaid"`
	Currency        string        `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentType     string        `gorm:"type:varchar(20);not null" json:"paymentType"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	CustomerName    string        `gorm:"not null" json:"customerName"`
	CustomerEmail   string        `gorm:"not null" json:"customerEmail"`
	CustomerPhone   string        `gorm:"not null" json:"customerPhone"`
	Status          Status        `gorm:"type:varchar(30);not null;default:'PENDING_CONFIRMATION'" json:"status"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(30);not null" json:"paymentStatus"`
	OrderID         string        `gorm:"not null" json:"orderId"`
	PaymentID       string        `gorm:"not null;index" json:"paymentId"`
	EscrowID        *uuid.UUID    `gorm:"type:uuid;index" json:"escrowId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (Booking) TableName() string {
	return "bookings"
}

// OutcomeKind tells the UI which of the Pay results it is rendering
type OutcomeKind string

const (
	OutcomeConfirmed        OutcomeKind = "CONFIRMED"
	OutcomeRejected         OutcomeKind = "REJECTED"
	OutcomePaymentFailed    OutcomeKind = "PAYMENT_FAILED"
	OutcomeIntegrityFailure OutcomeKind = "INTEGRITY_FAILURE"
)

// Failure reasons raised by the booking flow itself
const (
	ReasonSlotUnavailable       = "SLOT_UNAVAILABLE"
	ReasonEscrowFundingFailed   = "ESCROW_FUNDING_FAILED"
	ReasonBookingCreationFailed = "BOOKING_CREATION_FAILED"
)

const contactSupportMessage = "Your payment was received but the booking could not be completed. Please contact support with your receipt number; do not pay again."

const verificationRejectedMessage = "We could not verify your payment. If you were charged, contact support with your receipt number; otherwise you can try paying again."

// BookingOutcome is the typed result of Pay
type BookingOutcome struct {
	Kind         OutcomeKind      `json:"kind"`
	State        State            `json:"state"`
	Booking      *Booking         `json:"booking,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	Message      string           `json:"message,omitempty"`
	Receipt      string           `json:"receipt,omitempty"`
	RetryAllowed bool             `json:"retryAllowed"`
	Errors       ValidationResult `json:"errors,omitempty"`
}
