package escrow

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusFunded   Status = "FUNDED"
	StatusReleased Status = "RELEASED"
	StatusRefunded Status = "REFUNDED"
)

func (s Status) IsTerminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

var (
	ErrNotFound          = errors.New("escrow account not found")
	ErrInvalidTransition = errors.New("invalid escrow transition")
	ErrInvalidAccount    = errors.New("invalid escrow account")
)

// transitions lists every allowed status change; anything else is rejected
var transitions = map[Status][]Status{
	StatusCreated: {StatusFunded, StatusRefunded},
	StatusFunded:  {StatusReleased, StatusRefunded},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Account holds a payer's funds for one booking until release or refund.
// Amounts are major units.
type Account struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DraftID string    `gorm:"type:varchar(64);not null;index" json:"draftId"`
	// set once the booking record exists
	BookingID *uuid.UUID `gorm:"type:uuid;index" json:"bookingId,omitempty"`
	PayerID   string     `gorm:"not null;index" json:"payerId"`
	PayeeID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"payeeId"`

	TotalAmount          int64 `gorm:"not null" json:"totalAmount"`
	AdvancePercentage    int   `gorm:"not null" json:"advancePercentage"`
	CommissionPercentage int   `gorm:"not null" json:"commissionPercentage"`
	AutoReleaseDays      int   `gorm:"not null" json:"autoReleaseDays"`

	Status           Status  `gorm:"type:varchar(20);not null;default:'CREATED';index" json:"status"`
	PaymentReference *string `gorm:"index" json:"paymentReference,omitempty"`
	FundedAmount     int64   `gorm:"default:0" json:"fundedAmount"`
	CommissionAmount int64   `gorm:"default:0" json:"commissionAmount"`
	PayeeAmount      int64   `gorm:"default:0" json:"payeeAmount"`

	FundedAt   *time.Time `json:"fundedAt,omitempty"`
	ReleasedAt *time.Time `json:"releasedAt,omitempty"`
	RefundedAt *time.Time `json:"refundedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (Account) TableName() string {
	return "escrow_accounts"
}

// CreateParams opens an account in CREATED
type CreateParams struct {
	DraftID              string
	PayerID              string
	PayeeID              uuid.UUID
	TotalAmount          int64
	AdvancePercentage    int
	CommissionPercentage int
	AutoReleaseDays      int
}

func (p CreateParams) validate() error {
	switch {
	case p.DraftID == "":
		return errors.New("draft id is required")
	case p.PayerID == "":
		return errors.New("payer id is required")
	case p.PayeeID == uuid.Nil:
		return errors.New("payee id is required")
	case p.TotalAmount <= 0:
		return errors.New("total amount must be positive")
	case p.AdvancePercentage < 0 || p.AdvancePercentage > 100:
		return errors.New("advance percentage must be within [0,100]")
	case p.CommissionPercentage < 0 || p.CommissionPercentage > 100:
		return errors.New("commission percentage must be within [0,100]")
	case p.AutoReleaseDays < 0:
		return errors.New("auto release days cannot be negative")
	}
	return nil
}

type FundingStatus string

const (
	FundingPending  FundingStatus = "PENDING"
	FundingResolved FundingStatus = "RESOLVED"
	FundingManual   FundingStatus = "MANUAL"
	// funded, but the booking it paid for was never written
	FundingUnbooked FundingStatus = "UNBOOKED"
)

// PendingFunding records a verified payment whose Fund call failed, or whose
// booking could not be written after funding
type PendingFunding struct {
	ID               uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EscrowID         uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"escrowId"`
	DraftID          string        `gorm:"type:varchar(64);not null" json:"draftId"`
	Receipt          string        `gorm:"not null" json:"receipt"`
	PaymentReference string        `gorm:"not null" json:"paymentReference"`
	Status           FundingStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Attempts         int           `gorm:"default:0" json:"attempts"`
	LastError        string        `json:"lastError,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func (PendingFunding) TableName() string {
	return "escrow_pending_fundings"
}
