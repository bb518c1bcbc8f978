package payments

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	PaymentTypeAdvance PaymentType = "ADVANCE"
	PaymentTypeFull    PaymentType = "FULL"
)

func (p PaymentType) Valid() bool {
	return p == PaymentTypeAdvance || p == PaymentTypeFull
}

// Reason is the normalized failure cause surfaced to callers
type Reason string

const (
	ReasonProcessorUnavailable Reason = "PROCESSOR_UNAVAILABLE"
	ReasonOrderCreationFailed  Reason = "ORDER_CREATION_FAILED"
	ReasonUserCancelled        Reason = "USER_CANCELLED"
	ReasonGatewayDeclined      Reason = "GATEWAY_DECLINED"
	ReasonVerificationFailed   Reason = "VERIFICATION_FAILED"
)

var (
	ErrDuplicateReceipt  = errors.New("receipt already paid")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidAmount     = errors.New("order amount must be positive")
	ErrCheckoutDismissed = errors.New("checkout dismissed by user")
	ErrCheckoutDeclined  = errors.New("payment declined by gateway")
	ErrNoPendingCheckout = errors.New("no pending checkout for order")
)

// CustomerDetails prefill the checkout
type CustomerDetails struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// OrderRequest is what the booking flow asks to be charged, in major units
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// OrderRecord is the order as the processor sees it, in minor units
type OrderRecord struct {
	ID          string      `json:"id"`
	Receipt     string      `json:"receipt"`
	AmountMinor int64       `json:"amount"`
	Currency    string      `json:"currency"`
	Status      OrderStatus `json:"status"`
}

// PaymentDetails are what the checkout reports back
type PaymentDetails struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature,omitempty"`
}

// Outcome is the tagged result of ProcessPayment
type Outcome struct {
	Success bool            `json:"success"`
	Payment *PaymentDetails `json:"payment,omitempty"`
	Order   *OrderRecord    `json:"order,omitempty"`
	Reason  Reason          `json:"reason,omitempty"`
	Err     error           `json:"-"`
}

func Succeeded(order *OrderRecord, details PaymentDetails) Outcome {
	return Outcome{Success: true, Order: order, Payment: &details}
}

func Failed(reason Reason, order *OrderRecord, err error) Outcome {
	return Outcome{Reason: reason, Order: order, Err: err}
}

// IsIntegrityFailure marks outcomes where money may have moved but cannot be trusted
func (o Outcome) IsIntegrityFailure() bool {
	return !o.Success && o.Reason == ReasonVerificationFailed
}

// Receipt uniquely names an order for one draft and payment type
func Receipt(draftID string, paymentType PaymentType) string {
	return fmt.Sprintf("wb_%s_%s", draftID, paymentType)
}

// ToMinorUnits converts major currency units to the processor's smallest unit
func ToMinorUnits(major int64) int64 {
	return major * 100
}

type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "CREATED"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusFailed  OrderStatus = "FAILED"
)

// Order is the server-side order record
type Order struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Receipt     string            `gorm:"uniqueIndex;not null" json:"receipt"`
	AmountMinor int64             `gorm:"not null" json:"amount"`
	Currency    string            `gorm:"type:varchar(3);not null" json:"currency"`
	Notes       map[string]string `gorm:"type:jsonb;serializer:json" json:"notes"`
	Status      OrderStatus       `gorm:"type:varchar(20);not null;default:'CREATED';index" json:"status"`
	PaymentID   *string           `gorm:"index" json:"paymentId,omitempty"`
	Attempts    int               `gorm:"default:0" json:"attempts"`
	PaidAt      *time.Time        `json:"paidAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (Order) TableName() string {
	return "payment_orders"
}

func (o *Order) Record() *OrderRecord {
	return &OrderRecord{
		ID:          o.ID.String(),
		Receipt:     o.Receipt,
		AmountMinor: o.AmountMinor,
		Currency:    o.Currency,
		Status:      o.Status,
	}
}
