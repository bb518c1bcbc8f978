package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names what happened in the booking pipeline
type EventType string

const (
	EventBookingConfirmed       EventType = "BOOKING_CONFIRMED"
	EventEscrowFunded           EventType = "ESCROW_FUNDED"
	EventEscrowReleased         EventType = "ESCROW_RELEASED"
	EventEscrowRefunded         EventType = "ESCROW_REFUNDED"
	EventReconciliationRequired EventType = "RECONCILIATION_REQUIRED"
)

// PipelineEvent is the message written to the pipeline topic
type PipelineEvent struct {
	ID   uuid.UUID `json:"id"`
	Type EventType `json:"type"`

	BookingID string `json:"bookingId,omitempty"`
	DraftID   string `json:"draftId,omitempty"`
	EscrowID  string `json:"escrowId,omitempty"`

	RecipientEmail string `json:"recipientEmail,omitempty"`
	RecipientName  string `json:"recipientName,omitempty"`

	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func NewEvent(eventType EventType) *PipelineEvent {
	return &PipelineEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Data:       make(map[string]interface{}),
		OccurredAt: time.Now().UTC(),
	}
}

// PartitionKey keeps every event of one booking on the same partition.
// Events raised before a booking exists fall back to the draft, then the escrow account.
func (e *PipelineEvent) PartitionKey() string {
	switch {
	case e.BookingID != "":
		return e.BookingID
	case e.DraftID != "":
		return e.DraftID
	case e.EscrowID != "":
		return e.EscrowID
	}
	return e.ID.String()
}

func (e *PipelineEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EmailMessage is a rendered email ready for a Mailer
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}
