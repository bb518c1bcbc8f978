package notifications

import (
	"context"
	"log/slog"

	"wedbook/internal/bookings"
	"wedbook/internal/escrow"
	"wedbook/pkg/logger"
)

// Service turns booking and escrow changes into pipeline events. Publishing is
// best effort: a failed publish is logged and never fails the caller.
type Service struct {
	publisher Publisher
	log       *logger.Logger
}

func NewService(publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		publisher: publisher,
		log:       log.WithComponent("notifications"),
	}
}

// BookingConfirmed implements bookings.Notifier
func (s *Service) BookingConfirmed(ctx context.Context, b *bookings.Booking) {
	event := NewEvent(EventBookingConfirmed)
	event.BookingID = b.ID.String()
	event.DraftID = b.DraftID
	event.RecipientEmail = b.CustomerEmail
	event.RecipientName = b.CustomerName
	event.Data["listingId"] = b.ListingID.String()
	event.Data["eventDate"] = b.EventDate.Format("2006-01-02")
	event.Data["eventType"] = b.EventType
	event.Data["guestCount"] = b.GuestCount
	event.Data["totalAmount"] = b.TotalAmount
	event.Data["amountPaid"] = b.AmountPaid
	event.Data["currency"] = b.Currency
	event.Data["paymentType"] = b.PaymentType
	event.Data["paymentId"] = b.PaymentID
	if b.EscrowID != nil {
		event.EscrowID = b.EscrowID.String()
	}
	s.publish(ctx, event)
}

// ReconciliationRequired implements escrow.Alerter
func (s *Service) ReconciliationRequired(ctx context.Context, pf escrow.PendingFunding) {
	event := NewEvent(EventReconciliationRequired)
	event.DraftID = pf.DraftID
	event.EscrowID = pf.EscrowID.String()
	event.Data["receipt"] = pf.Receipt
	event.Data["paymentReference"] = pf.PaymentReference
	event.Data["attempts"] = pf.Attempts
	event.Data["lastError"] = pf.LastError
	event.Data["status"] = string(pf.Status)
	s.publish(ctx, event)
}

// EscrowChanged is registered as an escrow.ChangeListener
func (s *Service) EscrowChanged(ctx context.Context, account *escrow.Account, from escrow.Status) {
	var eventType EventType
	switch account.Status {
	case escrow.StatusFunded:
		eventType = EventEscrowFunded
	case escrow.StatusReleased:
		eventType = EventEscrowReleased
	case escrow.StatusRefunded:
		eventType = EventEscrowRefunded
	default:
		return
	}

	event := NewEvent(eventType)
	event.EscrowID = account.ID.String()
	event.DraftID = account.DraftID
	if account.BookingID != nil {
		event.BookingID = account.BookingID.String()
	}
	event.Data["from"] = string(from)
	event.Data["payeeId"] = account.PayeeID.String()
	event.Data["fundedAmount"] = account.FundedAmount
	if account.Status == escrow.StatusReleased {
		event.Data["commissionAmount"] = account.CommissionAmount
		event.Data["payeeAmount"] = account.PayeeAmount
	}
	s.publish(ctx, event)
}

func (s *Service) publish(ctx context.Context, event *PipelineEvent) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.log.ErrorContext(ctx, "failed to publish pipeline event",
			slog.String("type", string(event.Type)),
			slog.String("key", event.PartitionKey()),
			slog.String("error", err.Error()))
	}
}
