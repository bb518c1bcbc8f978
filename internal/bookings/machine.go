package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"wedbook/internal/availability"
	"wedbook/internal/escrow"
	"wedbook/internal/payments"
	"wedbook/internal/pricing"
	"wedbook/internal/venues"
	"wedbook/pkg/logger"

	"github.com/google/uuid"
)

// ListingReader resolves the listing a draft books
type ListingReader interface {
	GetListing(ctx context.Context, id string) (*venues.Listing, error)
}

// AvailabilityReader is the read side of the availability model
type AvailabilityReader interface {
	Lookup(ctx context.Context, entityID string, date time.Time) (*availability.Slot, error)
	LookupFresh(ctx context.Context, entityID string, date time.Time) (*availability.Slot, error)
}

// PaymentProcessor runs one payment attempt end to end
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, order payments.OrderRequest, customer payments.CustomerDetails) payments.Outcome
}

// EscrowLedger is the part of the escrow ledger the booking flow drives
type EscrowLedger interface {
	Create(ctx context.Context, params escrow.CreateParams) (*escrow.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*escrow.Account, error)
	Fund(ctx context.Context, id uuid.UUID, paymentReference string) (*escrow.Account, error)
	Refund(ctx context.Context, id uuid.UUID) (*escrow.Account, error)
	AttachBooking(ctx context.Context, id, bookingID uuid.UUID) error
}

// FundingRecorder parks escrow accounts a verified payment left in a bad state:
// a failed Fund call, or a funded account whose booking was never written
type FundingRecorder interface {
	RecordFailure(ctx context.Context, escrowID uuid.UUID, draftID, receipt, paymentReference string, cause error) error
	RecordUnbooked(ctx context.Context, escrowID uuid.UUID, draftID, receipt, paymentReference string, cause error) error
}

// BookingWriter persists confirmed bookings
type BookingWriter interface {
	Create(ctx context.Context, booking *Booking) error
}

// Notifier is told about confirmed bookings
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *Booking)
}

// Dependencies are the collaborators a Machine calls out to.
// Escrow, Reconciler and Notifier may be nil.
type Dependencies struct {
	Listings     ListingReader
	Availability AvailabilityReader
	Payments     PaymentProcessor
	Bookings     BookingWriter
	Escrow       EscrowLedger
	Reconciler   FundingRecorder
	Notifier     Notifier
}

// MachineConfig carries the booking policy
type MachineConfig struct {
	AdvancePercentage int
	Currency          string
}

// PayRequest is the PAY event payload
type PayRequest struct {
	PaymentType   payments.PaymentType
	PaymentMethod string
}

// Machine drives one draft through DETAILS, PAYMENT and CONFIRMED.
// A Machine is safe for concurrent use; a second Pay while one is running is
// rejected without touching the payment processor.
type Machine struct {
	mu       sync.Mutex
	draft    Draft
	inFlight bool

	deps Dependencies
	cfg  MachineConfig
	log  *logger.Logger
	now  func() time.Time
}

func NewMachine(draft Draft, deps Dependencies, cfg MachineConfig, log *logger.Logger) *Machine {
	if draft.State == "" {
		draft.State = StateDetails
	}
	return &Machine{
		draft: draft,
		deps:  deps,
		cfg:   cfg,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Draft returns a copy of the current draft
func (m *Machine) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.State
}

// SetDetails replaces the user-entered fields. Only allowed in DETAILS.
func (m *Machine) SetDetails(d Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft.State != StateDetails {
		return fmt.Errorf("%w: details can only change in %s, draft is %s", ErrInvalidTransition, StateDetails, m.draft.State)
	}
	m.draft.Details = d.normalize()
	m.draft.UpdatedAt = m.now()
	return nil
}

// Next validates the draft and moves it to PAYMENT. An invalid draft stays in
// DETAILS and the field errors are returned.
func (m *Machine) Next(ctx context.Context) (ValidationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	to, ok := nextState(m.draft.State, EventNext)
	if !ok {
		return nil, m.rejectEvent(EventNext)
	}

	listing, err := m.deps.Listings.GetListing(ctx, m.draft.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	result, slot, err := validate(ctx, m.draft, listing, m.deps.Availability.Lookup)
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		return result, nil
	}

	breakdown := pricing.ComputeBreakdown(listing.BasePrice, m.draft.GuestCount, slot.EffectivePrice(m.draft.TimeSlotID), m.cfg.AdvancePercentage)
	m.draft.Breakdown = &breakdown
	m.transition(ctx, to)
	return result, nil
}

// Back returns to DETAILS keeping every field
func (m *Machine) Back(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight {
		return ErrPaymentInFlight
	}
	to, ok := nextState(m.draft.State, EventBack)
	if !ok {
		return m.rejectEvent(EventBack)
	}
	m.transition(ctx, to)
	return nil
}

// Cancel abandons the draft. Orders or escrow fundings already submitted are
// left alone.
func (m *Machine) Cancel(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight {
		return ErrPaymentInFlight
	}
	to, ok := nextState(m.draft.State, EventCancel)
	if !ok {
		return m.rejectEvent(EventCancel)
	}
	m.transition(ctx, to)
	return nil
}

func (m *Machine) rejectEvent(ev Event) error {
	if m.draft.State == StateConfirmed {
		return ErrAlreadyConfirmed
	}
	return fmt.Errorf("%w: %s not allowed in %s", ErrInvalidTransition, ev, m.draft.State)
}

func (m *Machine) transition(ctx context.Context, to State) {
	from := m.draft.State
	m.draft.State = to
	m.draft.UpdatedAt = m.now()
	m.log.LogDraftTransition(ctx, m.draft.ID, from.String(), to.String())
}

type lookupFunc func(ctx context.Context, entityID string, date time.Time) (*availability.Slot, error)

// validate applies the DETAILS to PAYMENT guards to draft. The slot is returned
// only when the result is valid.
func validate(ctx context.Context, draft Draft, listing *venues.Listing, lookup lookupFunc) (ValidationResult, *availability.Slot, error) {
	result := validateDetails(draft.Details)

	if _, bad := result["guestCount"]; !bad && listing.Capacity > 0 && draft.GuestCount > listing.Capacity {
		result["guestCount"] = fmt.Sprintf("Guest count cannot exceed the capacity of %d", listing.Capacity)
	}
	if _, bad := result["eventDate"]; bad {
		return result, nil, nil
	}

	date, err := availability.ParseDate(draft.EventDate)
	if err != nil {
		result["eventDate"] = "Event date must be in YYYY-MM-DD format"
		return result, nil, nil
	}

	slot, err := lookup(ctx, draft.ListingID, date)
	if err != nil {
		if errors.Is(err, availability.ErrUnavailable) {
			result["eventDate"] = "Selected date is not available"
			return result, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to check availability: %w", err)
	}

	// a guest count of 0 leaves the date's guest cap out of the check
	if !availability.IsSelectable(slot, 0) {
		result["eventDate"] = "Selected date is not available"
		return result, nil, nil
	}
	if slot.MaxGuests != nil && draft.GuestCount > *slot.MaxGuests {
		if _, bad := result["guestCount"]; !bad {
			result["guestCount"] = fmt.Sprintf("At most %d guests can be booked on this date", *slot.MaxGuests)
		}
	}
	if slot.HasTimeSlots() {
		if draft.TimeSlotID == "" {
			result["timeSlotId"] = "Select a time slot"
		} else if _, err := slot.SelectTimeSlot(draft.TimeSlotID); err != nil {
			result["timeSlotId"] = "Selected time slot is not available"
		}
	}

	if !result.Valid() {
		return result, nil, nil
	}
	return result, slot, nil
}

// Pay runs the PAY event. Processor and integrity failures come back as a
// BookingOutcome; the error return is for events the state machine refuses.
func (m *Machine) Pay(ctx context.Context, req PayRequest) (BookingOutcome, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return BookingOutcome{}, ErrPaymentInFlight
	}
	if _, ok := nextState(m.draft.State, EventPay); !ok {
		err := m.rejectEvent(EventPay)
		m.mu.Unlock()
		return BookingOutcome{}, err
	}
	if !req.PaymentType.Valid() {
		m.mu.Unlock()
		return BookingOutcome{}, fmt.Errorf("%w: unknown payment type %q", ErrInvalidTransition, req.PaymentType)
	}
	if m.draft.IntegrityHold {
		outcome := BookingOutcome{
			Kind:    OutcomeIntegrityFailure,
			State:   m.draft.State,
			Reason:  m.draft.LastFailure,
			Message: contactSupportMessage,
		}
		m.mu.Unlock()
		return outcome, nil
	}
	m.inFlight = true
	draft := m.draft
	m.mu.Unlock()

	outcome, updated := m.pay(ctx, draft, req)

	m.mu.Lock()
	m.draft = updated
	m.inFlight = false
	if outcome.Kind == OutcomeConfirmed {
		m.transition(ctx, StateConfirmed)
	}
	outcome.State = m.draft.State
	m.mu.Unlock()
	return outcome, nil
}

func (m *Machine) pay(ctx context.Context, draft Draft, req PayRequest) (BookingOutcome, Draft) {
	receipt := payments.Receipt(draft.ID, req.PaymentType)
	draft.PaymentType = req.PaymentType
	draft.UpdatedAt = m.now()

	fail := func(kind OutcomeKind, reason, message string) (BookingOutcome, Draft) {
		draft.LastFailure = reason
		draft.IntegrityHold = kind == OutcomeIntegrityFailure
		return BookingOutcome{
			Kind:         kind,
			Reason:       reason,
			Message:      message,
			Receipt:      receipt,
			RetryAllowed: kind != OutcomeIntegrityFailure,
		}, draft
	}

	listing, err := m.deps.Listings.GetListing(ctx, draft.ListingID)
	if err != nil {
		m.log.WarnContext(ctx, "listing lookup failed before payment", slog.String("draft_id", draft.ID), slog.String("error", err.Error()))
		return fail(OutcomePaymentFailed, string(payments.ReasonOrderCreationFailed), "Could not start the payment, please try again")
	}

	// re-check against the source, not the cache, before money moves
	result, slot, err := validate(ctx, draft, listing, m.deps.Availability.LookupFresh)
	if err != nil {
		m.log.WarnContext(ctx, "availability check failed before payment", slog.String("draft_id", draft.ID), slog.String("error", err.Error()))
		return fail(OutcomePaymentFailed, string(payments.ReasonOrderCreationFailed), "Could not confirm availability, please try again")
	}
	if !result.Valid() {
		out, d := fail(OutcomeRejected, ReasonSlotUnavailable, "The selected date or time slot is no longer available")
		out.Errors = result
		return out, d
	}

	breakdown := pricing.ComputeBreakdown(listing.BasePrice, draft.GuestCount, slot.EffectivePrice(draft.TimeSlotID), m.cfg.AdvancePercentage)
	draft.Breakdown = &breakdown
	amount := breakdown.AdvanceAmount
	if req.PaymentType == payments.PaymentTypeFull {
		amount = breakdown.TotalAmount
	}
	if amount <= 0 {
		return fail(OutcomeRejected, string(payments.ReasonOrderCreationFailed), "Nothing to pay for this booking")
	}

	notes := map[string]string{
		"draftId":     draft.ID,
		"listingId":   draft.ListingID,
		"paymentType": string(req.PaymentType),
	}

	var account *escrow.Account
	if listing.EscrowEnabled && m.deps.Escrow != nil {
		account, err = m.escrowFor(ctx, &draft, listing, breakdown, req.PaymentType)
		if err != nil {
			m.log.WarnContext(ctx, "escrow account creation failed", slog.String("draft_id", draft.ID), slog.String("error", err.Error()))
			return fail(OutcomePaymentFailed, string(payments.ReasonOrderCreationFailed), "Could not start the payment, please try again")
		}
		notes["escrowId"] = account.ID.String()
	}

	res := m.deps.Payments.ProcessPayment(ctx, payments.OrderRequest{
		Amount:   amount,
		Currency: m.cfg.Currency,
		Receipt:  receipt,
		Notes:    notes,
	}, payments.CustomerDetails{
		Name:          draft.CustomerName,
		Email:         draft.CustomerEmail,
		Phone:         draft.CustomerPhone,
		PaymentMethod: req.PaymentMethod,
	})
	m.log.LogPaymentOutcome(ctx, receipt, res.Success, string(res.Reason))

	if !res.Success {
		if res.IsIntegrityFailure() {
			m.log.LogIntegrityFailure(ctx, "payment could not be verified", res.Err,
				slog.String("draft_id", draft.ID), slog.String("receipt", receipt))
			if res.Order != nil && res.Order.Status == payments.OrderStatusFailed {
				// the order was rejected outright, so the user may pay again by hand
				out, d := fail(OutcomeIntegrityFailure, string(res.Reason), verificationRejectedMessage)
				d.IntegrityHold = false
				return out, d
			}
			return fail(OutcomeIntegrityFailure, string(res.Reason), contactSupportMessage)
		}
		return fail(OutcomePaymentFailed, string(res.Reason), failureMessage(res.Reason))
	}

	paymentRef := res.Payment.PaymentID
	if account != nil {
		if _, err := m.deps.Escrow.Fund(ctx, account.ID, paymentRef); err != nil {
			m.log.LogIntegrityFailure(ctx, "escrow funding failed after verified payment", err,
				slog.String("draft_id", draft.ID),
				slog.String("escrow_id", account.ID.String()),
				slog.String("payment_id", paymentRef))
			if m.deps.Reconciler != nil {
				if rerr := m.deps.Reconciler.RecordFailure(ctx, account.ID, draft.ID, receipt, paymentRef, err); rerr != nil {
					m.log.ErrorContext(ctx, "failed to record pending funding", slog.String("error", rerr.Error()))
				}
			}
			return fail(OutcomeIntegrityFailure, ReasonEscrowFundingFailed, contactSupportMessage)
		}
	}

	booking, err := m.newBooking(draft, breakdown, amount, req.PaymentType, res, account)
	if err == nil {
		err = m.deps.Bookings.Create(ctx, booking)
	}
	if err != nil {
		m.log.LogIntegrityFailure(ctx, "booking creation failed after verified payment", err,
			slog.String("draft_id", draft.ID), slog.String("payment_id", paymentRef))
		if account != nil && m.deps.Reconciler != nil {
			// the account is funded but has no booking to release against
			if rerr := m.deps.Reconciler.RecordUnbooked(ctx, account.ID, draft.ID, receipt, paymentRef, err); rerr != nil {
				m.log.ErrorContext(ctx, "failed to record unbooked escrow", slog.String("error", rerr.Error()))
			}
		}
		return fail(OutcomeIntegrityFailure, ReasonBookingCreationFailed, contactSupportMessage)
	}
	m.log.LogBookingCreated(ctx, booking.ID.String(), draft.ListingID, draft.ID)

	if account != nil {
		if err := m.deps.Escrow.AttachBooking(ctx, account.ID, booking.ID); err != nil {
			m.log.WarnContext(ctx, "failed to link escrow to booking",
				slog.String("escrow_id", account.ID.String()), slog.String("error", err.Error()))
		}
	}
	if m.deps.Notifier != nil {
		m.deps.Notifier.BookingConfirmed(ctx, booking)
	}

	draft.BookingID = booking.ID.String()
	draft.LastFailure = ""
	return BookingOutcome{Kind: OutcomeConfirmed, Booking: booking, Receipt: receipt}, draft
}

// escrowFor returns the draft's escrow account, opening one when needed. An
// account opened for the other payment type is refunded and replaced.
func (m *Machine) escrowFor(ctx context.Context, draft *Draft, listing *venues.Listing, breakdown pricing.Breakdown, paymentType payments.PaymentType) (*escrow.Account, error) {
	if draft.EscrowID != "" {
		id, err := uuid.Parse(draft.EscrowID)
		if err == nil {
			existing, err := m.deps.Escrow.Get(ctx, id)
			switch {
			case err != nil && !errors.Is(err, escrow.ErrNotFound):
				return nil, err
			case err == nil && existing.Status == escrow.StatusCreated && draft.EscrowPaymentType == paymentType && existing.TotalAmount == breakdown.TotalAmount:
				return existing, nil
			case err == nil && existing.Status == escrow.StatusCreated:
				if _, err := m.deps.Escrow.Refund(ctx, id); err != nil {
					return nil, fmt.Errorf("failed to void stale escrow account: %w", err)
				}
			case err == nil:
				return nil, fmt.Errorf("escrow account %s is already %s", id, existing.Status)
			}
		}
	}

	advancePct := breakdown.AdvancePercentage
	if paymentType == payments.PaymentTypeFull {
		advancePct = 100
	}
	payer := draft.UserID
	if payer == "" {
		payer = draft.CustomerEmail
	}

	account, err := m.deps.Escrow.Create(ctx, escrow.CreateParams{
		DraftID:              draft.ID,
		PayerID:              payer,
		PayeeID:              listing.PayeeID,
		TotalAmount:          breakdown.TotalAmount,
		AdvancePercentage:    advancePct,
		CommissionPercentage: listing.CommissionPercentage,
		AutoReleaseDays:      listing.AutoReleaseDays,
	})
	if err != nil {
		return nil, err
	}
	draft.EscrowID = account.ID.String()
	draft.EscrowPaymentType = paymentType
	return account, nil
}

func (m *Machine) newBooking(draft Draft, breakdown pricing.Breakdown, paid int64, paymentType payments.PaymentType, outcome payments.Outcome, account *escrow.Account) (*Booking, error) {
	listingID, err := uuid.Parse(draft.ListingID)
	if err != nil {
		return nil, fmt.Errorf("invalid listing id %q: %w", draft.ListingID, err)
	}
	eventDate, err := availability.ParseDate(draft.EventDate)
	if err != nil {
		return nil, err
	}

	status := PaymentAdvancePaid
	if paymentType == payments.PaymentTypeFull {
		status = PaymentPaid
	}
	var escrowID *uuid.UUID
	if account != nil {
		id := account.ID
		escrowID = &id
		status = PaymentHeld
	}
	orderID := ""
	if outcome.Order != nil {
		orderID = outcome.Order.ID
	}

	return &Booking{
		ID:              uuid.New(),
		ListingID:       listingID,
		DraftID:         draft.ID,
		UserID:          draft.UserID,
		EventDate:       eventDate,
		TimeSlotID:      draft.TimeSlotID,
		GuestCount:      draft.GuestCount,
		EventType:       draft.EventType,
		TotalAmount:     breakdown.TotalAmount,
		AdvanceAmount:   breakdown.AdvanceAmount,
		AmountPaid:      paid,
		Currency:        m.cfg.Currency,
		PaymentType:     string(paymentType),
		SpecialRequests: draft.SpecialRequests,
		CustomerName:    draft.CustomerName,
		CustomerEmail:   draft.CustomerEmail,
		CustomerPhone:   draft.CustomerPhone,
		Status:          StatusPendingConfirmation,
		PaymentStatus:   status,
		OrderID:         orderID,
		PaymentID:       outcome.Payment.PaymentID,
		EscrowID:        escrowID,
	}, nil
}

func failureMessage(reason payments.Reason) string {
	switch reason {
	case payments.ReasonProcessorUnavailable:
		return "The payment service is unavailable right now, please try again shortly"
	case payments.ReasonOrderCreationFailed:
		return "Could not start the payment, please try again"
	case payments.ReasonUserCancelled:
		return "Payment was cancelled"
	case payments.ReasonGatewayDeclined:
		return "Payment was declined, please try another method"
	}
	return "Payment failed, please try again"
}
