package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wedbook/internal/availability"
	"wedbook/internal/escrow"
	"wedbook/internal/payments"
	"wedbook/internal/pricing"
	"wedbook/internal/venues"
	"wedbook/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEventDate = "2026-12-12"

type fakeListings struct {
	listing *venues.Listing
}

func (f *fakeListings) GetListing(_ context.Context, id string) (*venues.Listing, error) {
	if f.listing == nil || f.listing.ID.String() != id {
		return nil, venues.ErrListingNotFound
	}
	l := *f.listing
	return &l, nil
}

// fakeAvailability serves a single slot; fresh overrides it for LookupFresh
type fakeAvailability struct {
	mu     sync.Mutex
	cached *availability.Slot
	fresh  *availability.Slot
}

func (f *fakeAvailability) Lookup(_ context.Context, _ string, _ time.Time) (*availability.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached == nil {
		return nil, availability.ErrUnavailable
	}
	return f.cached, nil
}

func (f *fakeAvailability) LookupFresh(ctx context.Context, entityID string, date time.Time) (*availability.Slot, error) {
	f.mu.Lock()
	fresh := f.fresh
	f.mu.Unlock()
	if fresh != nil {
		return fresh, nil
	}
	return f.Lookup(ctx, entityID, date)
}

// fakePayments returns outcome; when gate is set it blocks until the gate closes
type fakePayments struct {
	mu      sync.Mutex
	outcome payments.Outcome
	orders  []payments.OrderRequest
	started chan struct{}
	gate    chan struct{}
}

func (f *fakePayments) ProcessPayment(ctx context.Context, order payments.OrderRequest, _ payments.CustomerDetails) payments.Outcome {
	f.mu.Lock()
	f.orders = append(f.orders, order)
	f.mu.Unlock()
	if f.gate != nil {
		close(f.started)
		<-f.gate
	}
	return f.outcome
}

func (f *fakePayments) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakeBookings struct {
	mu      sync.Mutex
	created []*Booking
	err     error
}

func (f *fakeBookings) Create(_ context.Context, b *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, b)
	return nil
}

type fakeEscrow struct {
	accounts map[uuid.UUID]*escrow.Account
	fundErr  error
	attached map[uuid.UUID]uuid.UUID
}

func newFakeEscrow() *fakeEscrow {
	return &fakeEscrow{
		accounts: make(map[uuid.UUID]*escrow.Account),
		attached: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeEscrow) Create(_ context.Context, p escrow.CreateParams) (*escrow.Account, error) {
	a := &escrow.Account{
		ID:                   uuid.New(),
		DraftID:              p.DraftID,
		PayerID:              p.PayerID,
		PayeeID:              p.PayeeID,
		TotalAmount:          p.TotalAmount,
		AdvancePercentage:    p.AdvancePercentage,
		CommissionPercentage: p.CommissionPercentage,
		AutoReleaseDays:      p.AutoReleaseDays,
		Status:               escrow.StatusCreated,
	}
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeEscrow) Get(_ context.Context, id uuid.UUID) (*escrow.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, escrow.ErrNotFound
	}
	return a, nil
}

func (f *fakeEscrow) Fund(_ context.Context, id uuid.UUID, ref string) (*escrow.Account, error) {
	if f.fundErr != nil {
		return nil, f.fundErr
	}
	a := f.accounts[id]
	a.Status = escrow.StatusFunded
	a.PaymentReference = &ref
	a.FundedAmount = pricing.Percent(a.TotalAmount, a.AdvancePercentage)
	return a, nil
}

func (f *fakeEscrow) Refund(_ context.Context, id uuid.UUID) (*escrow.Account, error) {
	a := f.accounts[id]
	a.Status = escrow.StatusRefunded
	return a, nil
}

func (f *fakeEscrow) AttachBooking(_ context.Context, id, bookingID uuid.UUID) error {
	f.attached[id] = bookingID
	return nil
}

type recordedFailure struct {
	escrowID   uuid.UUID
	receipt    string
	paymentRef string
}

type fakeRecorder struct {
	failures []recordedFailure
	unbooked []recordedFailure
}

func (f *fakeRecorder) RecordFailure(_ context.Context, escrowID uuid.UUID, _, receipt, paymentRef string, _ error) error {
	f.failures = append(f.failures, recordedFailure{escrowID: escrowID, receipt: receipt, paymentRef: paymentRef})
	return nil
}

func (f *fakeRecorder) RecordUnbooked(_ context.Context, escrowID uuid.UUID, _, receipt, paymentRef string, _ error) error {
	f.unbooked = append(f.unbooked, recordedFailure{escrowID: escrowID, receipt: receipt, paymentRef: paymentRef})
	return nil
}

type fakeNotifier struct {
	confirmed []*Booking
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, b *Booking) {
	f.confirmed = append(f.confirmed, b)
}

type fixture struct {
	listing  *venues.Listing
	avail    *fakeAvailability
	payments *fakePayments
	bookings *fakeBookings
	notifier *fakeNotifier
	deps     Dependencies
}

func newFixture() *fixture {
	listing := &venues.Listing{
		ID:                   uuid.New(),
		Kind:                 venues.KindVenue,
		Name:                 "Lakeview Lawns",
		BasePrice:            150000,
		Capacity:             500,
		PayeeID:              uuid.New(),
		CommissionPercentage: 10,
		AutoReleaseDays:      7,
	}
	f := &fixture{
		listing:  listing,
		avail:    &fakeAvailability{cached: &availability.Slot{Status: availability.StatusAvailable}},
		payments: &fakePayments{outcome: successOutcome()},
		bookings: &fakeBookings{},
		notifier: &fakeNotifier{},
	}
	f.deps = Dependencies{
		Listings:     &fakeListings{listing: listing},
		Availability: f.avail,
		Payments:     f.payments,
		Bookings:     f.bookings,
		Notifier:     f.notifier,
	}
	return f
}

func successOutcome() payments.Outcome {
	return payments.Succeeded(
		&payments.OrderRecord{ID: "order_1", Status: payments.OrderStatusPaid},
		payments.PaymentDetails{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"},
	)
}

func validDetails() Details {
	return Details{
		EventDate:     testEventDate,
		GuestCount:    150,
		EventType:     "Wedding",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "+91 98765 43210",
	}
}

func (f *fixture) machine() *Machine {
	draft := Draft{ID: uuid.NewString(), ListingID: f.listing.ID.String(), UserID: "user-1"}
	return NewMachine(draft, f.deps, MachineConfig{AdvancePercentage: 30, Currency: "INR"}, logger.GetDefault())
}

// machineInPayment returns a machine that has passed NEXT with valid details
func (f *fixture) machineInPayment(t *testing.T) *Machine {
	t.Helper()
	m := f.machine()
	require.NoError(t, m.SetDetails(validDetails()))
	result, err := m.Next(context.Background())
	require.NoError(t, err)
	require.True(t, result.Valid(), "unexpected validation errors: %v", result)
	require.Equal(t, StatePayment, m.State())
	return m
}

func TestNext_ComputesBreakdown(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)

	draft := m.Draft()
	require.NotNil(t, draft.Breakdown)
	assert.Equal(t, int64(225000), draft.Breakdown.TotalAmount)
	assert.Equal(t, int64(67500), draft.Breakdown.AdvanceAmount)
	assert.Equal(t, int64(157500), draft.Breakdown.RemainingAmount)
}

func TestNext_ZeroAdvancePercentage(t *testing.T) {
	f := newFixture()
	draft := Draft{ID: uuid.NewString(), ListingID: f.listing.ID.String(), UserID: "user-1"}
	m := NewMachine(draft, f.deps, MachineConfig{AdvancePercentage: 0, Currency: "INR"}, logger.GetDefault())
	require.NoError(t, m.SetDetails(validDetails()))

	result, err := m.Next(context.Background())

	require.NoError(t, err)
	require.True(t, result.Valid())
	breakdown := m.Draft().Breakdown
	require.NotNil(t, breakdown)
	assert.Equal(t, 0, breakdown.AdvancePercentage)
	assert.Equal(t, int64(0), breakdown.AdvanceAmount)
	assert.Equal(t, breakdown.TotalAmount, breakdown.RemainingAmount)
}

func TestNext_EmptyEmailStaysInDetails(t *testing.T) {
	f := newFixture()
	m := f.machine()
	d := validDetails()
	d.CustomerEmail = ""
	require.NoError(t, m.SetDetails(d))

	result, err := m.Next(context.Background())

	require.NoError(t, err)
	assert.Contains(t, result, "customerEmail")
	assert.Equal(t, StateDetails, m.State())
	assert.Nil(t, m.Draft().Breakdown)
}

func TestNext_ZeroGuestsStaysInDetails(t *testing.T) {
	f := newFixture()
	m := f.machine()
	d := validDetails()
	d.GuestCount = 0
	require.NoError(t, m.SetDetails(d))

	result, err := m.Next(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Guest count must be at least 1", result["guestCount"])
	assert.Equal(t, StateDetails, m.State())
}

func TestNext_AvailabilityRules(t *testing.T) {
	maxGuests := 120
	tests := []struct {
		name  string
		slot  *availability.Slot
		field string
	}{
		{name: "date missing from availability", slot: nil, field: "eventDate"},
		{name: "booked date", slot: &availability.Slot{Status: availability.StatusBooked}, field: "eventDate"},
		{name: "guest cap on the date", slot: &availability.Slot{Status: availability.StatusLimited, MaxGuests: &maxGuests}, field: "guestCount"},
		{
			name: "time slot required",
			slot: &availability.Slot{Status: availability.StatusAvailable, TimeSlots: []availability.TimeSlot{
				{ID: "eve", Time: "18:00", Status: availability.StatusAvailable},
			}},
			field: "timeSlotId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.avail.cached = tt.slot
			m := f.machine()
			require.NoError(t, m.SetDetails(validDetails()))

			result, err := m.Next(context.Background())

			require.NoError(t, err)
			assert.Contains(t, result, tt.field)
			assert.Equal(t, StateDetails, m.State())
		})
	}
}

func TestNext_CapacityExceeded(t *testing.T) {
	f := newFixture()
	f.listing.Capacity = 100
	m := f.machine()
	require.NoError(t, m.SetDetails(validDetails()))

	result, err := m.Next(context.Background())

	require.NoError(t, err)
	assert.Contains(t, result["guestCount"], "capacity of 100")
}

func TestBack_PreservesDetails(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)

	require.NoError(t, m.Back(context.Background()))

	draft := m.Draft()
	assert.Equal(t, StateDetails, draft.State)
	want := validDetails().normalize()
	assert.Equal(t, want, draft.Details)
}

func TestBack_NotAllowedFromDetails(t *testing.T) {
	m := newFixture().machine()
	assert.ErrorIs(t, m.Back(context.Background()), ErrInvalidTransition)
}

func TestPay_NonEscrowSuccess(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome.Kind)
	assert.Equal(t, StateConfirmed, outcome.State)
	assert.Equal(t, StateConfirmed, m.State())

	require.Len(t, f.bookings.created, 1)
	booking := f.bookings.created[0]
	assert.Equal(t, StatusPendingConfirmation, booking.Status)
	assert.Equal(t, PaymentAdvancePaid, booking.PaymentStatus)
	assert.Equal(t, int64(225000), booking.TotalAmount)
	assert.Equal(t, int64(67500), booking.AmountPaid)
	assert.Equal(t, "pay_1", booking.PaymentID)
	assert.Nil(t, booking.EscrowID)
	assert.Len(t, f.notifier.confirmed, 1)

	require.Len(t, f.payments.orders, 1)
	assert.Equal(t, int64(67500), f.payments.orders[0].Amount)
	assert.Equal(t, payments.Receipt(m.Draft().ID, payments.PaymentTypeAdvance), f.payments.orders[0].Receipt)
	assert.Equal(t, booking.ID.String(), m.Draft().BookingID)
}

func TestPay_FullChargesTotal(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeFull})

	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome.Kind)
	assert.Equal(t, int64(225000), f.payments.orders[0].Amount)
	assert.Equal(t, PaymentPaid, f.bookings.created[0].PaymentStatus)
}

func TestPay_VerificationFailedCreatesNoBooking(t *testing.T) {
	f := newFixture()
	f.payments.outcome = payments.Failed(payments.ReasonVerificationFailed, &payments.OrderRecord{ID: "order_1"}, errors.New("verified=false"))
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	assert.Equal(t, OutcomeIntegrityFailure, outcome.Kind)
	assert.Equal(t, string(payments.ReasonVerificationFailed), outcome.Reason)
	assert.False(t, outcome.RetryAllowed)
	assert.Equal(t, StatePayment, m.State())
	assert.Empty(t, f.bookings.created)
	assert.True(t, m.Draft().IntegrityHold)

	// a held draft does not reach the processor again
	again, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIntegrityFailure, again.Kind)
	assert.Equal(t, 1, f.payments.calls())
}

func TestPay_RejectedOrderAllowsManualRetry(t *testing.T) {
	f := newFixture()
	rejected := &payments.OrderRecord{ID: "order_1", Status: payments.OrderStatusFailed}
	f.payments.outcome = payments.Failed(payments.ReasonVerificationFailed, rejected, errors.New("verified=false"))
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	assert.Equal(t, OutcomeIntegrityFailure, outcome.Kind)
	assert.False(t, outcome.RetryAllowed)
	assert.Equal(t, verificationRejectedMessage, outcome.Message)
	assert.False(t, m.Draft().IntegrityHold)
	assert.Empty(t, f.bookings.created)

	f.payments.outcome = successOutcome()
	again, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, again.Kind)
	assert.Equal(t, 2, f.payments.calls())
	assert.Len(t, f.bookings.created, 1)
}

func TestPay_DeclinedAllowsRetry(t *testing.T) {
	f := newFixture()
	f.payments.outcome = payments.Failed(payments.ReasonGatewayDeclined, nil, errors.New("card declined"))
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	assert.Equal(t, OutcomePaymentFailed, outcome.Kind)
	assert.True(t, outcome.RetryAllowed)
	assert.Equal(t, StatePayment, m.State())
	assert.Equal(t, string(payments.ReasonGatewayDeclined), m.Draft().LastFailure)

	f.payments.outcome = successOutcome()
	outcome, err = m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome.Kind)
	assert.Empty(t, m.Draft().LastFailure)
}

func TestPay_AfterConfirmRejected(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)
	_, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})
	require.NoError(t, err)

	_, err = m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	assert.ErrorIs(t, m.Cancel(context.Background()), ErrAlreadyConfirmed)
	assert.Equal(t, 1, f.payments.calls())
	assert.Len(t, f.bookings.created, 1)
}

func TestPay_SecondPayWhileInFlightRejected(t *testing.T) {
	f := newFixture()
	f.payments.started = make(chan struct{})
	f.payments.gate = make(chan struct{})
	m := f.machineInPayment(t)

	done := make(chan BookingOutcome)
	go func() {
		outcome, _ := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})
		done <- outcome
	}()
	<-f.payments.started

	_, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})
	assert.ErrorIs(t, err, ErrPaymentInFlight)
	assert.ErrorIs(t, m.Back(context.Background()), ErrPaymentInFlight)
	assert.ErrorIs(t, m.Cancel(context.Background()), ErrPaymentInFlight)

	close(f.payments.gate)
	outcome := <-done

	assert.Equal(t, OutcomeConfirmed, outcome.Kind)
	assert.Equal(t, 1, f.payments.calls())
	assert.Len(t, f.bookings.created, 1)
}

func TestPay_SlotTakenBeforePayment(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)
	f.avail.fresh = &availability.Slot{Status: availability.StatusBooked}

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome.Kind)
	assert.Equal(t, ReasonSlotUnavailable, outcome.Reason)
	assert.Contains(t, outcome.Errors, "eventDate")
	assert.Equal(t, 0, f.payments.calls())
}

func TestPay_InvalidPaymentType(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)

	_, err := m.Pay(context.Background(), PayRequest{PaymentType: "PARTIAL"})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, f.payments.calls())
}

func TestPay_FromDetailsRejected(t *testing.T) {
	f := newFixture()
	m := f.machine()

	_, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPay_BookingWriteFailureIsIntegrityFailure(t *testing.T) {
	f := newFixture()
	f.bookings.err = errors.New("connection reset")
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	assert.Equal(t, OutcomeIntegrityFailure, outcome.Kind)
	assert.Equal(t, ReasonBookingCreationFailed, outcome.Reason)
	assert.Equal(t, contactSupportMessage, outcome.Message)
	assert.Equal(t, StatePayment, m.State())
}

func TestPay_EscrowFunded(t *testing.T) {
	f := newFixture()
	f.listing.EscrowEnabled = true
	ledger := newFakeEscrow()
	f.deps.Escrow = ledger
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome.Kind)

	escrowID, err := uuid.Parse(m.Draft().EscrowID)
	require.NoError(t, err)
	account := ledger.accounts[escrowID]
	assert.Equal(t, escrow.StatusFunded, account.Status)
	assert.Equal(t, 30, account.AdvancePercentage)
	assert.Equal(t, int64(67500), account.FundedAmount)
	assert.Equal(t, "user-1", account.PayerID)

	booking := f.bookings.created[0]
	assert.Equal(t, PaymentHeld, booking.PaymentStatus)
	require.NotNil(t, booking.EscrowID)
	assert.Equal(t, escrowID, *booking.EscrowID)
	assert.Equal(t, booking.ID, ledger.attached[escrowID])
	assert.Equal(t, escrowID.String(), f.payments.orders[0].Notes["escrowId"])
}

func TestPay_BookingWriteFailureParksFundedEscrow(t *testing.T) {
	f := newFixture()
	f.listing.EscrowEnabled = true
	f.bookings.err = errors.New("connection reset")
	ledger := newFakeEscrow()
	recorder := &fakeRecorder{}
	f.deps.Escrow = ledger
	f.deps.Reconciler = recorder
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})

	require.NoError(t, err)
	assert.Equal(t, OutcomeIntegrityFailure, outcome.Kind)
	assert.Equal(t, ReasonBookingCreationFailed, outcome.Reason)
	assert.Empty(t, recorder.failures)

	require.Len(t, recorder.unbooked, 1)
	parked := recorder.unbooked[0]
	assert.Equal(t, "pay_1", parked.paymentRef)
	assert.Equal(t, payments.Receipt(m.Draft().ID, payments.PaymentTypeAdvance), parked.receipt)

	account := ledger.accounts[parked.escrowID]
	require.NotNil(t, account)
	assert.Equal(t, escrow.StatusFunded, account.Status)
	assert.Nil(t, account.BookingID)
	assert.Empty(t, ledger.attached)
}

func TestPay_EscrowFundFailureIsRecorded(t *testing.T) {
	f := newFixture()
	f.listing.EscrowEnabled = true
	ledger := newFakeEscrow()
	ledger.fundErr = errors.New("db unavailable")
	recorder := &fakeRecorder{}
	f.deps.Escrow = ledger
	f.deps.Reconciler = recorder
	m := f.machineInPayment(t)

	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeFull})

	require.NoError(t, err)
	assert.Equal(t, OutcomeIntegrityFailure, outcome.Kind)
	assert.Equal(t, ReasonEscrowFundingFailed, outcome.Reason)
	assert.Empty(t, f.bookings.created)

	require.Len(t, recorder.failures, 1)
	assert.Equal(t, "pay_1", recorder.failures[0].paymentRef)
	assert.Equal(t, payments.Receipt(m.Draft().ID, payments.PaymentTypeFull), recorder.failures[0].receipt)
	assert.Equal(t, 100, ledger.accounts[recorder.failures[0].escrowID].AdvancePercentage)
}

func TestPay_StaleEscrowReplacedOnPaymentTypeChange(t *testing.T) {
	f := newFixture()
	f.listing.EscrowEnabled = true
	ledger := newFakeEscrow()
	f.deps.Escrow = ledger
	f.payments.outcome = payments.Failed(payments.ReasonUserCancelled, nil, nil)
	m := f.machineInPayment(t)

	_, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})
	require.NoError(t, err)
	first, err := uuid.Parse(m.Draft().EscrowID)
	require.NoError(t, err)

	f.payments.outcome = successOutcome()
	outcome, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeFull})
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome.Kind)

	assert.Equal(t, escrow.StatusRefunded, ledger.accounts[first].Status)
	assert.NotEqual(t, first.String(), m.Draft().EscrowID)
	assert.Len(t, ledger.accounts, 2)
}

func TestCancel_FromPayment(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)

	require.NoError(t, m.Cancel(context.Background()))
	assert.Equal(t, StateCancelled, m.State())

	_, err := m.Pay(context.Background(), PayRequest{PaymentType: payments.PaymentTypeAdvance})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetDetails_OnlyInDetails(t *testing.T) {
	f := newFixture()
	m := f.machineInPayment(t)

	assert.ErrorIs(t, m.SetDetails(validDetails()), ErrInvalidTransition)
}
