package bookings

// State is where a booking draft sits in the submission flow
type State string

const (
	StateDetails   State = "DETAILS"
	StatePayment   State = "PAYMENT"
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
)

func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateCancelled
}

func (s State) String() string {
	return string(s)
}

type Event string

const (
	EventNext   Event = "NEXT"
	EventBack   Event = "BACK"
	EventPay    Event = "PAY"
	EventCancel Event = "CANCEL"
)

// transitions is the state table. PAY lands in CONFIRMED only on a verified
// payment; a failed payment leaves the draft in PAYMENT. CANCEL is accepted
// from every non-terminal state.
var transitions = map[State]map[Event]State{
	StateDetails: {
		EventNext:   StatePayment,
		EventCancel: StateCancelled,
	},
	StatePayment: {
		EventBack:   StateDetails,
		EventPay:    StateConfirmed,
		EventCancel: StateCancelled,
	},
}

func nextState(from State, ev Event) (State, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}

// Status of a persisted booking
type Status string

const (
	StatusPendingConfirmation Status = "PENDING_CONFIRMATION"
	StatusConfirmed           Status = "CONFIRMED"
	StatusCancelled           Status = "CANCELLED"
)

// PaymentStatus is derived from the payment and escrow state of a booking
type PaymentStatus string

const (
	PaymentAdvancePaid PaymentStatus = "ADVANCE_PAID"
	PaymentPaid        PaymentStatus = "PAID"
	PaymentHeld        PaymentStatus = "HELD_IN_ESCROW"
	PaymentReleased    PaymentStatus = "RELEASED"
	PaymentRefunded    PaymentStatus = "REFUNDED"
)
