package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wedbook/internal/escrow"
	"wedbook/internal/payments"
	"wedbook/internal/shared/constants"
	"wedbook/pkg/cache"
	"wedbook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// lock held by the short draft mutations (details, back, cancel)
const draftMutationLockTTL = 30 * time.Second

// Service is the draft-facing API used by the HTTP layer
type Service interface {
	StartDraft(ctx context.Context, userID string, req StartDraftRequest) (*Draft, error)
	GetDraft(ctx context.Context, draftID, userID string) (*Draft, error)
	SubmitDetails(ctx context.Context, draftID, userID string, req DetailsRequest) (*Draft, ValidationResult, error)
	Back(ctx context.Context, draftID, userID string) (*Draft, error)
	Pay(ctx context.Context, draftID, userID string, req PayRequestBody) (*Draft, BookingOutcome, error)
	Cancel(ctx context.Context, draftID, userID string) error

	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
	ListUserBookings(ctx context.Context, userID string, limit, offset int) (*BookingList, error)

	// HandleEscrowChange keeps a booking's payment status in step with its escrow account
	HandleEscrowChange(ctx context.Context, account *escrow.Account, from escrow.Status)
}

type ServiceConfig struct {
	AdvancePercentage int
	Currency          string
	PayLockTTL        time.Duration
}

type service struct {
	repo   Repository
	drafts DraftStore
	deps   Dependencies
	cache  cache.Service
	cfg    ServiceConfig
	log    *logger.Logger
}

// NewService wires the draft flow. deps.Bookings defaults to repo; cacheSvc may be nil.
func NewService(repo Repository, drafts DraftStore, deps Dependencies, cacheSvc cache.Service, cfg ServiceConfig, log *logger.Logger) Service {
	if deps.Bookings == nil {
		deps.Bookings = repo
	}
	if cfg.PayLockTTL <= 0 {
		cfg.PayLockTTL = constants.TTL_PAY_LOCK_DEFAULT
	}
	return &service{
		repo:   repo,
		drafts: drafts,
		deps:   deps,
		cache:  cacheSvc,
		cfg:    cfg,
		log:    log.WithComponent("bookings"),
	}
}

func (s *service) StartDraft(ctx context.Context, userID string, req StartDraftRequest) (*Draft, error) {
	if _, err := s.deps.Listings.GetListing(ctx, req.ListingID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	draft := &Draft{
		ID:        uuid.NewString(),
		ListingID: req.ListingID,
		UserID:    userID,
		State:     StateDetails,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "booking draft started",
		slog.String("draft_id", draft.ID),
		slog.String("listing_id", draft.ListingID))
	return draft, nil
}

func (s *service) GetDraft(ctx context.Context, draftID, userID string) (*Draft, error) {
	return s.load(ctx, draftID, userID)
}

func (s *service) SubmitDetails(ctx context.Context, draftID, userID string, req DetailsRequest) (*Draft, ValidationResult, error) {
	unlock, err := s.drafts.Lock(ctx, draftID, draftMutationLockTTL)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	m, err := s.machine(ctx, draftID, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := m.SetDetails(req.toDetails()); err != nil {
		return nil, nil, err
	}

	result, err := m.Next(ctx)
	if err != nil {
		return nil, nil, err
	}

	// entered fields are kept even when they fail validation
	draft := m.Draft()
	if err := s.drafts.Save(ctx, &draft); err != nil {
		return nil, nil, err
	}
	return &draft, result, nil
}

func (s *service) Back(ctx context.Context, draftID, userID string) (*Draft, error) {
	unlock, err := s.lockDraft(ctx, draftID, draftMutationLockTTL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := s.machine(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	if err := m.Back(ctx); err != nil {
		return nil, err
	}

	draft := m.Draft()
	if err := s.drafts.Save(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *service) Pay(ctx context.Context, draftID, userID string, req PayRequestBody) (*Draft, BookingOutcome, error) {
	unlock, err := s.lockDraft(ctx, draftID, s.cfg.PayLockTTL)
	if err != nil {
		return nil, BookingOutcome{}, err
	}
	defer unlock()

	m, err := s.machine(ctx, draftID, userID)
	if err != nil {
		return nil, BookingOutcome{}, err
	}

	outcome, err := m.Pay(ctx, PayRequest{
		PaymentType:   payments.PaymentType(req.PaymentType),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return nil, BookingOutcome{}, err
	}

	draft := m.Draft()
	if err := s.drafts.Save(ctx, &draft); err != nil {
		// the outcome stands; a confirmed booking is already persisted
		s.log.ErrorContext(ctx, "failed to save draft after payment",
			slog.String("draft_id", draftID),
			slog.String("outcome", string(outcome.Kind)),
			slog.String("error", err.Error()))
	}
	if outcome.Kind == OutcomeConfirmed && outcome.Booking != nil {
		s.invalidateUser(ctx, outcome.Booking.UserID)
	}
	return &draft, outcome, nil
}

func (s *service) Cancel(ctx context.Context, draftID, userID string) error {
	unlock, err := s.lockDraft(ctx, draftID, draftMutationLockTTL)
	if err != nil {
		return err
	}
	defer unlock()

	m, err := s.machine(ctx, draftID, userID)
	if err != nil {
		return err
	}
	if err := m.Cancel(ctx); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, draftID)
}

func (s *service) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, ErrInvalidBookingID
	}

	fetch := func() (interface{}, error) {
		booking, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrBookingNotFound
			}
			return nil, fmt.Errorf("failed to get booking: %w", err)
		}
		return booking, nil
	}

	if s.cache == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.(*Booking), nil
	}

	var booking Booking
	if err := s.cache.GetOrSet(ctx, constants.BuildBookingDetailKey(bookingID), constants.TTL_BOOKING_DETAIL, fetch, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *service) ListUserBookings(ctx context.Context, userID string, limit, offset int) (*BookingList, error) {
	fetch := func() (interface{}, error) {
		bookings, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list bookings: %w", err)
		}
		if bookings == nil {
			bookings = []Booking{}
		}
		return &BookingList{Bookings: bookings, Total: total, Limit: limit, Offset: offset}, nil
	}

	if s.cache == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.(*BookingList), nil
	}

	var list BookingList
	key := fmt.Sprintf("%s:%d:%d", constants.BuildUserBookingsKey(userID), limit, offset)
	if err := s.cache.GetOrSet(ctx, key, constants.TTL_USER_BOOKINGS, fetch, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *service) HandleEscrowChange(ctx context.Context, account *escrow.Account, from escrow.Status) {
	if account.BookingID == nil {
		return
	}

	var status PaymentStatus
	switch account.Status {
	case escrow.StatusFunded:
		status = PaymentHeld
	case escrow.StatusReleased:
		status = PaymentReleased
	case escrow.StatusRefunded:
		status = PaymentRefunded
	default:
		return
	}

	booking, err := s.repo.GetByID(ctx, *account.BookingID)
	if err != nil {
		s.log.WarnContext(ctx, "escrow changed for an unknown booking",
			slog.String("escrow_id", account.ID.String()),
			slog.String("booking_id", account.BookingID.String()),
			slog.String("error", err.Error()))
		return
	}
	if booking.PaymentStatus == status {
		return
	}
	if err := s.repo.UpdatePaymentStatus(ctx, booking.ID, status); err != nil {
		s.log.ErrorContext(ctx, "failed to update booking payment status",
			slog.String("booking_id", booking.ID.String()),
			slog.String("payment_status", string(status)),
			slog.String("error", err.Error()))
		return
	}

	s.log.InfoContext(ctx, "booking payment status updated",
		slog.String("booking_id", booking.ID.String()),
		slog.String("escrow_from", string(from)),
		slog.String("payment_status", string(status)))

	if s.cache != nil {
		_ = s.cache.Delete(ctx, constants.BuildBookingDetailKey(booking.ID.String()))
	}
	s.invalidateUser(ctx, booking.UserID)
}

// lockDraft maps a held lock to ErrPaymentInFlight, the only lock held for long
func (s *service) lockDraft(ctx context.Context, draftID string, ttl time.Duration) (func(), error) {
	unlock, err := s.drafts.Lock(ctx, draftID, ttl)
	if errors.Is(err, ErrDraftBusy) {
		return nil, ErrPaymentInFlight
	}
	return unlock, err
}

func (s *service) load(ctx context.Context, draftID, userID string) (*Draft, error) {
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	// drafts started while signed in belong to that user
	if draft.UserID != "" && draft.UserID != userID {
		return nil, ErrDraftNotFound
	}
	return draft, nil
}

func (s *service) machine(ctx context.Context, draftID, userID string) (*Machine, error) {
	draft, err := s.load(ctx, draftID, userID)
	if err != nil {
		return nil, err
	}
	return NewMachine(*draft, s.deps, MachineConfig{
		AdvancePercentage: s.cfg.AdvancePercentage,
		Currency:          s.cfg.Currency,
	}, s.log), nil
}

func (s *service) invalidateUser(ctx context.Context, userID string) {
	if s.cache == nil || userID == "" {
		return
	}
	if err := s.cache.DeletePattern(ctx, constants.BuildUserBookingsKey(userID)+"*"); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate user bookings cache",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}
