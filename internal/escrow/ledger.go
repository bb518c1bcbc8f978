// Package escrow holds booking payments between payer and payee until they are
// released to the payee (less commission) or refunded.
package escrow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"wedbook/internal/pricing"
	"wedbook/pkg/logger"

	"github.com/google/uuid"
)

// ChangeListener observes committed status changes
type ChangeListener func(ctx context.Context, account *Account, from Status)

type Ledger struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time

	mu        sync.RWMutex
	listeners []ChangeListener
}

func NewLedger(repo Repository, log *logger.Logger) *Ledger {
	return &Ledger{
		repo: repo,
		log:  log.WithComponent("escrow"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe registers fn for every committed transition
func (l *Ledger) Subscribe(fn ChangeListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Ledger) Create(ctx context.Context, params CreateParams) (*Account, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}

	account := &Account{
		ID:                   uuid.New(),
		DraftID:              params.DraftID,
		PayerID:              params.PayerID,
		PayeeID:              params.PayeeID,
		TotalAmount:          params.TotalAmount,
		AdvancePercentage:    params.AdvancePercentage,
		CommissionPercentage: params.CommissionPercentage,
		AutoReleaseDays:      params.AutoReleaseDays,
		Status:               StatusCreated,
	}
	if err := l.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create escrow account: %w", err)
	}

	l.log.InfoContext(ctx, "escrow account created",
		slog.String("escrow_id", account.ID.String()),
		slog.String("draft_id", account.DraftID),
		slog.Int64("total_amount", account.TotalAmount))
	return account, nil
}

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return l.repo.GetByID(ctx, id)
}

// Fund moves CREATED to FUNDED. Repeating it with the same payment reference on
// an already funded account returns the account unchanged.
func (l *Ledger) Fund(ctx context.Context, id uuid.UUID, paymentReference string) (*Account, error) {
	if paymentReference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrInvalidAccount)
	}

	var from Status
	account, err := l.repo.Mutate(ctx, id, func(a *Account) (bool, error) {
		from = a.Status
		if a.Status == StatusFunded && a.PaymentReference != nil && *a.PaymentReference == paymentReference {
			return false, nil
		}
		if !canTransition(a.Status, StatusFunded) {
			return false, fmt.Errorf("%w: cannot fund account in %s", ErrInvalidTransition, a.Status)
		}

		now := l.now()
		advance, _ := pricing.Split(a.TotalAmount, a.AdvancePercentage)
		a.Status = StatusFunded
		a.PaymentReference = &paymentReference
		a.FundedAmount = advance
		a.FundedAt = &now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	l.committed(ctx, account, from)
	return account, nil
}

// Release pays out the funded amount less commission
func (l *Ledger) Release(ctx context.Context, id uuid.UUID) (*Account, error) {
	var from Status
	account, err := l.repo.Mutate(ctx, id, func(a *Account) (bool, error) {
		from = a.Status
		if !canTransition(a.Status, StatusReleased) {
			return false, fmt.Errorf("%w: cannot release account in %s", ErrInvalidTransition, a.Status)
		}

		now := l.now()
		a.CommissionAmount = pricing.Percent(a.FundedAmount, a.CommissionPercentage)
		a.PayeeAmount = a.FundedAmount - a.CommissionAmount
		a.Status = StatusReleased
		a.ReleasedAt = &now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	l.committed(ctx, account, from)
	return account, nil
}

// Refund returns the money to the payer. Allowed from CREATED and FUNDED.
func (l *Ledger) Refund(ctx context.Context, id uuid.UUID) (*Account, error) {
	var from Status
	account, err := l.repo.Mutate(ctx, id, func(a *Account) (bool, error) {
		from = a.Status
		if !canTransition(a.Status, StatusRefunded) {
			return false, fmt.Errorf("%w: cannot refund account in %s", ErrInvalidTransition, a.Status)
		}

		now := l.now()
		a.Status = StatusRefunded
		a.RefundedAt = &now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	l.committed(ctx, account, from)
	return account, nil
}

// AttachBooking links the account to the booking created from its draft
func (l *Ledger) AttachBooking(ctx context.Context, id, bookingID uuid.UUID) error {
	_, err := l.repo.Mutate(ctx, id, func(a *Account) (bool, error) {
		if a.BookingID != nil && *a.BookingID == bookingID {
			return false, nil
		}
		a.BookingID = &bookingID
		return true, nil
	})
	return err
}

// ReleaseDeadline is FundedAt plus AutoReleaseDays. ok is false for accounts never funded.
func ReleaseDeadline(account *Account) (deadline time.Time, ok bool) {
	if account.FundedAt == nil {
		return time.Time{}, false
	}
	return account.FundedAt.AddDate(0, 0, account.AutoReleaseDays), true
}

// DueForRelease lists funded accounts whose deadline passed at now
func (l *Ledger) DueForRelease(ctx context.Context, now time.Time, limit int) ([]Account, error) {
	accounts, err := l.repo.ListDueForRelease(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts due for release: %w", err)
	}
	return accounts, nil
}

func (l *Ledger) committed(ctx context.Context, account *Account, from Status) {
	if from == account.Status {
		return
	}
	l.log.LogEscrowTransition(ctx, account.ID.String(), string(from), string(account.Status))

	l.mu.RLock()
	listeners := append([]ChangeListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, account, from)
	}
}

// ReleaseDue releases every booked account whose auto-release deadline passed
// at now, up to limit, and returns how many were released. Accounts without a
// booking are never auto-released.
func (l *Ledger) ReleaseDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := l.DueForRelease(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, account := range due {
		if ctx.Err() != nil {
			return released, ctx.Err()
		}
		if account.BookingID == nil {
			// nothing was booked against this money; support decides where it goes
			l.log.WarnContext(ctx, "auto release skipped for unbooked account",
				slog.String("escrow_id", account.ID.String()))
			continue
		}
		if _, err := l.Release(ctx, account.ID); err != nil {
			// refunded or released between the query and the lock
			l.log.WarnContext(ctx, "auto release skipped",
				slog.String("escrow_id", account.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		released++
	}
	return released, nil
}
