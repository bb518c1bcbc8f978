package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wedbook/pkg/logger"

	"github.com/google/uuid"
)

// Alerter is told about fundings that need a human
type Alerter interface {
	ReconciliationRequired(ctx context.Context, pf PendingFunding)
}

// Reconciler retries Fund for verified payments whose first Fund call failed.
// Retries rely on Fund being idempotent for the same payment reference.
type Reconciler struct {
	ledger      *Ledger
	repo        Repository
	alerter     Alerter
	maxAttempts int
	batchSize   int
	log         *logger.Logger
}

func NewReconciler(ledger *Ledger, repo Repository, alerter Alerter, maxAttempts, batchSize int, log *logger.Logger) *Reconciler {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Reconciler{
		ledger:      ledger,
		repo:        repo,
		alerter:     alerter,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		log:         log.WithComponent("escrow-reconciler"),
	}
}

// RecordFailure stores a funding that must be retried
func (r *Reconciler) RecordFailure(ctx context.Context, escrowID uuid.UUID, draftID, receipt, paymentReference string, cause error) error {
	pf := &PendingFunding{
		ID:               uuid.New(),
		EscrowID:         escrowID,
		DraftID:          draftID,
		Receipt:          receipt,
		PaymentReference: paymentReference,
		Status:           FundingPending,
		LastError:        errString(cause),
	}
	if err := r.repo.SavePendingFunding(ctx, pf); err != nil {
		return fmt.Errorf("failed to record pending funding: %w", err)
	}
	r.log.LogIntegrityFailure(ctx, "escrow funding deferred to reconciliation", cause,
		slog.String("escrow_id", escrowID.String()),
		slog.String("receipt", receipt),
		slog.String("payment_reference", paymentReference))
	return nil
}

// RecordUnbooked flags a funded account whose booking write failed. The row is
// not retried; support is alerted straight away.
func (r *Reconciler) RecordUnbooked(ctx context.Context, escrowID uuid.UUID, draftID, receipt, paymentReference string, cause error) error {
	pf := &PendingFunding{
		ID:               uuid.New(),
		EscrowID:         escrowID,
		DraftID:          draftID,
		Receipt:          receipt,
		PaymentReference: paymentReference,
		Status:           FundingUnbooked,
		LastError:        errString(cause),
	}
	if err := r.repo.SavePendingFunding(ctx, pf); err != nil {
		return fmt.Errorf("failed to record unbooked escrow: %w", err)
	}
	r.log.LogIntegrityFailure(ctx, "escrow funded without a booking", cause,
		slog.String("escrow_id", escrowID.String()),
		slog.String("receipt", receipt),
		slog.String("payment_reference", paymentReference))
	if r.alerter != nil {
		r.alerter.ReconciliationRequired(ctx, *pf)
	}
	return nil
}

// ReconcileOnce works through one batch of pending fundings and returns how many were resolved
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	rows, err := r.repo.ListPendingFundings(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending fundings: %w", err)
	}

	resolved := 0
	for _, pf := range rows {
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}
		if r.reconcile(ctx, pf) {
			resolved++
		}
	}
	return resolved, nil
}

func (r *Reconciler) reconcile(ctx context.Context, pf PendingFunding) bool {
	attempts := pf.Attempts + 1
	account, err := r.ledger.Fund(ctx, pf.EscrowID, pf.PaymentReference)
	if err == nil {
		status := FundingResolved
		if account.BookingID == nil {
			// the booking flow stops at a failed Fund, so no booking exists yet
			status = FundingUnbooked
		}
		if err := r.repo.UpdatePendingFunding(ctx, pf.ID, map[string]interface{}{
			"status":     status,
			"attempts":   attempts,
			"last_error": "",
		}); err != nil {
			r.log.WarnContext(ctx, "funded but failed to resolve pending row",
				slog.String("pending_id", pf.ID.String()),
				slog.String("error", err.Error()))
		}
		r.log.InfoContext(ctx, "pending funding reconciled",
			slog.String("escrow_id", pf.EscrowID.String()),
			slog.String("status", string(status)),
			slog.Int("attempts", attempts))
		if status == FundingUnbooked && r.alerter != nil {
			pf.Status = status
			pf.Attempts = attempts
			pf.LastError = ""
			r.alerter.ReconciliationRequired(ctx, pf)
		}
		return true
	}

	status := FundingPending
	// a rejected transition will not succeed on retry
	if attempts >= r.maxAttempts || errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
		status = FundingManual
	}
	if uerr := r.repo.UpdatePendingFunding(ctx, pf.ID, map[string]interface{}{
		"status":     status,
		"attempts":   attempts,
		"last_error": err.Error(),
	}); uerr != nil {
		r.log.WarnContext(ctx, "failed to update pending funding",
			slog.String("pending_id", pf.ID.String()),
			slog.String("error", uerr.Error()))
	}

	if status == FundingManual {
		pf.Status = FundingManual
		pf.Attempts = attempts
		pf.LastError = err.Error()
		r.log.LogIntegrityFailure(ctx, "escrow funding needs manual reconciliation", err,
			slog.String("escrow_id", pf.EscrowID.String()),
			slog.String("receipt", pf.Receipt))
		if r.alerter != nil {
			r.alerter.ReconciliationRequired(ctx, pf)
		}
	}
	return false
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
