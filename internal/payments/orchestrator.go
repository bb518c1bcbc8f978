package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wedbook/pkg/logger"
)

// DefaultVerifyTimeout bounds the server-side verification call
const DefaultVerifyTimeout = 30 * time.Second

// OrderBackend creates orders and verifies reported payments
type OrderBackend interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderRecord, error)
	VerifyPayment(ctx context.Context, details PaymentDetails) (bool, error)
}

// Orchestrator runs one payment: load processor, create order, checkout, verify.
// Nothing is retried; every failure comes back as an Outcome.
type Orchestrator struct {
	loader        ProcessorLoader
	orders        OrderBackend
	verifyTimeout time.Duration
	log           *logger.Logger
}

func NewOrchestrator(loader ProcessorLoader, orders OrderBackend, verifyTimeout time.Duration, log *logger.Logger) *Orchestrator {
	if verifyTimeout <= 0 {
		verifyTimeout = DefaultVerifyTimeout
	}
	return &Orchestrator{
		loader:        loader,
		orders:        orders,
		verifyTimeout: verifyTimeout,
		log:           log.WithComponent("payments"),
	}
}

func (o *Orchestrator) ProcessPayment(ctx context.Context, req OrderRequest, customer CustomerDetails) Outcome {
	outcome := o.process(ctx, req, customer)
	o.log.LogPaymentOutcome(ctx, req.Receipt, outcome.Success, string(outcome.Reason))
	return outcome
}

func (o *Orchestrator) process(ctx context.Context, req OrderRequest, customer CustomerDetails) Outcome {
	client, err := o.loader.Load(ctx)
	if err != nil {
		return Failed(ReasonProcessorUnavailable, nil, err)
	}

	// the order must exist before any checkout is shown
	order, err := o.orders.CreateOrder(ctx, req)
	if err != nil {
		return Failed(ReasonOrderCreationFailed, nil, err)
	}

	details, err := client.Checkout(ctx, CheckoutRequest{
		OrderID:     order.ID,
		Receipt:     order.Receipt,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		Customer:    customer,
	})
	if err != nil {
		if errors.Is(err, ErrCheckoutDismissed) || errors.Is(err, context.Canceled) {
			return Failed(ReasonUserCancelled, order, err)
		}
		return Failed(ReasonGatewayDeclined, order, err)
	}

	if details.OrderID == "" {
		details.OrderID = order.ID
	}
	if details.OrderID != order.ID {
		return Failed(ReasonVerificationFailed, order,
			fmt.Errorf("checkout reported order %s, expected %s", details.OrderID, order.ID))
	}

	// verification outlives a caller that hangs up after paying
	vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.verifyTimeout)
	defer cancel()

	verified, err := o.orders.VerifyPayment(vctx, details)
	if err != nil {
		o.log.WarnContext(ctx, "payment verification errored",
			slog.String("order_id", order.ID),
			slog.String("payment_id", details.PaymentID),
			slog.String("error", err.Error()))
		return Failed(ReasonVerificationFailed, order, err)
	}
	if !verified {
		// the backend marked the order FAILED; a fresh checkout may follow
		rejected := *order
		rejected.Status = OrderStatusFailed
		return Failed(ReasonVerificationFailed, &rejected, errors.New("payment could not be verified"))
	}

	return Succeeded(order, details)
}
