package payments

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type CallbackStatus string

const (
	CallbackSuccess   CallbackStatus = "success"
	CallbackDismissed CallbackStatus = "dismissed"
	CallbackFailed    CallbackStatus = "failed"
)

// CallbackResult is what the hosted widget reports for an order
type CallbackResult struct {
	OrderID   string         `json:"orderId" binding:"required"`
	PaymentID string         `json:"paymentId"`
	Signature string         `json:"signature"`
	Status    CallbackStatus `json:"status" binding:"required,oneof=success dismissed failed"`
	Reason    string         `json:"reason"`
}

// PendingCheckout is the data the widget needs to open a checkout
type PendingCheckout struct {
	OrderID     string    `json:"orderId"`
	Receipt     string    `json:"receipt"`
	AmountMinor int64     `json:"amount"`
	Currency    string    `json:"currency"`
	KeyID       string    `json:"keyId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	OpenedAt    time.Time `json:"openedAt"`
}

type pendingEntry struct {
	checkout PendingCheckout
	result   chan CallbackResult
}

// CallbackProcessor serves gateways whose checkout runs in the browser. Checkout
// parks until the UI posts the widget's result, the context ends, or the
// checkout timeout passes. Pending checkouts live in this process only.
type CallbackProcessor struct {
	mu        sync.Mutex
	byOrder   map[string]*pendingEntry
	byReceipt map[string]string
	timeout   time.Duration
	keyID     string
}

func NewCallbackProcessor(keyID string, timeout time.Duration) *CallbackProcessor {
	return &CallbackProcessor{
		byOrder:   make(map[string]*pendingEntry),
		byReceipt: make(map[string]string),
		timeout:   timeout,
		keyID:     keyID,
	}
}

func (p *CallbackProcessor) Checkout(ctx context.Context, req CheckoutRequest) (PaymentDetails, error) {
	entry := &pendingEntry{
		checkout: PendingCheckout{
			OrderID:     req.OrderID,
			Receipt:     req.Receipt,
			AmountMinor: req.AmountMinor,
			Currency:    req.Currency,
			KeyID:       p.keyID,
			Name:        req.Customer.Name,
			Email:       req.Customer.Email,
			Phone:       req.Customer.Phone,
			OpenedAt:    time.Now().UTC(),
		},
		result: make(chan CallbackResult, 1),
	}

	p.mu.Lock()
	p.byOrder[req.OrderID] = entry
	p.byReceipt[req.Receipt] = req.OrderID
	p.mu.Unlock()
	defer p.remove(req.OrderID, req.Receipt)

	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-entry.result:
		switch res.Status {
		case CallbackSuccess:
			return PaymentDetails{PaymentID: res.PaymentID, OrderID: res.OrderID, Signature: res.Signature}, nil
		case CallbackDismissed:
			return PaymentDetails{}, ErrCheckoutDismissed
		default:
			return PaymentDetails{}, fmt.Errorf("%w: %s", ErrCheckoutDeclined, res.Reason)
		}
	case <-timeout:
		return PaymentDetails{}, fmt.Errorf("%w: checkout timed out", ErrCheckoutDismissed)
	case <-ctx.Done():
		return PaymentDetails{}, ctx.Err()
	}
}

// Deliver hands the widget result to the waiting checkout
func (p *CallbackProcessor) Deliver(res CallbackResult) error {
	p.mu.Lock()
	entry, ok := p.byOrder[res.OrderID]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPendingCheckout, res.OrderID)
	}

	select {
	case entry.result <- res:
		return nil
	default:
		return fmt.Errorf("result already delivered for order %s", res.OrderID)
	}
}

// Pending returns the open checkout for a receipt
func (p *CallbackProcessor) Pending(receipt string) (PendingCheckout, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	orderID, ok := p.byReceipt[receipt]
	if !ok {
		return PendingCheckout{}, false
	}
	entry, ok := p.byOrder[orderID]
	if !ok {
		return PendingCheckout{}, false
	}
	return entry.checkout, true
}

func (p *CallbackProcessor) remove(orderID, receipt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byOrder, orderID)
	if p.byReceipt[receipt] == orderID {
		delete(p.byReceipt, receipt)
	}
}
