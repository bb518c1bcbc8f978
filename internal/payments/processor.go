package payments

import (
	"context"
	"fmt"
	"sync"
)

// CheckoutRequest opens a checkout for one order
type CheckoutRequest struct {
	OrderID     string
	Receipt     string
	AmountMinor int64
	Currency    string
	Customer    CustomerDetails
}

// ProcessorClient is the external checkout capability. Checkout blocks until
// the customer pays, dismisses, or the gateway declines; dismissal returns
// ErrCheckoutDismissed and declines wrap ErrCheckoutDeclined.
type ProcessorClient interface {
	Checkout(ctx context.Context, req CheckoutRequest) (PaymentDetails, error)
}

// ProcessorLoader acquires the processor client
type ProcessorLoader interface {
	Load(ctx context.Context) (ProcessorClient, error)
}

// ProcessorFactory builds a client; called until it succeeds once
type ProcessorFactory func(ctx context.Context) (ProcessorClient, error)

// LazyProcessor loads the client on first use and shares it for the life of
// the process. A failed load is not cached.
type LazyProcessor struct {
	mu      sync.Mutex
	factory ProcessorFactory
	client  ProcessorClient
}

func NewLazyProcessor(factory ProcessorFactory) *LazyProcessor {
	return &LazyProcessor{factory: factory}
}

func (l *LazyProcessor) Load(ctx context.Context) (ProcessorClient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}

	client, err := l.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment processor: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("failed to load payment processor: factory returned nil client")
	}
	l.client = client
	return client, nil
}

// StaticProcessor wraps an already constructed client
func StaticProcessor(client ProcessorClient) ProcessorLoader {
	return NewLazyProcessor(func(context.Context) (ProcessorClient, error) { return client, nil })
}
