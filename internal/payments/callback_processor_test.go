package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForPending(t *testing.T, p *CallbackProcessor, receipt string) PendingCheckout {
	t.Helper()
	var pending PendingCheckout
	require.Eventually(t, func() bool {
		var ok bool
		pending, ok = p.Pending(receipt)
		return ok
	}, time.Second, 5*time.Millisecond)
	return pending
}

func checkoutRequest() CheckoutRequest {
	return CheckoutRequest{
		OrderID:     "order-1",
		Receipt:     "wb_d1_ADVANCE",
		AmountMinor: 6750000,
		Currency:    "INR",
		Customer:    CustomerDetails{Name: "Asha"},
	}
}

func TestCallbackProcessor_Success(t *testing.T) {
	p := NewCallbackProcessor("key_test", time.Minute)
	type result struct {
		details PaymentDetails
		err     error
	}
	done := make(chan result, 1)
	go func() {
		d, err := p.Checkout(context.Background(), checkoutRequest())
		done <- result{d, err}
	}()

	pending := waitForPending(t, p, "wb_d1_ADVANCE")
	assert.Equal(t, "order-1", pending.OrderID)
	assert.Equal(t, "key_test", pending.KeyID)
	assert.Equal(t, int64(6750000), pending.AmountMinor)

	require.NoError(t, p.Deliver(CallbackResult{OrderID: "order-1", PaymentID: "pay-1", Signature: "sig", Status: CallbackSuccess}))

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, PaymentDetails{PaymentID: "pay-1", OrderID: "order-1", Signature: "sig"}, res.details)

	_, ok := p.Pending("wb_d1_ADVANCE")
	assert.False(t, ok)
}

func TestCallbackProcessor_DismissedAndFailed(t *testing.T) {
	cases := []struct {
		status CallbackStatus
		want   error
	}{
		{CallbackDismissed, ErrCheckoutDismissed},
		{CallbackFailed, ErrCheckoutDeclined},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			p := NewCallbackProcessor("key_test", time.Minute)
			done := make(chan error, 1)
			go func() {
				_, err := p.Checkout(context.Background(), checkoutRequest())
				done <- err
			}()
			waitForPending(t, p, "wb_d1_ADVANCE")
			require.NoError(t, p.Deliver(CallbackResult{OrderID: "order-1", Status: tc.status, Reason: "card declined"}))
			assert.ErrorIs(t, <-done, tc.want)
		})
	}
}

func TestCallbackProcessor_TimeoutIsDismissal(t *testing.T) {
	p := NewCallbackProcessor("key_test", 20*time.Millisecond)
	_, err := p.Checkout(context.Background(), checkoutRequest())
	assert.ErrorIs(t, err, ErrCheckoutDismissed)
}

func TestCallbackProcessor_ContextCancelled(t *testing.T) {
	p := NewCallbackProcessor("key_test", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Checkout(ctx, checkoutRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackProcessor_DeliverUnknownOrder(t *testing.T) {
	p := NewCallbackProcessor("key_test", time.Minute)
	err := p.Deliver(CallbackResult{OrderID: "nope", Status: CallbackSuccess})
	assert.ErrorIs(t, err, ErrNoPendingCheckout)
}
