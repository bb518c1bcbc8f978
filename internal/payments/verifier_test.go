package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func TestSignatureVerifier(t *testing.T) {
	v := NewSignatureVerifier("test-secret")
	order := &OrderRecord{ID: "order-1"}
	sig := v.Sign("order-1", "pay-1")

	ok, err := v.Verify(context.Background(), order, PaymentDetails{OrderID: "order-1", PaymentID: "pay-1", Signature: sig})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify(context.Background(), order, PaymentDetails{OrderID: "order-1", PaymentID: "pay-2", Signature: sig})
	require.NoError(t, err)
	assert.False(t, ok, "signature must be bound to the payment id")

	ok, err = v.Verify(context.Background(), order, PaymentDetails{OrderID: "order-1", PaymentID: "pay-1", Signature: "not-hex"})
	require.NoError(t, err)
	assert.False(t, ok)

	other := NewSignatureVerifier("other-secret")
	ok, err = other.Verify(context.Background(), order, PaymentDetails{OrderID: "order-1", PaymentID: "pay-1", Signature: sig})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignatureVerifier_NoSecret(t *testing.T) {
	_, err := NewSignatureVerifier("").Verify(context.Background(), &OrderRecord{ID: "o"}, PaymentDetails{PaymentID: "p", Signature: "aa"})
	assert.Error(t, err)
}

type fakeIntents struct {
	created   *stripe.PaymentIntentCreateParams
	createErr error
	intent    *stripe.PaymentIntent
	getErr    error
}

func (f *fakeIntents) Create(_ context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	f.created = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.intent, nil
}

func (f *fakeIntents) Retrieve(_ context.Context, _ string, _ *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.intent, nil
}

func succeededIntent() *stripe.PaymentIntent {
	return &stripe.PaymentIntent{
		ID:       "pi_1",
		Status:   stripe.PaymentIntentStatusSucceeded,
		Amount:   6750000,
		Currency: stripe.CurrencyINR,
		Metadata: map[string]string{"order_id": "order-1"},
	}
}

func TestStripeVerifier(t *testing.T) {
	order := &OrderRecord{ID: "order-1", AmountMinor: 6750000, Currency: "INR"}
	details := PaymentDetails{PaymentID: "pi_1", OrderID: "order-1"}

	t.Run("matching intent", func(t *testing.T) {
		ok, err := NewStripeVerifier(&fakeIntents{intent: succeededIntent()}).Verify(context.Background(), order, details)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		pi := succeededIntent()
		pi.Amount = 100
		ok, err := NewStripeVerifier(&fakeIntents{intent: pi}).Verify(context.Background(), order, details)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("other order", func(t *testing.T) {
		pi := succeededIntent()
		pi.Metadata["order_id"] = "order-2"
		ok, err := NewStripeVerifier(&fakeIntents{intent: pi}).Verify(context.Background(), order, details)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("not succeeded", func(t *testing.T) {
		pi := succeededIntent()
		pi.Status = stripe.PaymentIntentStatusRequiresAction
		ok, err := NewStripeVerifier(&fakeIntents{intent: pi}).Verify(context.Background(), order, details)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown intent", func(t *testing.T) {
		ok, err := NewStripeVerifier(&fakeIntents{getErr: &stripe.Error{HTTPStatusCode: 404}}).Verify(context.Background(), order, details)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transport error", func(t *testing.T) {
		_, err := NewStripeVerifier(&fakeIntents{getErr: errors.New("timeout")}).Verify(context.Background(), order, details)
		assert.Error(t, err)
	})
}

func TestStripeProcessor_Checkout(t *testing.T) {
	req := CheckoutRequest{
		OrderID:     "order-1",
		Receipt:     "wb_d1_ADVANCE",
		AmountMinor: 6750000,
		Currency:    "INR",
		Customer:    CustomerDetails{Email: "asha@example.com", PaymentMethod: "pm_card_visa"},
	}

	t.Run("confirmed", func(t *testing.T) {
		intents := &fakeIntents{intent: succeededIntent()}
		details, err := NewStripeProcessor(intents).Checkout(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "pi_1", details.PaymentID)
		assert.Equal(t, "order-1", details.OrderID)
		require.NotNil(t, intents.created)
		assert.Equal(t, int64(6750000), *intents.created.Amount)
		assert.Equal(t, "inr", *intents.created.Currency)
		assert.Equal(t, "order-1", intents.created.Metadata["order_id"])
	})

	t.Run("card error is a decline", func(t *testing.T) {
		intents := &fakeIntents{createErr: &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "insufficient funds"}}
		_, err := NewStripeProcessor(intents).Checkout(context.Background(), req)
		assert.ErrorIs(t, err, ErrCheckoutDeclined)
	})

	t.Run("missing payment method", func(t *testing.T) {
		noMethod := req
		noMethod.Customer.PaymentMethod = ""
		_, err := NewStripeProcessor(&fakeIntents{}).Checkout(context.Background(), noMethod)
		assert.ErrorIs(t, err, ErrCheckoutDeclined)
	})
}
