package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
)

// StripeProcessor confirms a PaymentIntent server-side with the customer's saved payment method
type StripeProcessor struct {
	intents paymentIntentAPI
}

func NewStripeProcessor(intents paymentIntentAPI) *StripeProcessor {
	return &StripeProcessor{intents: intents}
}

// NewStripeFactory returns a ProcessorFactory for LazyProcessor plus the verifier sharing its client
func NewStripeFactory(secretKey string) (ProcessorFactory, Verifier) {
	sc := stripe.NewClient(secretKey)
	factory := func(context.Context) (ProcessorClient, error) {
		if secretKey == "" {
			return nil, errors.New("stripe secret key is not configured")
		}
		return NewStripeProcessor(sc.V1PaymentIntents), nil
	}
	return factory, NewStripeVerifier(sc.V1PaymentIntents)
}

func (p *StripeProcessor) Checkout(ctx context.Context, req CheckoutRequest) (PaymentDetails, error) {
	if req.Customer.PaymentMethod == "" {
		return PaymentDetails{}, fmt.Errorf("%w: no payment method supplied", ErrCheckoutDeclined)
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.Customer.PaymentMethod),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(req.Receipt),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		Metadata: map[string]string{
			"order_id": req.OrderID,
			"receipt":  req.Receipt,
		},
	}
	if req.Customer.Email != "" {
		params.ReceiptEmail = stripe.String(req.Customer.Email)
	}
	params.SetIdempotencyKey(req.Receipt + ":" + req.OrderID + ":" + req.Customer.PaymentMethod)

	pi, err := p.intents.Create(ctx, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeCard {
			return PaymentDetails{}, fmt.Errorf("%w: %s", ErrCheckoutDeclined, serr.Msg)
		}
		return PaymentDetails{}, fmt.Errorf("stripe payment intent failed: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return PaymentDetails{}, fmt.Errorf("%w: payment intent %s is %s", ErrCheckoutDeclined, pi.ID, pi.Status)
	}

	return PaymentDetails{PaymentID: pi.ID, OrderID: req.OrderID}, nil
}
