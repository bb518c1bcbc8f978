package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
)

// SignatureVerifier checks gateway signatures: hex(HMAC-SHA256(secret, orderID|paymentID))
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Sign produces the signature a gateway would attach
func (v *SignatureVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *SignatureVerifier) Verify(_ context.Context, order *OrderRecord, details PaymentDetails) (bool, error) {
	if len(v.secret) == 0 {
		return false, errors.New("signature verifier has no secret configured")
	}
	if details.PaymentID == "" || details.Signature == "" {
		return false, nil
	}
	got, err := hex.DecodeString(details.Signature)
	if err != nil {
		return false, nil
	}
	want, _ := hex.DecodeString(v.Sign(order.ID, details.PaymentID))
	return hmac.Equal(got, want), nil
}

// paymentIntentAPI is the slice of the stripe client the payment code uses
type paymentIntentAPI interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	Retrieve(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error)
}

// StripeVerifier re-reads the PaymentIntent from Stripe instead of trusting the client
type StripeVerifier struct {
	intents paymentIntentAPI
}

func NewStripeVerifier(intents paymentIntentAPI) *StripeVerifier {
	return &StripeVerifier{intents: intents}
}

func (v *StripeVerifier) Verify(ctx context.Context, order *OrderRecord, details PaymentDetails) (bool, error) {
	if details.PaymentID == "" {
		return false, nil
	}
	pi, err := v.intents.Retrieve(ctx, details.PaymentID, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.HTTPStatusCode == 404 {
			return false, nil
		}
		return false, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	switch {
	case pi.Status != stripe.PaymentIntentStatusSucceeded:
		return false, nil
	case pi.Amount != order.AmountMinor:
		return false, nil
	case !strings.EqualFold(string(pi.Currency), order.Currency):
		return false, nil
	case pi.Metadata["order_id"] != order.ID:
		return false, nil
	}
	return true, nil
}
