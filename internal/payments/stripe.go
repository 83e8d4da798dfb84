package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeProvider creates Stripe Checkout sessions.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a provider for the given secret key.
func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, nil)}
}

// CreateCheckoutSession implements Provider.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in SessionParams) (ProviderSession, error) {
	const op = "payments.stripe.CreateCheckoutSession"

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(in.LineItem.Currency)),
					UnitAmount: stripe.Int64(in.LineItem.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.LineItem.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: in.Metadata,
		},
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	if quoteID := in.Metadata["quoteId"]; quoteID != "" {
		params.ClientReferenceID = stripe.String(quoteID)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	params.SetIdempotencyKey(in.IdempotencyKey)

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return ProviderSession{}, mapStripeError(op, err)
	}
	return fromStripeSession(session), nil
}

// RetrieveSession implements Provider.
func (p *StripeProvider) RetrieveSession(ctx context.Context, id string) (ProviderSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return ProviderSession{}, mapStripeError("payments.stripe.RetrieveSession", err)
	}
	return fromStripeSession(session), nil
}

func fromStripeSession(s *stripe.CheckoutSession) ProviderSession {
	return ProviderSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
}

// mapStripeError separates requests Stripe rejected from failures worth retrying.
// Authentication failures count as provider unavailability.
func mapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return providerUnavailable(op, err)
	}
	if stripeErr.HTTPStatusCode == http.StatusUnauthorized || stripeErr.HTTPStatusCode == http.StatusForbidden {
		return providerUnavailable(op, err)
	}
	switch stripeErr.Type {
	case stripe.ErrorTypeInvalidRequest, stripe.ErrorTypeIdempotency:
		msg := stripeErr.Msg
		if msg == "" {
			msg = "payment request rejected"
		}
		return invalidRequest(op, msg)
	default:
		return providerUnavailable(op, err)
	}
}
