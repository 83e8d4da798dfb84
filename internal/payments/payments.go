// Package payments issues provider-hosted checkout sessions for quotes.
//
// Every session is created under the idempotency key quote:{id}:{mode}, so a
// repeated call for the same quote and mode returns the session created the
// first time instead of a second one.
package payments

import (
	"context"
	"errors"
	"fmt"

	"eventsite_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

// Mode selects how much of the quote a checkout collects.
type Mode string

const (
	ModeDeposit Mode = "deposit"
	ModeFull    Mode = "full"
)

// IsValid reports whether m is a supported mode.
func (m Mode) IsValid() bool {
	return m == ModeDeposit || m == ModeFull
}

// PaymentStatusPaid is the provider payment status of a completed checkout.
const PaymentStatusPaid = "paid"

var (
	// ErrInvalidRequest marks requests the provider would reject. They are never retried.
	ErrInvalidRequest = errors.New("invalid payment request")
	// ErrProviderUnavailable marks network, auth and provider-side failures.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// IsInvalidRequest reports whether err is a non-retryable request error.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsProviderUnavailable reports whether err is a recoverable provider failure.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

func invalidRequest(op, message string) error {
	return apperr.Wrap(apperr.KindValidation, message, ErrInvalidRequest).WithOp(op)
}

func providerUnavailable(op string, cause error) error {
	return apperr.Unavailable("payment provider unavailable", fmt.Errorf("%w: %v", ErrProviderUnavailable, cause)).WithOp(op)
}

// LineItem is the single line shown on the hosted checkout page.
type LineItem struct {
	Name        string
	Description string
	AmountMinor int64
	Currency    string
}

// SessionParams is what a provider needs to create a checkout session.
type SessionParams struct {
	IdempotencyKey string
	LineItem       LineItem
	SuccessURL     string
	CancelURL      string
	CustomerEmail  string
	Metadata       map[string]string
}

// ProviderSession is a checkout session as the provider reports it.
type ProviderSession struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Metadata      map[string]string
}

// Provider is a hosted-checkout payment processor.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (ProviderSession, error)
	RetrieveSession(ctx context.Context, id string) (ProviderSession, error)
}

// CheckoutRequest asks for a checkout session for one quote.
type CheckoutRequest struct {
	QuoteID       string
	QuoteNumber   string
	CustomerEmail string
	Mode          Mode
	Title         string
	TotalMinor    int64
	// DepositPct is a fraction (0.2 for 20%). Zero means the configured default.
	DepositPct decimal.Decimal
	// DepositMinor is a fixed deposit in minor units. It wins over DepositPct.
	DepositMinor int64
}

// CheckoutSession is the issued session returned to callers.
type CheckoutSession struct {
	CheckoutURL     string          `json:"checkoutUrl"`
	SessionID       string          `json:"sessionId"`
	AmountMinor     int64           `json:"amountMinor"`
	AmountCollected decimal.Decimal `json:"amountCollected"`
	Mode            Mode            `json:"mode"`
}

// IdempotencyKey derives the provider idempotency key for a quote and mode.
func IdempotencyKey(quoteID string, mode Mode) string {
	return "quote:" + quoteID + ":" + string(mode)
}
