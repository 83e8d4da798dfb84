package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMode selects how much of the quote a checkout collects.
type PaymentMode string

const (
	PaymentModeDeposit PaymentMode = "deposit"
	PaymentModeFull    PaymentMode = "full"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// SendQuoteRequest is the request body for sending a quote to its customer.
type SendQuoteRequest struct {
	PaymentMode PaymentMode `json:"paymentMode" validate:"omitempty,oneof=deposit full"`
}

// UpdateQuoteStatusRequest is the request body for a manual status change.
type UpdateQuoteStatusRequest struct {
	Status QuoteStatus `json:"status" validate:"required,oneof=ACCEPTED REJECTED EXPIRED"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// QuoteTotals is the priced breakdown returned to callers.
type QuoteTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Gratuity      decimal.Decimal `json:"gratuity"`
	Total         decimal.Decimal `json:"total"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
	BalanceDue    decimal.Decimal `json:"balanceDue"`
}

// Degradation names for SendQuoteResponse.Degradations.
const (
	DegradationPaymentLink = "payment_link_unavailable"
	DegradationPDF         = "pdf_unavailable"
	DegradationPDFFallback = "pdf_fallback_used"
	DegradationPDFUpload   = "pdf_upload_failed"
	// The email went out but the quote could not be moved to SENT.
	DegradationStatusNotPersisted = "status_not_persisted"
)

// SendQuoteResponse reports the outcome of a send. EmailSent=false means the
// quote was not advanced; Degraded means it was sent with something missing.
type SendQuoteResponse struct {
	QuoteID            uuid.UUID   `json:"quoteId"`
	QuoteNumber        string      `json:"quoteNumber"`
	Status             QuoteStatus `json:"status"`
	CheckoutURL        string      `json:"checkoutUrl"`
	SessionID          string      `json:"sessionId,omitempty"`
	EmailSent          bool        `json:"emailSent"`
	PDFGenerated       bool        `json:"pdfGenerated"`
	PaymentLinkCreated bool        `json:"paymentLinkCreated"`
	ProviderUsed       string      `json:"providerUsed,omitempty"`
	Degraded           bool        `json:"degraded"`
	Degradations       []string    `json:"degradations,omitempty"`
	Totals             QuoteTotals `json:"totals"`
	SentAt             *time.Time  `json:"sentAt,omitempty"`
}

// QuoteStatusResponse is returned after a status transition.
type QuoteStatusResponse struct {
	ID     uuid.UUID   `json:"id"`
	Status QuoteStatus `json:"status"`
}

// NotificationAttemptResponse is one row of a quote's email audit trail.
type NotificationAttemptResponse struct {
	Recipient          string    `json:"recipient"`
	Provider           string    `json:"provider"`
	Attempt            int       `json:"attempt"`
	Status             string    `json:"status"`
	Error              *string   `json:"error,omitempty"`
	PDFGenerated       bool      `json:"pdfGenerated"`
	PaymentLinkCreated bool      `json:"paymentLinkCreated"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ExpireResult summarises an expiry sweep.
type ExpireResult struct {
	Expired int       `json:"expired"`
	AsOf    time.Time `json:"asOf"`
}
