// Package pdf renders priced quotes into PDF documents. The full layout is
// built with maroto; a single-page gofpdf rendering is used when the full
// layout cannot be produced.
package pdf

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRenderFailure means neither the full nor the fallback document could be produced.
var ErrRenderFailure = errors.New("quote document could not be rendered")

// Business is the identity printed in the header and footer.
type Business struct {
	Name         string
	AddressLines []string
	Phone        string
	Email        string
	Website      string
}

// LineItem is a priced row of the item table.
type LineItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// QuoteDocumentData holds everything printed on a quote document.
type QuoteDocumentData struct {
	Business Business

	QuoteNumber string
	Status      string
	IssuedAt    time.Time
	ValidUntil  *time.Time

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	EventType  string
	EventDate  *time.Time
	GuestCount int
	Venue      string

	Items           []LineItem
	Subtotal        decimal.Decimal
	TaxRatePct      decimal.Decimal
	Tax             decimal.Decimal
	GratuityRatePct decimal.Decimal
	Gratuity        decimal.Decimal
	Total           decimal.Decimal
	DepositAmount   decimal.Decimal
	BalanceDue      decimal.Decimal

	PaymentLink string
	Notes       string
	Terms       string

	// set by the renderer after the logo check
	logo *logoImage
}

// HasDeposit reports whether the deposit block should be printed.
func (d QuoteDocumentData) HasDeposit() bool {
	return d.DepositAmount.IsPositive()
}

// Document is a rendered quote.
type Document struct {
	Bytes    []byte
	Filename string
	// Fallback is true when the reduced single-page rendering was used.
	Fallback bool
}

// Filename derives the download name from the quote number.
func Filename(quoteNumber string) string {
	return "quote-" + quoteNumber + ".pdf"
}
