// Package pricing computes quote totals. Everything here is pure and works on
// fixed-point decimals; amounts are rounded half-up to the cent once, when a
// component is finalised.
package pricing

import (
	"fmt"

	"eventsite_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

// DepositType selects how the stored deposit is derived.
type DepositType string

const (
	DepositNone       DepositType = "NONE"
	DepositPercentage DepositType = "PERCENTAGE"
	DepositFixed      DepositType = "FIXED"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// LineItem is a single priced row of a quote.
type LineItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Deposit is the deposit specification stored on a quote. Value is a
// percentage for DepositPercentage and a currency amount for DepositFixed.
type Deposit struct {
	Type  DepositType
	Value decimal.Decimal
}

// Input is everything the engine needs to price a quote.
type Input struct {
	Items           []LineItem
	TaxRatePct      decimal.Decimal
	GratuityRatePct decimal.Decimal
	Deposit         Deposit
}

// Result holds the priced quote. LineTotals follows the order of Input.Items.
type Result struct {
	LineTotals    []decimal.Decimal
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Gratuity      decimal.Decimal
	Total         decimal.Decimal
	DepositAmount decimal.Decimal
	BalanceDue    decimal.Decimal
}

// HasDeposit reports whether a non-zero deposit applies.
func (r Result) HasDeposit() bool {
	return r.DepositAmount.IsPositive()
}

// Calculate prices a quote. It validates the whole input before computing
// anything and never returns a partial result.
func Calculate(in Input) (Result, error) {
	if err := validate(in); err != nil {
		return Result{}, err
	}

	lineTotals := make([]decimal.Decimal, len(in.Items))
	exactSubtotal := zero
	for i, item := range in.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		exactSubtotal = exactSubtotal.Add(line)
		lineTotals[i] = RoundCurrency(line)
	}

	subtotal := RoundCurrency(exactSubtotal)
	tax := RoundCurrency(exactSubtotal.Mul(in.TaxRatePct).Div(hundred))
	gratuity := RoundCurrency(exactSubtotal.Mul(in.GratuityRatePct).Div(hundred))
	// components are already on the cent; the sum needs no further rounding
	total := subtotal.Add(tax).Add(gratuity)

	deposit, err := QuoteDeposit(total, in.Deposit)
	if err != nil {
		return Result{}, err
	}

	return Result{
		LineTotals:    lineTotals,
		Subtotal:      subtotal,
		Tax:           tax,
		Gratuity:      gratuity,
		Total:         total,
		DepositAmount: deposit,
		BalanceDue:    total.Sub(deposit),
	}, nil
}

// QuoteDeposit is the deposit stored on the quote itself: a straight
// percentage of total or a fixed amount, with no processor minimum.
// Checkout uses CheckoutDepositMinorUnits instead.
func QuoteDeposit(total decimal.Decimal, d Deposit) (decimal.Decimal, error) {
	switch d.Type {
	case "", DepositNone:
		return zero, nil
	case DepositPercentage:
		if d.Value.IsNegative() || d.Value.GreaterThan(hundred) {
			return zero, invalid("depositValue", "deposit percentage must be between 0 and 100")
		}
		return RoundCurrency(total.Mul(d.Value).Div(hundred)), nil
	case DepositFixed:
		if d.Value.IsNegative() {
			return zero, invalid("depositValue", "deposit amount cannot be negative")
		}
		amount := RoundCurrency(d.Value)
		if amount.GreaterThan(total) {
			return zero, invalid("depositValue", "deposit amount cannot exceed the quote total")
		}
		return amount, nil
	default:
		return zero, invalid("depositType", fmt.Sprintf("unknown deposit type %q", d.Type))
	}
}

// RoundCurrency rounds half-up to two fractional digits.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func validate(in Input) error {
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return invalid(fmt.Sprintf("items[%d].quantity", i), "quantity must be a positive integer")
		}
		if item.UnitPrice.IsNegative() {
			return invalid(fmt.Sprintf("items[%d].unitPrice", i), "unit price cannot be negative")
		}
	}
	if in.TaxRatePct.IsNegative() {
		return invalid("taxRatePct", "tax rate cannot be negative")
	}
	if in.GratuityRatePct.IsNegative() {
		return invalid("gratuityRatePct", "gratuity rate cannot be negative")
	}
	return nil
}

func invalid(field, message string) error {
	return apperr.Validation(message).WithOp("pricing").WithDetails(map[string]string{"field": field})
}
