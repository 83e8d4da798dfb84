package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuoteDeposit_PercentageHasNoFloor(t *testing.T) {
	deposit, err := QuoteDeposit(dec("100.00"), Deposit{Type: DepositPercentage, Value: dec("20")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deposit.Equal(dec("20.00")) {
		t.Fatalf("expected stored deposit 20.00 without floor, got %s", deposit)
	}
}

func TestQuoteDeposit_FixedValue(t *testing.T) {
	result, err := Calculate(Input{
		Items:   []LineItem{{Quantity: 1, UnitPrice: dec("800")}},
		Deposit: Deposit{Type: DepositFixed, Value: dec("250")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DepositAmount.Equal(dec("250")) {
		t.Fatalf("expected deposit 250, got %s", result.DepositAmount)
	}
	if !result.BalanceDue.Equal(dec("550")) {
		t.Fatalf("expected balance 550, got %s", result.BalanceDue)
	}
}

func TestQuoteDeposit_PercentageBalance(t *testing.T) {
	result, err := Calculate(Input{
		Items:           []LineItem{{Quantity: 1, UnitPrice: dec("500")}},
		TaxRatePct:      dec("8.5"),
		GratuityRatePct: dec("18"),
		Deposit:         Deposit{Type: DepositPercentage, Value: dec("25")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 632.50 × 25% = 158.125 → 158.13
	if !result.DepositAmount.Equal(dec("158.13")) {
		t.Fatalf("expected deposit 158.13, got %s", result.DepositAmount)
	}
	if !result.BalanceDue.Equal(dec("474.37")) {
		t.Fatalf("expected balance 474.37, got %s", result.BalanceDue)
	}
}

func TestCheckoutDepositMinorUnits_FloorApplies(t *testing.T) {
	pct := dec("0.2")

	if got := CheckoutDepositMinorUnits(10000, pct, DefaultCheckoutMinimumMinor); got != 5000 {
		t.Fatalf("expected $100 quote to collect 5000, got %d", got)
	}
	if got := CheckoutDepositMinorUnits(100000, pct, DefaultCheckoutMinimumMinor); got != 20000 {
		t.Fatalf("expected $1000 quote to collect 20000, got %d", got)
	}
	if got := CheckoutDepositMinorUnits(63250, pct, DefaultCheckoutMinimumMinor); got != 12650 {
		t.Fatalf("expected $632.50 quote to collect 12650, got %d", got)
	}
}

func TestCheckoutDepositMinorUnits_ConfigurableFloorAndCap(t *testing.T) {
	if got := CheckoutDepositMinorUnits(10000, dec("0.2"), 1000); got != 2000 {
		t.Fatalf("expected lower floor to be inactive, got %d", got)
	}
	if got := CheckoutDepositMinorUnits(3000, dec("0.2"), DefaultCheckoutMinimumMinor); got != 3000 {
		t.Fatalf("expected deposit capped at total 3000, got %d", got)
	}
	if got := CheckoutDepositMinorUnits(0, dec("0.2"), DefaultCheckoutMinimumMinor); got != 0 {
		t.Fatalf("expected zero for zero total, got %d", got)
	}
	// 12345 × 0.5 = 6172.5 → 6173
	if got := CheckoutDepositMinorUnits(12345, dec("0.5"), 0); got != 6173 {
		t.Fatalf("expected half-up rounding to 6173, got %d", got)
	}
}

func TestCheckoutFixedDepositMinorUnits(t *testing.T) {
	if got := CheckoutFixedDepositMinorUnits(100000, 30000, DefaultCheckoutMinimumMinor); got != 30000 {
		t.Fatalf("expected fixed deposit of 30000, got %d", got)
	}
	if got := CheckoutFixedDepositMinorUnits(100000, 1000, DefaultCheckoutMinimumMinor); got != 5000 {
		t.Fatalf("expected floor of 5000, got %d", got)
	}
	if got := CheckoutFixedDepositMinorUnits(4000, 30000, DefaultCheckoutMinimumMinor); got != 4000 {
		t.Fatalf("expected cap at total 4000, got %d", got)
	}
	if got := CheckoutFixedDepositMinorUnits(0, 30000, DefaultCheckoutMinimumMinor); got != 0 {
		t.Fatalf("expected zero for zero total, got %d", got)
	}
}

func TestMinorUnitConversion(t *testing.T) {
	if got := ToMinorUnits(dec("632.50")); got != 63250 {
		t.Fatalf("expected 63250, got %d", got)
	}
	if got := ToMinorUnits(dec("0.005")); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := FromMinorUnits(12650); !got.Equal(decimal.RequireFromString("126.50")) {
		t.Fatalf("expected 126.50, got %s", got)
	}
}
