package pricing

import "github.com/shopspring/decimal"

// DefaultCheckoutMinimumMinor is the processor-side deposit floor ($50.00).
const DefaultCheckoutMinimumMinor int64 = 5000

// CheckoutDepositMinorUnits is the deposit collected by a deposit-mode
// checkout: max(floorMinor, round(totalMinor × pct)), never more than
// totalMinor. pct is a fraction (0.2 for 20%).
func CheckoutDepositMinorUnits(totalMinor int64, pct decimal.Decimal, floorMinor int64) int64 {
	if totalMinor <= 0 {
		return 0
	}
	return clampDeposit(decimal.NewFromInt(totalMinor).Mul(pct).Round(0).IntPart(), totalMinor, floorMinor)
}

// CheckoutFixedDepositMinorUnits is the deposit collected for a quote that
// carries a fixed deposit: max(floorMinor, depositMinor), never more than
// totalMinor.
func CheckoutFixedDepositMinorUnits(totalMinor, depositMinor, floorMinor int64) int64 {
	if totalMinor <= 0 {
		return 0
	}
	return clampDeposit(depositMinor, totalMinor, floorMinor)
}

func clampDeposit(amount, totalMinor, floorMinor int64) int64 {
	if amount < floorMinor {
		amount = floorMinor
	}
	if amount > totalMinor {
		amount = totalMinor
	}
	return amount
}

// ToMinorUnits converts a currency amount to integer cents, rounding half-up.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts integer cents to a currency amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
