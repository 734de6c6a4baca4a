package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const minorUnitExp = 2

// MinorUnits converts an amount with at most two fractional digits to an
// integer count of minor units.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(minorUnitExp)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d fractional digits", ErrInvalidAmount, amount, minorUnitExp)
	}
	if !shifted.IsPositive() {
		return 0, fmt.Errorf("%w: %s is not positive", ErrInvalidAmount, amount)
	}
	return shifted.IntPart(), nil
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExp)
}

// ComputeFee rounds to the minor unit.
func ComputeFee(gross, rate decimal.Decimal) decimal.Decimal {
	return gross.Mul(rate).Round(minorUnitExp)
}
