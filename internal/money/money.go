package money

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// NativeDecimals is the base-unit scale of the chain's native asset (wei).
	NativeDecimals = 18
	// USDCDecimals is the base-unit scale of the settlement stablecoin.
	USDCDecimals = 6

	// NativeDisplayDigits is the fractional precision shown for native amounts.
	NativeDisplayDigits = 6
	// USDDisplayDigits is the fractional precision shown for currency amounts.
	USDDisplayDigits = 2
)

// FromRaw converts a raw smallest-unit amount into its decimal value by
// scaling down by 10^decimals. The scaling is exact for any integer size;
// the raw amount never passes through binary floating point.
func FromRaw(raw *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -decimals)
}

// ToRaw converts a decimal amount into the asset's smallest unit. Amounts
// carrying more fractional digits than the asset supports are rejected
// rather than silently truncated.
func ToRaw(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	shifted := amount.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %s exceeds %d decimal places", amount, decimals)
	}
	return shifted.BigInt(), nil
}

// Format renders a decimal with a fixed number of fractional digits,
// rounding halves away from zero.
func Format(amount decimal.Decimal, digits int32) string {
	return amount.StringFixed(digits)
}

// ParsePositive parses a user-supplied amount and rejects zero, negative,
// or unparseable values.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount: %w", err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount must be positive")
	}
	return d, nil
}
