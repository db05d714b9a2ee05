package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	dropsPerXRP = decimal.NewFromInt(DropsPerXRP)
	// 100 billion XRP is the total supply.
	maxDrops = decimal.NewFromInt(100_000_000_000).Mul(dropsPerXRP)
)

// ParseXRP parses a user supplied XRP amount such as "10.5".
func ParseXRP(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ToDrops converts XRP to drops without rounding.
func ToDrops(xrp decimal.Decimal) (int64, error) {
	if !xrp.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	drops := xrp.Mul(dropsPerXRP)
	if !drops.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than 6 decimal places", ErrInvalidAmount, xrp.String())
	}
	if drops.GreaterThan(maxDrops) {
		return 0, fmt.Errorf("%w: %s exceeds total supply", ErrInvalidAmount, xrp.String())
	}
	return drops.IntPart(), nil
}

// XRP returns the exact XRP value of drops.
func XRP(drops int64) decimal.Decimal {
	return decimal.New(drops, -6)
}

// FormatXRP renders drops as a fixed-point XRP string, e.g. 10500000 -> "10.5".
func FormatXRP(drops int64) string {
	return XRP(drops).String()
}
