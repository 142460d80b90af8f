package utils

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

var bpsDenominator = sdkmath.NewInt(10_000)

// ScaleDecimals re-expresses amount from one decimal precision to another, truncating.
func ScaleDecimals(amount sdkmath.Int, from, to uint32) sdkmath.Int {
	switch {
	case from == to:
		return amount
	case from < to:
		return amount.Mul(sdkmath.NewIntWithDecimal(1, int(to-from)))
	default:
		return amount.Quo(sdkmath.NewIntWithDecimal(1, int(from-to)))
	}
}

// ScaleDecimalsUp is ScaleDecimals rounding up instead of truncating.
func ScaleDecimalsUp(amount sdkmath.Int, from, to uint32) sdkmath.Int {
	if from <= to {
		return ScaleDecimals(amount, from, to)
	}
	factor := sdkmath.NewIntWithDecimal(1, int(from-to))
	quo := amount.Quo(factor)
	if !amount.Mod(factor).IsZero() {
		quo = quo.AddRaw(1)
	}
	return quo
}

// ApplyBps returns amount * bps / 10_000, truncated.
func ApplyBps(amount sdkmath.Int, bps uint64) sdkmath.Int {
	return amount.Mul(sdkmath.NewIntFromUint64(bps)).Quo(bpsDenominator)
}

// MinusBps returns amount * (10_000 - bps) / 10_000, truncated. bps above 10_000 is an error.
func MinusBps(amount sdkmath.Int, bps uint64) (sdkmath.Int, error) {
	if bps > 10_000 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d basis points", ErrInvalidPrecision, bps)
	}
	return ApplyBps(amount, 10_000-bps), nil
}

// GrossUpBps returns the smallest x with x * (10_000 - bps) / 10_000 >= amount.
func GrossUpBps(amount sdkmath.Int, bps uint64) sdkmath.Int {
	if bps >= 10_000 {
		return amount
	}
	denominator := sdkmath.NewIntFromUint64(10_000 - bps)
	numerator := amount.Mul(bpsDenominator)
	quo := numerator.Quo(denominator)
	if !numerator.Mod(denominator).IsZero() {
		quo = quo.AddRaw(1)
	}
	return quo
}

// MinInt returns the smaller of a and b.
func MinInt(a, b sdkmath.Int) sdkmath.Int {
	if a.LT(b) {
		return a
	}
	return b
}

// SubFloor returns a - b, or zero when b >= a.
func SubFloor(a, b sdkmath.Int) sdkmath.Int {
	if b.GTE(a) {
		return sdkmath.ZeroInt()
	}
	return a.Sub(b)
}
