package utils

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrAmountNil        = errors.New("amount is nil")
	ErrAmountNegative   = errors.New("amount is negative")
	ErrNotFinite        = errors.New("value is not finite")
)

// maxDecimals bounds token precision to what LegacyDec can represent exactly.
const maxDecimals = 18

// ToWholeUnits converts a base-unit amount into whole tokens for gauges and reports.
func ToWholeUnits(amount sdkmath.Int, decimals uint32) (float64, error) {
	if decimals > maxDecimals {
		return 0, fmt.Errorf("%w: %d decimals", ErrInvalidPrecision, decimals)
	}
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	if amount.IsNegative() {
		return 0, ErrAmountNegative
	}

	value, err := sdkmath.LegacyNewDecFromIntWithPrec(amount, int64(decimals)).Float64()
	if err != nil {
		return 0, fmt.Errorf("failed to convert %s to float: %w", amount, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %f", ErrNotFinite, value)
	}
	return value, nil
}

// FromWholeUnits converts whole tokens into base units, truncating anything past decimals.
func FromWholeUnits(amount float64, decimals uint32) (sdkmath.Int, error) {
	if decimals > maxDecimals {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d decimals", ErrInvalidPrecision, decimals)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %f", ErrNotFinite, amount)
	}
	if amount < 0 {
		return sdkmath.ZeroInt(), ErrAmountNegative
	}

	// Format at fixed precision so the decimal parse sees no binary float noise.
	dec, err := sdkmath.LegacyNewDecFromStr(fmt.Sprintf("%.*f", int(decimals), amount))
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to parse %f: %w", amount, err)
	}
	return dec.MulInt(sdkmath.NewIntWithDecimal(1, int(decimals))).TruncateInt(), nil
}

// FormatUnits renders a base-unit amount as a decimal string in whole tokens.
func FormatUnits(amount sdkmath.Int, decimals uint32) string {
	if amount.IsNil() {
		return "0"
	}
	return sdkmath.LegacyNewDecFromIntWithPrec(amount, int64(decimals)).String()
}
