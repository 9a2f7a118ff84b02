package utils

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const (
	// DefaultUnit is the native unit suffix used when a network does not name its own.
	DefaultUnit = "ZND"
	// NativeDecimals is the number of base-unit digits in one native coin.
	NativeDecimals = 18

	maxFractionDigits = 4
)

// FormatAmount renders a decimal string for display with the default unit.
func FormatAmount(raw string) string {
	return FormatAmountWithUnit(raw, DefaultUnit)
}

// FormatAmountWithUnit truncates the fractional part of raw to four digits,
// strips trailing zeros and appends unit. The result always carries at least
// one digit on each side of the decimal point. Input that is not a plain
// non-negative decimal is rendered as zero.
func FormatAmountWithUnit(raw string, unit string) string {
	intPart, fracPart, ok := splitDecimal(strings.TrimSpace(raw))
	if !ok {
		intPart, fracPart = "0", ""
	}

	if len(fracPart) > maxFractionDigits {
		fracPart = fracPart[:maxFractionDigits]
	}
	fracPart = strings.TrimRight(fracPart, "0")

	if intPart == "" {
		intPart = "0"
	}
	if fracPart == "" {
		fracPart = "0"
	}
	return intPart + "." + fracPart + " " + unit
}

// RawAmount strips the unit suffix from a formatted amount.
func RawAmount(display string) string {
	if i := strings.IndexByte(display, ' '); i >= 0 {
		return display[:i]
	}
	return display
}

func splitDecimal(s string) (string, string, bool) {
	intPart, fracPart, _ := strings.Cut(s, ".")
	if !isDigits(intPart) || !isDigits(fracPart) {
		return "", "", false
	}
	return intPart, fracPart, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FromBaseUnits renders an integer amount of base units as an exact decimal
// string with the given number of decimals.
func FromBaseUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}
	neg := amount.Sign() < 0
	digits := new(big.Int).Abs(amount).String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	cut := len(digits) - decimals
	out := digits[:cut] + "." + digits[cut:]
	if neg {
		out = "-" + out
	}
	return out
}

// ToBaseUnits converts a display amount to integer base units. Digits beyond
// the unit's precision are truncated.
func ToBaseUnits(value float64, decimals int) (*big.Int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("invalid amount %v", value)
	}
	if value < 0 {
		return nil, fmt.Errorf("negative amount %v", value)
	}
	return ParseBaseUnits(strconv.FormatFloat(value, 'f', -1, 64), decimals)
}

// ParseBaseUnits converts a non-negative decimal string to integer base units.
func ParseBaseUnits(s string, decimals int) (*big.Int, error) {
	intPart, fracPart, ok := splitDecimal(strings.TrimSpace(s))
	if !ok || (intPart == "" && fracPart == "") {
		return nil, fmt.Errorf("invalid decimal %q", s)
	}
	if decimals < 0 {
		decimals = 0
	}
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", decimals-len(fracPart))

	out, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		// only reachable when both parts are empty after padding
		return new(big.Int), nil
	}
	return out, nil
}

// ScaleToFloat divides a raw integer amount by 10^decimals. The result is for
// display only.
func ScaleToFloat(amount *big.Int, decimals int) float64 {
	if amount == nil {
		return 0
	}
	f := new(big.Float).SetInt(amount)
	f.Quo(f, big.NewFloat(math.Pow10(decimals)))
	v, _ := f.Float64()
	return v
}
