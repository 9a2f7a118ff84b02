package utils

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "0.0 ZND"},
		{"0", "0.0 ZND"},
		{"0.", "0.0 ZND"},
		{"0.0", "0.0 ZND"},
		{"0.0000000", "0.0 ZND"},
		{"1787372.5556", "1787372.5556 ZND"},
		{"1.007025000", "1.007 ZND"},
		{"3.999", "3.999 ZND"},
		{"6.9999", "6.9999 ZND"},
		{"9.999999", "9.9999 ZND"},
		{"1.999999999999999999", "1.9999 ZND"},
		{"7", "7.0 ZND"},
		{".5", "0.5 ZND"},
		{"12.00010", "12.0001 ZND"},
		{"12.00001", "12.0 ZND"},
		{"abc", "0.0 ZND"},
		{"1.2.3", "0.0 ZND"},
		{"-4.5", "0.0 ZND"},
		{" 2.50 ", "2.5 ZND"},
	}

	for _, tt := range tests {
		result := FormatAmount(tt.input)
		if result != tt.expected {
			t.Errorf("FormatAmount(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func TestFormatAmountWithUnit(t *testing.T) {
	assert.Equal(t, "8.0 XYZ", FormatAmountWithUnit("8", "XYZ"))
	assert.Equal(t, "0.1234 ETH", FormatAmountWithUnit("0.12349", "ETH"))
}

func TestFormatAmount_NeverRounds(t *testing.T) {
	for _, in := range []string{"0.99999", "5.12345678", "1.00009", "2.99995"} {
		out := RawAmount(FormatAmount(in))
		_, frac, _ := strings.Cut(out, ".")
		_, inFrac, _ := strings.Cut(in, ".")
		assert.LessOrEqual(t, len(frac), 4)
		assert.True(t, strings.HasPrefix(inFrac, strings.TrimRight(frac, "0")), "%s -> %s", in, out)
	}
}

func TestFormatAmount_Idempotent(t *testing.T) {
	for _, in := range []string{"", "0", "1.007025000", "1787372.5556", "42", "0.00001", "9.999999"} {
		once := FormatAmount(in)
		assert.Equal(t, once, FormatAmount(RawAmount(once)), in)
	}
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		input    *big.Int
		decimals int
		expected string
	}{
		{big.NewInt(0), 18, "0.000000000000000000"},
		{big.NewInt(5), 18, "0.000000000000000005"},
		{new(big.Int).SetUint64(2500000000000000000), 18, "2.500000000000000000"},
		{big.NewInt(1234), 0, "1234"},
		{big.NewInt(1234), 2, "12.34"},
		{nil, 18, "0"},
	}

	for _, tt := range tests {
		result := FromBaseUnits(tt.input, tt.decimals)
		if result != tt.expected {
			t.Errorf("FromBaseUnits(%v, %d) = %q; want %q", tt.input, tt.decimals, result, tt.expected)
		}
	}
	assert.Equal(t, "2.5 ZND", FormatAmount(FromBaseUnits(new(big.Int).SetUint64(2500000000000000000), 18)))
}

func TestToBaseUnits(t *testing.T) {
	v, err := ToBaseUnits(1.5, 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = ToBaseUnits(0.1, 18)
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000", v.String())

	v, err = ToBaseUnits(3, 0)
	require.NoError(t, err)
	assert.Equal(t, "3", v.String())

	_, err = ToBaseUnits(-1, 18)
	assert.Error(t, err)
}

func TestParseBaseUnits(t *testing.T) {
	v, err := ParseBaseUnits("0.123456789", 6)
	require.NoError(t, err)
	assert.Equal(t, "123456", v.String())

	_, err = ParseBaseUnits("1e5", 18)
	assert.Error(t, err)
	_, err = ParseBaseUnits(".", 18)
	assert.Error(t, err)
}

func TestScaleToFloat(t *testing.T) {
	assert.Equal(t, 500.0, ScaleToFloat(big.NewInt(500000000), 6))
	assert.Equal(t, 0.0, ScaleToFloat(nil, 6))
}
