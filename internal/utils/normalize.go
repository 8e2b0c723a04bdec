package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// tokenDecimals is the fixed decimals assumption for all tracked tokens.
// Raw webhook amounts are integer strings in 10^18 units.
const tokenDecimals = 18

// NormalizeAddress canonicalizes an address-like string: trimmed, lowercased.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ParseRawAmount parses a raw integer-string amount as a signed decimal.
// Malformed input yields zero rather than an error; the mapper treats a
// zero amount as an absent side.
func ParseRawAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeAmount converts a raw integer-string amount to token units by
// dividing by 10^18.
func NormalizeAmount(raw string) decimal.Decimal {
	return ToTokenUnits(ParseRawAmount(raw))
}

// ToTokenUnits converts a raw-unit decimal to token units. Shift is exact;
// Div would round at its division precision.
func ToTokenUnits(raw decimal.Decimal) decimal.Decimal {
	return raw.Shift(-tokenDecimals)
}
