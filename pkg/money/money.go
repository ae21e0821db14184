// Package money converts between the integer minor units stored and compared
// by the auction engine and their decimal display form.
package money

import "github.com/shopspring/decimal"

// Exponent is the number of minor-unit digits in a display amount.
const Exponent = 2

// FromMinor converts an amount in minor units to a decimal.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -Exponent)
}

// Format renders an amount in minor units with exactly two decimal places.
func Format(minor int64) string {
	return FromMinor(minor).StringFixed(Exponent)
}
