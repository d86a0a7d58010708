package service

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountDigits is the longest integer part that can still fit in an int64.
const maxAmountDigits = 19

// amountPattern accepts plain digits or digits grouped in thousands, with an
// optional fraction and leading minus. Exponent notation is not accepted.
var amountPattern = regexp.MustCompile(`^-?(\d+|\d{1,3}(,\d{3})+)(\.\d+)?$`)

// ParseAmount parses a non-negative whole amount in minor currency units.
// Surrounding spaces and commas at thousands positions are accepted ("1,200"
// is 1200, "1,2,3" is not). A zero fraction is accepted ("300.00").
// Other fractions, negative values, exponents and anything non-numeric are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid("amount is required")
	}
	if !amountPattern.MatchString(s) {
		return 0, invalid("amount %q is not a number", s)
	}
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, invalid("amount %q is not a number", s)
	}
	// Check the magnitude before BigInt rescales the coefficient.
	if d.NumDigits()+int(d.Exponent()) > maxAmountDigits {
		return 0, invalid("amount is too large")
	}
	if d.IsNegative() {
		return 0, invalid("amount must not be negative")
	}
	if !d.IsInteger() {
		return 0, invalid("amount must be a whole number")
	}
	if !d.BigInt().IsInt64() {
		return 0, invalid("amount is too large")
	}
	return d.IntPart(), nil
}
