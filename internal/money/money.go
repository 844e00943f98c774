// Package money converts between user input, fixed-point decimals and the
// integer cents stored in the database.
//
// Amounts always carry exactly two fractional digits. Floating point is never
// used on the way in or out.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

// Places is the number of fractional digits kept for every amount.
const Places = 2

// Zero is 0.00.
var Zero = decimal.New(0, -Places)

// Max is the largest amount accepted, 9999999999.99.
var Max = decimal.New(999_999_999_999, -Places)

// Parse reads a non-negative amount such as "12.5", "12,50" or " 3 " and
// rounds it half-up to two decimals. Malformed or negative input and
// amounts above Max are reported as models.ErrValidation.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: amount is empty", models.ErrValidation)
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", models.ErrValidation, s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: amount must be non-negative", models.ErrValidation)
	}
	d = Normalize(d)
	if d.GreaterThan(Max) {
		return decimal.Decimal{}, fmt.Errorf("%w: amount must not exceed %s", models.ErrValidation, Format(Max))
	}
	return d, nil
}

// Normalize rounds d to two decimals and fixes the exponent so that values
// compare and print consistently. It never overflows.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return decimal.NewFromBigInt(d.Round(Places).Shift(Places).BigInt(), -Places)
}

// ToCents returns d as a whole number of cents. Amounts whose magnitude
// exceeds Max are reported as models.ErrValidation.
func ToCents(d decimal.Decimal) (int64, error) {
	d = Normalize(d)
	if d.Abs().GreaterThan(Max) {
		return 0, fmt.Errorf("%w: amount %s is out of range", models.ErrValidation, Format(d))
	}
	return d.Shift(Places).IntPart(), nil
}

// FromCents builds an amount from a whole number of cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// Format renders d with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Sum adds amounts exactly.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Normalize(total)
}
