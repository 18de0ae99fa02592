package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in integer minor units. All stored amounts and
// comparisons use this type; decimal text appears only at the input and
// display boundaries.
type Cents int64

// MaxItemCents caps a single line item at $100,000.00, matching the form
// validation ceiling.
const MaxItemCents Cents = 10_000_000

var (
	ErrInvalidAmount    = errors.New("amount is not a valid decimal number")
	ErrAmountOutOfRange = fmt.Errorf("amount must be between 0.00 and %s", MaxItemCents)
)

// Parse converts user-entered decimal text (e.g. "50.00") into cents,
// rounding to the nearest cent. Values outside [0, MaxItemCents] are rejected.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	c := Cents(cents.IntPart())
	if c < 0 || c > MaxItemCents {
		return 0, ErrAmountOutOfRange
	}
	return c, nil
}

// String renders the amount as decimal text with two fraction digits.
// Output only; never parsed back for arithmetic.
func (c Cents) String() string {
	return decimal.New(int64(c), -2).StringFixed(2)
}

// Abs returns the magnitude of the amount.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}
