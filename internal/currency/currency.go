// Package currency implements the fixed-point monetary amount used by the
// ledger. Values carry exactly four decimal digits and are stored as an
// unsigned count of the smallest unit, so there is no rounding anywhere in
// the arithmetic. Never float64 for money.
package currency

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Digits is the number of fractional decimal digits carried by a Value.
	Digits = 4

	// Scale is the number of smallest units in one whole unit (10^Digits).
	Scale uint64 = 10_000
)

var (
	// ErrOverflow is returned when a computation leaves the representable range.
	ErrOverflow = errors.New("currency: overflow")

	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("currency: underflow")

	// ErrDecimal is returned when a fractional part does not fit the scale.
	ErrDecimal = errors.New("currency: fractional part exceeds scale")

	// ErrInvalidRepresentation is returned for text that is not a decimal amount.
	ErrInvalidRepresentation = errors.New("currency: invalid representation")
)

// Value is an exact non-negative amount with four decimal digits.
// The zero value is 0.0000.
type Value struct {
	units uint64
}

// Zero is the 0.0000 amount.
var Zero = Value{}

// Max is the largest representable amount.
var Max = Value{units: math.MaxUint64}

// FromParts builds a Value from a whole part and a fractional part expressed
// in smallest units, so FromParts(2, 1) is 2.0001.
func FromParts(whole, fraction uint64) (Value, error) {
	hi, lo := bits.Mul64(whole, Scale)
	if hi != 0 {
		return Value{}, ErrOverflow
	}
	if fraction >= Scale {
		return Value{}, ErrDecimal
	}
	// The top multiple of Scale leaves less than Scale of headroom.
	sum, carry := bits.Add64(lo, fraction, 0)
	if carry != 0 {
		return Value{}, ErrOverflow
	}
	return Value{units: sum}, nil
}

// FromUnits builds a Value from a raw count of smallest units.
func FromUnits(units uint64) Value {
	return Value{units: units}
}

// Parse reads "<digits>[.<digits>]". Fractional digits past the fourth are
// truncated; missing ones are zero.
func Parse(s string) (Value, error) {
	whole, frac, hasPoint := strings.Cut(s, ".")
	if whole == "" || (hasPoint && strings.Contains(frac, ".")) {
		return Value{}, invalid(s)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return Value{}, invalid(s)
	}

	units, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return Value{}, invalid(s)
	}

	if len(frac) > Digits {
		frac = frac[:Digits]
	}
	var fraction uint64
	for i := 0; i < Digits; i++ {
		fraction *= 10
		if i < len(frac) {
			fraction += uint64(frac[i] - '0')
		}
	}

	v, err := FromParts(units, fraction)
	if err != nil {
		return Value{}, invalid(s)
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func invalid(s string) error {
	return fmt.Errorf("%w: %q", ErrInvalidRepresentation, s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the canonical form with exactly four fractional digits.
func (v Value) String() string {
	return fmt.Sprintf("%d.%04d", v.units/Scale, v.units%Scale)
}

// Units returns the raw count of smallest units.
func (v Value) Units() uint64 { return v.units }

// IsZero reports whether v is 0.0000.
func (v Value) IsZero() bool { return v.units == 0 }

// Cmp returns -1, 0 or +1 as v is less than, equal to or greater than o.
func (v Value) Cmp(o Value) int {
	switch {
	case v.units < o.units:
		return -1
	case v.units > o.units:
		return 1
	}
	return 0
}

// CheckedAdd returns a+b, or false if the sum overflows.
func CheckedAdd(a, b Value) (Value, bool) {
	sum, carry := bits.Add64(a.units, b.units, 0)
	if carry != 0 {
		return Value{}, false
	}
	return Value{units: sum}, true
}

// CheckedSub returns a-b, or false if the difference would be negative.
func CheckedSub(a, b Value) (Value, bool) {
	diff, borrow := bits.Sub64(a.units, b.units, 0)
	if borrow != 0 {
		return Value{}, false
	}
	return Value{units: diff}, true
}

// Add is CheckedAdd reporting ErrOverflow.
func Add(a, b Value) (Value, error) {
	v, ok := CheckedAdd(a, b)
	if !ok {
		return Value{}, ErrOverflow
	}
	return v, nil
}

// Sub is CheckedSub reporting ErrUnderflow, which callers can tell apart from
// ErrOverflow.
func Sub(a, b Value) (Value, error) {
	v, ok := CheckedSub(a, b)
	if !ok {
		return Value{}, ErrUnderflow
	}
	return v, nil
}

// Decimal returns the exact decimal view of v.
func (v Value) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v.units), -Digits)
}

// FromDecimal converts d exactly. Negative amounts, more than four significant
// fractional digits and out-of-range values are rejected.
func FromDecimal(d decimal.Decimal) (Value, error) {
	if d.IsNegative() {
		return Value{}, fmt.Errorf("%w: negative amount %s", ErrInvalidRepresentation, d)
	}
	scaled := d.Shift(Digits)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Value{}, ErrDecimal
	}
	n := scaled.BigInt()
	if !n.IsUint64() {
		return Value{}, ErrOverflow
	}
	return Value{units: n.Uint64()}, nil
}

// MarshalText encodes v in canonical form, so JSON carries "1.5000".
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes the Parse format.
func (v *Value) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
