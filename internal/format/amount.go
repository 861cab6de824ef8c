package format

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// maxIntegerDigits bounds the integer part of a displayable amount. It
// covers the whole float64 range.
const maxIntegerDigits = 400

// ParseAmount reads a monetary amount. It accepts Go integer and float
// kinds, decimal values and numeric strings ("12", "-3.5", "+1e3").
//
// It reports false for nil, nil pointers, NaN, infinities, blank or
// non-numeric strings, amounts beyond maxIntegerDigits and any other type.
func ParseAmount(amount any) (decimal.Decimal, bool) {
	d, ok := parseAmount(amount)
	if !ok {
		return decimal.Zero, false
	}
	return Bounded(d)
}

// Bounded reports whether d is small enough to print in full. Magnitudes
// below 0.01 collapse to zero so rounding never rescales a huge negative
// exponent.
func Bounded(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsZero() {
		return decimal.Zero, true
	}
	intDigits := int64(d.NumDigits()) + int64(d.Exponent())
	switch {
	case intDigits > maxIntegerDigits:
		return decimal.Zero, false
	case intDigits < -1:
		return decimal.Zero, true
	}
	return d, true
}

func parseAmount(amount any) (decimal.Decimal, bool) {
	switch v := amount.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case decimal.NullDecimal:
		return v.Decimal, v.Valid
	case string:
		return parseAmountText(v)
	case *string:
		if v == nil {
			return decimal.Zero, false
		}
		return parseAmountText(*v)
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int8:
		return decimal.NewFromInt(int64(v)), true
	case int16:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint:
		return fromUint(uint64(v)), true
	case uint8:
		return fromUint(uint64(v)), true
	case uint16:
		return fromUint(uint64(v)), true
	case uint32:
		return fromUint(uint64(v)), true
	case uint64:
		return fromUint(v), true
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case *float64:
		if v == nil {
			return decimal.Zero, false
		}
		return parseAmount(*v)
	case *int64:
		if v == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(*v), true
	default:
		return decimal.Zero, false
	}
}

func fromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func parseAmountText(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
