// Package core provides the expense record model and the pure routines that
// filter, aggregate and summarize records.
//
// This file contains amount coercion: record stores may deliver amounts as
// numbers or as text, and everything past the store boundary works with
// decimal.Decimal so that sums never drift.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// CoerceAmount converts an untyped amount into a non-negative decimal.
//
// Accepted inputs are decimals, Go integer and float kinds, json.Number,
// []byte and strings. Strings may carry a currency marker and thousands
// separators:
//
//	CoerceAmount("42.50")     -> 42.5, nil
//	CoerceAmount("₹ 1,250")   -> 1250, nil
//	CoerceAmount(float64(3))  -> 3, nil
//	CoerceAmount("abc")       -> 0, ErrInvalidAmount
//	CoerceAmount("-5")        -> 0, ErrNegativeAmount
func CoerceAmount(v any) (decimal.Decimal, error) {
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, ErrInvalidAmount
		}
		return *x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		return parseAmountText(x.String())
	case []byte:
		return parseAmountText(string(x))
	case string:
		return parseAmountText(x)
	case nil:
		return decimal.Zero, ErrInvalidAmount
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromFloat(f), nil
}

func parseAmountText(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, marker := range []string{"₹", "Rs.", "Rs", "INR"} {
		s = strings.TrimPrefix(s, marker)
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatRupees formats an amount for display, e.g. "₹175.00".
func FormatRupees(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}
