package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCoerceAmount(t *testing.T) {
	cases := []struct {
		in  any
		out string
		ok  bool
	}{
		{"42.50", "42.5", true},
		{" 7 ", "7", true},
		{"₹1,250.75", "1250.75", true},
		{"Rs 300", "300", true},
		{float64(19.99), "19.99", true},
		{int(5), "5", true},
		{int64(0), "0", true},
		{json.Number("12.3"), "12.3", true},
		{[]byte("8.25"), "8.25", true},
		{decimal.RequireFromString("3.10"), "3.1", true},
		{"not-a-number", "0", false},
		{"", "0", false},
		{nil, "0", false},
		{"-5", "0", false},
		{math.NaN(), "0", false},
		{true, "0", false},
	}
	for _, tc := range cases {
		got, err := CoerceAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%v expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%v expected error, got %s", tc.in, got)
			}
			if !got.IsZero() {
				t.Fatalf("%v expected zero on error, got %s", tc.in, got)
			}
		}
	}
}

func TestCoerceAmountNegativeIsDistinct(t *testing.T) {
	_, err := CoerceAmount(-1.5)
	if !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	_, err = CoerceAmount("abc")
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestFormatRupees(t *testing.T) {
	if got := FormatRupees(decimal.RequireFromString("175")); got != "₹175.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatRupees(decimal.RequireFromString("42.5")); got != "₹42.50" {
		t.Fatalf("got %q", got)
	}
}

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"food", Food, true},
		{" Travel ", Travel, true},
		{"STATIONARY", Stationary, true},
		{"others", Others, true},
		{"rent", Others, false},
		{"", Others, false},
	}
	for _, tc := range cases {
		got, ok := ParseCategory(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%q: got (%s,%v) want (%s,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDraftValidate(t *testing.T) {
	good := Draft{Category: Food, Amount: decimal.NewFromInt(10), Note: "lunch"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Draft{
		{Category: "rent", Amount: decimal.NewFromInt(1)},
		{Category: Food, Amount: decimal.NewFromInt(-1)},
		{Category: Food, Amount: decimal.NewFromInt(1), Note: string(make([]byte, 201))},
	}
	for i, d := range bads {
		if err := d.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
