package core

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAggregateLast7Scenario(t *testing.T) {
	day0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	day6 := day0.AddDate(0, 0, 6)
	now := time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC)
	records := []Record{
		rec("1", Food, 100, day0),
		rec("2", Travel, 50, day0),
		rec("3", Food, 25, day6),
	}

	filtered := FilterWindow(records, Last7, now, nil)
	if len(filtered) != 3 {
		t.Fatalf("expected all three records in window, got %d", len(filtered))
	}
	agg := Aggregate(filtered, DefaultPalette(), Light, nil)
	if !agg.Total.Equal(decimal.NewFromInt(175)) {
		t.Fatalf("total: got %s", agg.Total)
	}
	if len(agg.Breakdown) != 2 {
		t.Fatalf("breakdown len: %d", len(agg.Breakdown))
	}
	food, travel := agg.Breakdown[0], agg.Breakdown[1]
	if food.Category != Food || !food.Sum.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("first entry: %+v", food)
	}
	if travel.Category != Travel || !travel.Sum.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("second entry: %+v", travel)
	}
	if math.Round(food.Percentage*10)/10 != 71.4 || math.Round(travel.Percentage*10)/10 != 28.6 {
		t.Fatalf("percentages: %.3f %.3f", food.Percentage, travel.Percentage)
	}
	if food.Color != "#FF6B6B" || food.LegendFontColor != "#7F7F7F" || food.LegendFontSize != 12 {
		t.Fatalf("display attributes: %+v", food)
	}
}

func TestAggregateSumsMatchTotal(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []Record
	amounts := []string{"0.10", "0.20", "0.30", "19.99", "1234.56", "0.01", "7"}
	for i, a := range amounts {
		records = append(records, Record{
			ID:        string(rune('a' + i)),
			Category:  Categories()[i%len(Categories())],
			Amount:    decimal.RequireFromString(a),
			CreatedAt: at,
		})
	}
	agg := Aggregate(records, DefaultPalette(), Dark, nil)

	sum := decimal.Zero
	pct := 0.0
	for _, e := range agg.Breakdown {
		sum = sum.Add(e.Sum)
		pct += e.Percentage
		if e.LegendFontColor != "#D1D5DB" {
			t.Fatalf("dark legend color expected, got %s", e.LegendFontColor)
		}
	}
	if !sum.Equal(agg.Total) {
		t.Fatalf("sum of breakdown %s != total %s", sum, agg.Total)
	}
	if math.Abs(pct-100) > 1e-9 {
		t.Fatalf("percentages sum to %v", pct)
	}
}

func TestAggregateZeroTotal(t *testing.T) {
	agg := Aggregate(nil, DefaultPalette(), Light, nil)
	if !agg.Total.IsZero() || len(agg.Breakdown) != 0 {
		t.Fatalf("unexpected: %+v", agg)
	}
	zeros := []Record{rec("a", Food, 0, time.Now()), rec("b", Travel, 0, time.Now())}
	agg = Aggregate(zeros, DefaultPalette(), Light, nil)
	if !agg.Total.IsZero() || len(agg.Breakdown) != 0 {
		t.Fatalf("zero sums must not produce entries: %+v", agg)
	}
	if got := percentage(decimal.NewFromInt(5), decimal.Zero); got != 0 {
		t.Fatalf("percentage with zero total = %v", got)
	}
}

func TestAggregateTieOrderIsDeterministic(t *testing.T) {
	at := time.Now()
	records := []Record{
		rec("1", Others, 10, at),
		rec("2", Shopping, 10, at),
		rec("3", Food, 10, at),
		rec("4", Travel, 30, at),
	}
	first := Aggregate(records, DefaultPalette(), Light, nil)
	want := []Category{Travel, Food, Shopping, Others}
	for i, e := range first.Breakdown {
		if e.Category != want[i] {
			t.Fatalf("position %d: got %s want %s", i, e.Category, want[i])
		}
	}
	second := Aggregate(records, DefaultPalette(), Light, nil)
	if !reflect.DeepEqual(first.Breakdown, second.Breakdown) {
		t.Fatalf("repeated aggregation differs")
	}
}

func TestAggregateFoldsUnknownAndBadAmounts(t *testing.T) {
	at := time.Now()
	var kinds []Issues
	obs := ObserverFunc(func(kind Issues, _, _ string) { kinds = append(kinds, kind) })
	records := []Record{
		{ID: "x", Category: "rent", Amount: decimal.NewFromInt(40), CreatedAt: at},
		{ID: "y", Category: Food, Amount: decimal.NewFromInt(7), Issues: IssueAmount, CreatedAt: at},
		{ID: "w", Category: Food, Amount: decimal.NewFromInt(-5), CreatedAt: at},
		{ID: "v", Category: Others, Amount: decimal.NewFromInt(1), Issues: IssueCategory, CreatedAt: at},
		rec("z", Food, 42, at),
	}
	agg := Aggregate(records, DefaultPalette(), Light, obs)
	if !agg.ByCategory[Others].Equal(decimal.NewFromInt(41)) {
		t.Fatalf("unknown category should fold into others: %v", agg.ByCategory)
	}
	if !agg.Total.Equal(decimal.NewFromInt(83)) {
		t.Fatalf("total: %s", agg.Total)
	}
	// y and v were flagged when parsed and are not reported again.
	if len(kinds) != 2 || kinds[0] != IssueCategory || kinds[1] != IssueAmount {
		t.Fatalf("reported kinds: %v", kinds)
	}

	kinds = nil
	Aggregate(records, DefaultPalette(), Light, obs)
	if len(kinds) != 2 {
		t.Fatalf("second pass reported %v", kinds)
	}
}
