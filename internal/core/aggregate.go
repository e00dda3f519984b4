package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BreakdownEntry is one category slice of a window's spending.
type BreakdownEntry struct {
	Category        Category
	Label           string
	Sum             decimal.Decimal
	Percentage      float64 // 0-100, share of the window total
	Color           string
	LegendFontColor string
	LegendFontSize  int
}

// Aggregation is the result of reducing a filtered record set.
type Aggregation struct {
	Total      decimal.Decimal
	Breakdown  []BreakdownEntry
	ByCategory map[Category]decimal.Decimal
}

// Aggregate sums records per category and builds the breakdown, ordered by
// descending sum with ties in category enumeration order. Unknown categories
// fold into Others. A record whose amount failed coercion contributes zero.
// Only problems not already flagged in Record.Issues are reported to obs;
// flagged ones were reported where the record was parsed.
//
// The result depends only on the arguments; callers recompute it from the
// full filtered set after every change.
func Aggregate(records []Record, p Palette, t Theme, obs Observer) Aggregation {
	obs = observerOrNop(obs)
	sums := make(map[Category]decimal.Decimal, len(categoryOrder))
	total := decimal.Zero

	for _, r := range records {
		cat := r.Category
		if !cat.Valid() {
			if !r.Issues.Has(IssueCategory) {
				obs.Malformed(IssueCategory, r.ID, "category "+string(r.Category)+" folded into others")
			}
			cat = Others
		}
		amount := r.Amount
		if r.Issues.Has(IssueAmount) {
			amount = decimal.Zero
		} else if amount.IsNegative() {
			obs.Malformed(IssueAmount, r.ID, "amount counted as zero")
			amount = decimal.Zero
		}
		sums[cat] = sums[cat].Add(amount)
		total = total.Add(amount)
	}

	breakdown := make([]BreakdownEntry, 0, len(sums))
	for _, cat := range categoryOrder {
		sum, ok := sums[cat]
		if !ok || sum.IsZero() {
			continue
		}
		breakdown = append(breakdown, BreakdownEntry{
			Category:        cat,
			Label:           cat.Label(),
			Sum:             sum,
			Percentage:      percentage(sum, total),
			Color:           p.Color(cat),
			LegendFontColor: p.LegendColor(t),
			LegendFontSize:  p.LegendFontSize,
		})
	}
	// breakdown is already in enumeration order, so a stable sort keeps
	// that order among equal sums.
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Sum.GreaterThan(breakdown[j].Sum)
	})

	byCategory := make(map[Category]decimal.Decimal, len(sums))
	for cat, sum := range sums {
		byCategory[cat] = sum
	}
	return Aggregation{Total: total, Breakdown: breakdown, ByCategory: byCategory}
}

func percentage(sum, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return sum.Mul(hundred).Div(total).InexactFloat64()
}
