package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Env carries what the aggregation routines need from their surroundings:
// the owner being summarized, the current instant, and display settings.
type Env struct {
	OwnerID  string
	Now      time.Time
	Theme    Theme
	Palette  Palette
	Observer Observer
}

// Summary is the derived view of one owner's records for one window.
type Summary struct {
	OwnerID     string
	Selector    Selector
	Total       decimal.Decimal
	Breakdown   []BreakdownEntry
	ByCategory  map[Category]decimal.Decimal
	DaysActive  int
	TotalCount  int
	InsightText string
}

// EmptySummary is what an unauthenticated or data-less view shows.
func EmptySummary(sel Selector) Summary {
	return Summary{
		Selector:   sel,
		Total:      decimal.Zero,
		Breakdown:  []BreakdownEntry{},
		ByCategory: map[Category]decimal.Decimal{},
	}
}

// Summarize filters records to the window, aggregates them, and computes
// activity over all of the owner's records. Records belonging to other
// owners are ignored. Without an owner the empty summary is returned.
//
// InsightText is left empty; the insight is produced separately.
func Summarize(records []Record, sel Selector, env Env) Summary {
	if env.OwnerID == "" {
		return EmptySummary(sel)
	}
	if env.Palette.Categories == nil {
		env.Palette = DefaultPalette()
	}

	owned := OwnedBy(records, env.OwnerID)
	window := FilterWindow(owned, sel, env.Now, env.Observer)
	agg := Aggregate(window, env.Palette, env.Theme, env.Observer)
	act := ComputeActivity(owned, env.Now)

	return Summary{
		OwnerID:    env.OwnerID,
		Selector:   sel,
		Total:      agg.Total,
		Breakdown:  agg.Breakdown,
		ByCategory: agg.ByCategory,
		DaysActive: act.DaysActive,
		TotalCount: act.TotalCount,
	}
}

// OwnedBy returns the records whose OwnerID matches owner, in input order.
func OwnedBy(records []Record, owner string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	return out
}

// SortNewestFirst returns a copy of records ordered by descending CreatedAt.
// Records without a timestamp go last.
func SortNewestFirst(records []Record) []Record {
	out := append([]Record(nil), records...)
	sortByCreatedAt(out, true)
	return out
}
