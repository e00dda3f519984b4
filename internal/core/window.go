package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Today  Selector = "today"
	Last7  Selector = "last7"
	Last15 Selector = "last15"
	Last30 Selector = "last30"
	All    Selector = "all"
)

// Selector names a time window used to filter records before aggregation.
type Selector string

var ErrUnknownSelector = errors.New("unknown time window")

// DefaultSelector is the window shown before the user picks one.
const DefaultSelector = Last30

var selectorDays = map[Selector]int{
	Today:  0,
	Last7:  7,
	Last15: 15,
	Last30: 30,
}

// Selectors returns the supported windows, narrowest first.
func Selectors() []Selector {
	return []Selector{Today, Last7, Last15, Last30, All}
}

func ParseSelector(s string) (Selector, error) {
	sel := Selector(strings.ToLower(strings.TrimSpace(s)))
	if sel == All {
		return All, nil
	}
	if _, ok := selectorDays[sel]; ok {
		return sel, nil
	}
	return "", ErrUnknownSelector
}

// Label returns the display name of the window.
func (s Selector) Label() string {
	switch s {
	case Today:
		return "Today"
	case Last7:
		return "Last 7 Days"
	case Last15:
		return "Last 15 Days"
	case Last30:
		return "Last 30 Days"
	default:
		return "All Time"
	}
}

// Cutoff returns the inclusive lower bound of the window relative to now.
// bounded is false for All (and for unknown selectors), meaning no lower bound.
//
// Bounds are day-aligned in now's location: Today starts at local midnight,
// LastN starts at midnight of the day N calendar days before now.
func Cutoff(sel Selector, now time.Time) (cutoff time.Time, bounded bool) {
	days, ok := selectorDays[sel]
	if !ok {
		return time.Time{}, false
	}
	y, m, d := now.Date()
	return time.Date(y, m, d-days, 0, 0, 0, 0, now.Location()), true
}

// Filter keeps records created at or after cutoff, preserving order. When
// bounded is false every record is kept. The input slice is never modified.
//
// Records without a valid timestamp cannot be placed in a bounded window and
// are dropped. Those not already flagged with IssueTimestamp are reported
// to obs.
func Filter(records []Record, cutoff time.Time, bounded bool, obs Observer) []Record {
	out := make([]Record, 0, len(records))
	if !bounded {
		return append(out, records...)
	}
	obs = observerOrNop(obs)
	for _, r := range records {
		if r.Issues.Has(IssueTimestamp) {
			continue
		}
		if r.CreatedAt.IsZero() {
			obs.Malformed(IssueTimestamp, r.ID, "excluded from time window")
			continue
		}
		if !r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// FilterWindow is Filter with the cutoff computed from sel and now.
func FilterWindow(records []Record, sel Selector, now time.Time, obs Observer) []Record {
	cutoff, bounded := Cutoff(sel, now)
	return Filter(records, cutoff, bounded, obs)
}
