package core

import (
	"math"
	"sort"
	"time"
)

// Activity is the tenure statistic shown on the profile: how many days have
// passed since the first record, and how many records exist. DaysActive does
// not reset on days without records.
type Activity struct {
	DaysActive int
	TotalCount int
}

// ComputeActivity derives Activity from records in any order. The input is
// not modified. Records without a valid timestamp still count toward
// TotalCount but cannot be the first record.
func ComputeActivity(records []Record, now time.Time) Activity {
	a := Activity{TotalCount: len(records)}

	dated := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Issues.Has(IssueTimestamp) || r.CreatedAt.IsZero() {
			continue
		}
		dated = append(dated, r)
	}
	if len(dated) == 0 {
		return a
	}
	sortByCreatedAt(dated, false)

	diff := now.Sub(dated[0].CreatedAt)
	if diff < 0 {
		diff = -diff
	}
	a.DaysActive = int(math.Ceil(float64(diff) / float64(24*time.Hour)))
	return a
}

// sortByCreatedAt orders records in place by CreatedAt, keeping records
// without a timestamp at the end in either direction.
func sortByCreatedAt(rs []Record, newestFirst bool) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i].CreatedAt, rs[j].CreatedAt
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		if newestFirst {
			return a.After(b)
		}
		return a.Before(b)
	})
}
