package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func rec(id string, cat Category, amount int64, at time.Time) Record {
	return Record{ID: id, OwnerID: "u1", Category: cat, Amount: decimal.NewFromInt(amount), CreatedAt: at}
}

func TestCutoff(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 45, 123, time.UTC)
	cases := []struct {
		sel     Selector
		want    time.Time
		bounded bool
	}{
		{Today, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{Last7, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), true},
		{Last15, time.Date(2025, 2, 23, 0, 0, 0, 0, time.UTC), true},
		{Last30, time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC), true},
		{All, time.Time{}, false},
	}
	for _, tc := range cases {
		got, bounded := Cutoff(tc.sel, now)
		if bounded != tc.bounded || !got.Equal(tc.want) {
			t.Fatalf("%s: got (%v,%v) want (%v,%v)", tc.sel, got, bounded, tc.want, tc.bounded)
		}
	}
}

func TestCutoffUsesLocalMidnight(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 3, 10, 1, 0, 0, 0, loc)
	got, _ := Cutoff(Today, now)
	if want := time.Date(2025, 3, 10, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFilterTodayExcludesYesterdayEvening(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	records := []Record{
		rec("a", Food, 1, time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)),
		rec("b", Food, 2, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
		rec("c", Food, 3, now),
	}
	got := FilterWindow(records, Today, now, nil)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("unexpected filtered set: %+v", got)
	}
}

func TestFilterIsOrderedSubset(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	records := []Record{
		rec("new", Food, 1, now.Add(-time.Hour)),
		rec("old", Food, 1, now.AddDate(0, 0, -40)),
		rec("mid", Travel, 1, now.AddDate(0, 0, -5)),
		rec("edge", Travel, 1, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)),
	}
	for _, sel := range Selectors() {
		got := FilterWindow(records, sel, now, nil)
		j := 0
		for _, r := range got {
			for j < len(records) && records[j].ID != r.ID {
				j++
			}
			if j == len(records) {
				t.Fatalf("%s: %s not found in order", sel, r.ID)
			}
			j++
		}
	}
	last7 := FilterWindow(records, Last7, now, nil)
	if len(last7) != 3 || last7[2].ID != "edge" {
		t.Fatalf("last7 should keep boundary-day record: %+v", last7)
	}
}

func TestFilterUnboundedReturnsAll(t *testing.T) {
	records := []Record{
		rec("a", Food, 1, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)),
		{ID: "bad", Category: Food, Issues: IssueTimestamp},
	}
	got := Filter(records, time.Time{}, false, nil)
	if len(got) != len(records) || got[0].ID != "a" || got[1].ID != "bad" {
		t.Fatalf("unexpected: %+v", got)
	}
	got[0].ID = "changed"
	if records[0].ID != "a" {
		t.Fatalf("filter must not alias input")
	}
}

func TestFilterReportsBadTimestamps(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	var reported []string
	obs := ObserverFunc(func(kind Issues, id, _ string) {
		if kind != IssueTimestamp {
			t.Fatalf("unexpected kind %s", kind)
		}
		reported = append(reported, id)
	})
	records := []Record{
		{ID: "flagged", OwnerID: "u1", Category: Food, Amount: decimal.NewFromInt(1), Issues: IssueTimestamp},
		{ID: "zero", OwnerID: "u1", Category: Food, Amount: decimal.NewFromInt(1)},
		rec("ok", Food, 1, now),
	}
	got := FilterWindow(records, Last30, now, obs)
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("unexpected: %+v", got)
	}
	// The flagged record was reported when parsed; only the unflagged one is new.
	if len(reported) != 1 || reported[0] != "zero" {
		t.Fatalf("expected only the unflagged record reported, got %v", reported)
	}
}

func TestParseSelector(t *testing.T) {
	for _, s := range []string{"today", "LAST7", "last15", " last30 ", "all"} {
		if _, err := ParseSelector(s); err != nil {
			t.Fatalf("%q: %v", s, err)
		}
	}
	if _, err := ParseSelector("yesterday"); err == nil {
		t.Fatalf("expected error for unknown selector")
	}
}
