package store

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"seta/internal/core"
)

// RawRow is a record as an adapter reads it, before any field is trusted.
// Category, Amount, Note and CreatedAt may hold whatever the backing store
// returned: strings, numbers, []byte, time.Time or nil.
type RawRow struct {
	ID        string
	OwnerID   string
	Category  any
	Amount    any
	Note      any
	CreatedAt any
}

// sheetsEpoch is day zero of spreadsheet serial dates.
var sheetsEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseRow converts a raw row into a Record. It never fails: malformed
// fields are replaced by safe values, flagged in Record.Issues and reported
// to obs.
//
//   - unknown category  -> Others, IssueCategory
//   - bad/negative amount -> 0, IssueAmount
//   - bad timestamp     -> zero time, IssueTimestamp
func ParseRow(raw RawRow, obs core.Observer) core.Record {
	if obs == nil {
		obs = core.NopObserver
	}
	r := core.Record{
		ID:      strings.TrimSpace(raw.ID),
		OwnerID: strings.TrimSpace(raw.OwnerID),
		Note:    strings.TrimSpace(toText(raw.Note)),
	}

	cat, ok := core.ParseCategory(toText(raw.Category))
	r.Category = cat
	if !ok {
		r.Issues |= core.IssueCategory
		obs.Malformed(core.IssueCategory, r.ID, fmt.Sprintf("unrecognized category %q", toText(raw.Category)))
	}

	amount, err := core.CoerceAmount(raw.Amount)
	if err != nil {
		r.Issues |= core.IssueAmount
		obs.Malformed(core.IssueAmount, r.ID, err.Error())
		amount = decimal.Zero
	}
	r.Amount = amount

	at, err := parseTimestamp(raw.CreatedAt)
	if err != nil {
		r.Issues |= core.IssueTimestamp
		obs.Malformed(core.IssueTimestamp, r.ID, err.Error())
	}
	r.CreatedAt = at
	return r
}

// ParseRows applies ParseRow to every row.
func ParseRows(rows []RawRow, obs core.Observer) []core.Record {
	out := make([]core.Record, 0, len(rows))
	for _, raw := range rows {
		out = append(out, ParseRow(raw, obs))
	}
	return out
}

func toText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func parseTimestamp(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, fmt.Errorf("zero timestamp")
		}
		return x, nil
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, fmt.Errorf("missing timestamp")
		}
		return *x, nil
	case float64:
		return fromSerial(x)
	case int64:
		return fromSerial(float64(x))
	case int:
		return fromSerial(float64(x))
	case []byte:
		return parseTimestampText(string(x))
	case string:
		return parseTimestampText(x)
	case nil:
		return time.Time{}, fmt.Errorf("missing timestamp")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func parseTimestampText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// fromSerial converts a spreadsheet serial date (days since 1899-12-30, with
// the fraction as time of day) to UTC.
func fromSerial(days float64) (time.Time, error) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days <= 0 {
		return time.Time{}, fmt.Errorf("invalid serial date %v", days)
	}
	return sheetsEpoch.Add(time.Duration(days * float64(24*time.Hour))).Round(time.Second), nil
}

// FormatTimestamp is the text form adapters use when a store keeps
// timestamps as strings.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
