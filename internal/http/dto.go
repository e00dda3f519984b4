package http

import (
	"time"

	"seta/internal/core"
	"seta/internal/services"
)

type breakdownJSON struct {
	Category        string  `json:"category"`
	Label           string  `json:"label"`
	Sum             string  `json:"sum"`
	Percentage      float64 `json:"percentage"`
	Color           string  `json:"color"`
	LegendFontColor string  `json:"legend_font_color"`
	LegendFontSize  int     `json:"legend_font_size"`
}

type summaryJSON struct {
	Window         string            `json:"window"`
	WindowLabel    string            `json:"window_label"`
	Total          string            `json:"total"`
	TotalDisplay   string            `json:"total_display"`
	Breakdown      []breakdownJSON   `json:"breakdown"`
	ByCategory     map[string]string `json:"by_category"`
	DaysActive     int               `json:"days_active"`
	TotalCount     int               `json:"total_count"`
	InsightText    string            `json:"insight_text"`
	InsightPending bool              `json:"insight_pending"`
	Stale          bool              `json:"stale,omitempty"`
	Notice         string            `json:"notice,omitempty"`
}

type recordJSON struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Label     string `json:"label"`
	Amount    string `json:"amount"`
	Display   string `json:"amount_display"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Issues    string `json:"issues,omitempty"`
}

type recordsJSON struct {
	Window  string       `json:"window"`
	Records []recordJSON `json:"records"`
}

type insightJSON struct {
	Window string `json:"window"`
	Text   string `json:"text"`
}

func toSummaryJSON(v services.View) summaryJSON {
	s := v.Summary
	out := summaryJSON{
		Window:         string(s.Selector),
		WindowLabel:    s.Selector.Label(),
		Total:          s.Total.StringFixed(2),
		TotalDisplay:   core.FormatRupees(s.Total),
		Breakdown:      make([]breakdownJSON, 0, len(s.Breakdown)),
		ByCategory:     make(map[string]string, len(s.ByCategory)),
		DaysActive:     s.DaysActive,
		TotalCount:     s.TotalCount,
		InsightText:    s.InsightText,
		InsightPending: v.InsightPending,
		Stale:          v.Stale,
		Notice:         v.Notice,
	}
	for _, e := range s.Breakdown {
		out.Breakdown = append(out.Breakdown, breakdownJSON{
			Category:        string(e.Category),
			Label:           e.Label,
			Sum:             e.Sum.StringFixed(2),
			Percentage:      e.Percentage,
			Color:           e.Color,
			LegendFontColor: e.LegendFontColor,
			LegendFontSize:  e.LegendFontSize,
		})
	}
	for c, sum := range s.ByCategory {
		out.ByCategory[string(c)] = sum.StringFixed(2)
	}
	return out
}

func toRecordJSON(r core.Record) recordJSON {
	out := recordJSON{
		ID:       r.ID,
		Category: string(r.Category),
		Label:    r.Category.Label(),
		Amount:   r.Amount.StringFixed(2),
		Display:  core.FormatRupees(r.Amount),
		Note:     r.Note,
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.Issues != 0 {
		out.Issues = r.Issues.String()
	}
	return out
}

func toRecordsJSON(sel core.Selector, recs []core.Record) recordsJSON {
	out := recordsJSON{Window: string(sel), Records: make([]recordJSON, 0, len(recs))}
	for _, r := range recs {
		out.Records = append(out.Records, toRecordJSON(r))
	}
	return out
}
