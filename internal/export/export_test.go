package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"seta/internal/core"
)

func TestWriteWorkbook(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	records := []core.Record{
		{ID: "a", OwnerID: "u1", Category: core.Food, Amount: decimal.NewFromInt(150), Note: "lunch", CreatedAt: now},
		{ID: "b", OwnerID: "u1", Category: core.Travel, Amount: decimal.NewFromInt(50), CreatedAt: now.Add(-time.Hour)},
	}
	s := core.Summarize(records, core.Last7, core.Env{OwnerID: "u1", Now: now})
	s.InsightText = "Keep it up!"

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, s, records); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != SummarySheet || sheets[1] != RecordsSheet {
		t.Fatalf("sheets = %v", sheets)
	}

	checks := []struct {
		sheet, cell, want string
	}{
		{SummarySheet, "B1", "Last 7 Days"},
		{SummarySheet, "B2", "200"},
		{SummarySheet, "B5", "Keep it up!"},
		{SummarySheet, "A8", "Food"},
		{SummarySheet, "C8", "75"},
		{SummarySheet, "A9", "Travel"},
		{RecordsSheet, "A2", "a"},
		{RecordsSheet, "E2", "lunch"},
		{RecordsSheet, "D3", "50"},
	}
	for _, c := range checks {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil || got != c.want {
			t.Errorf("%s!%s = %q (%v), want %q", c.sheet, c.cell, got, err, c.want)
		}
	}
}
