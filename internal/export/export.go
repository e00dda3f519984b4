// Package export writes summaries and their records as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"seta/internal/core"
)

const (
	SummarySheet = "Summary"
	RecordsSheet = "Records"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteWorkbook writes a workbook with a Summary sheet (totals, tenure,
// insight and the category breakdown) and a Records sheet listing records.
func WriteWorkbook(w io.Writer, s core.Summary, records []core.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(RecordsSheet); err != nil {
		return fmt.Errorf("create records sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeSummary(f, s, bold); err != nil {
		return err
	}
	if err := writeRecords(f, records, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, s core.Summary, bold int) error {
	rows := [][]any{
		{"Window", s.Selector.Label()},
		{"Total", s.Total.InexactFloat64()},
		{"Days active", s.DaysActive},
		{"Expenses recorded", s.TotalCount},
		{"Insight", s.InsightText},
		{},
		{"Category", "Amount", "Percentage", "Color"},
	}
	for _, e := range s.Breakdown {
		rows = append(rows, []any{e.Label, e.Sum.InexactFloat64(), e.Percentage, e.Color})
	}
	if err := setRows(f, SummarySheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "A5", bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, "A7", "D7", bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "A", 20)
}

func writeRecords(f *excelize.File, records []core.Record, bold int) error {
	rows := [][]any{{"ID", "Created at", "Category", "Amount", "Note", "Issues"}}
	for _, r := range records {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Format(time.DateTime)
		}
		issues := ""
		if r.Issues != 0 {
			issues = r.Issues.String()
		}
		rows = append(rows, []any{r.ID, created, r.Category.Label(), r.Amount.InexactFloat64(), r.Note, issues})
	}
	if err := setRows(f, RecordsSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(RecordsSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style records: %w", err)
	}
	return f.SetColWidth(RecordsSheet, "A", "B", 24)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
