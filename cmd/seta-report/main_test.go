package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"seta/internal/core"
	"seta/internal/export"
	applog "seta/internal/log"
	"seta/internal/services"
	"seta/internal/store/memory"
)

func TestRunPrintsSummaryAndWritesWorkbook(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(nil)
	ledger := services.NewLedgerService(mem, services.WithLogger(applog.New(applog.Config{Output: io.Discard})))
	for _, d := range []core.Draft{
		{Category: core.Food, Amount: decimal.NewFromInt(300)},
		{Category: core.Stationary, Amount: decimal.NewFromInt(100)},
	} {
		if _, err := ledger.CreateRecord(ctx, "u1", d); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	var out bytes.Buffer
	if err := run(ctx, &out, ledger, "u1", core.All, core.Light, path, true); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, want := range []string{"All Time for u1", "Total spent: ₹400.00", "Food", "75.0%", "Stationary", "Workbook written"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if got, _ := f.GetCellValue(export.SummarySheet, "B2"); got != "400" {
		t.Errorf("Summary!B2 = %q", got)
	}
}
