// Command seta-report prints one owner's expense summary and can write it
// as an xlsx workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"seta/internal/cli"
	"seta/internal/core"
	"seta/internal/export"
	applog "seta/internal/log"
	"seta/internal/services"
)

func main() {
	owner := flag.String("owner", "", "owner id to summarize (required)")
	window := flag.String("window", string(core.DefaultSelector), "time window: today, last7, last15, last30 or all")
	theme := flag.String("theme", string(core.Light), "legend theme: light or dark")
	xlsxPath := flag.String("xlsx", "", "also write the summary workbook to this path")
	noInsight := flag.Bool("no-insight", false, "skip the generated insight")
	flag.Parse()

	if *owner == "" {
		fmt.Fprintln(os.Stderr, "seta-report: -owner is required")
		flag.Usage()
		os.Exit(2)
	}
	sel, err := core.ParseSelector(*window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seta-report: %v\n", err)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := cli.SignalContext()
	defer stop()

	res := cli.InitStore(ctx, logger, cfg, applog.NewIssueLogger(logger))
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	opts := []services.Option{services.WithLogger(logger)}
	if !*noInsight {
		opts = append(opts, services.WithAdvisor(cli.InitAdvisor(ctx, logger, cfg, nil)))
	}
	ledger := services.NewLedgerService(res.Store, opts...)

	if err := run(ctx, os.Stdout, ledger, *owner, sel, core.ParseTheme(*theme), *xlsxPath, !*noInsight); err != nil {
		logger.Error("Report failed", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, ledger *services.LedgerService, owner string, sel core.Selector, theme core.Theme, xlsxPath string, withInsight bool) error {
	summary, err := ledger.Summary(ctx, owner, sel, theme)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	if withInsight {
		if summary.InsightText, err = ledger.Insight(ctx, owner, sel); err != nil {
			return fmt.Errorf("insight: %w", err)
		}
	}

	printSummary(w, summary)

	if xlsxPath == "" {
		return nil
	}
	recs, err := ledger.ListRecords(ctx, owner, sel)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	f, err := os.Create(xlsxPath)
	if err != nil {
		return fmt.Errorf("create workbook file: %w", err)
	}
	if err := export.WriteWorkbook(f, summary, recs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close workbook file: %w", err)
	}
	fmt.Fprintf(w, "\nWorkbook written to %s\n", xlsxPath)
	return nil
}

func printSummary(w io.Writer, s core.Summary) {
	fmt.Fprintf(w, "%s for %s (as of %s)\n", s.Selector.Label(), s.OwnerID, time.Now().Format(time.DateTime))
	fmt.Fprintf(w, "Total spent: %s\n", core.FormatRupees(s.Total))
	fmt.Fprintf(w, "Days active: %d, expenses recorded: %d\n", s.DaysActive, s.TotalCount)
	if len(s.Breakdown) > 0 {
		fmt.Fprintln(w)
	}
	for _, e := range s.Breakdown {
		fmt.Fprintf(w, "  %-14s %12s  %5.1f%%\n", e.Label, core.FormatRupees(e.Sum), e.Percentage)
	}
	if s.InsightText != "" {
		fmt.Fprintf(w, "\n%s\n", s.InsightText)
	}
}
