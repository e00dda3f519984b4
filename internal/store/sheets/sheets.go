// Package sheets keeps expense records as rows of a Google Sheets tab.
//
// Layout, one record per row starting at column A:
//
//	ID | Owner | Category | Amount | Note | CreatedAt
//
// A first row whose ID cell reads "ID" is treated as a header and skipped.
// Cells are written with the RAW input option so amounts and timestamps
// stay text; rows edited by hand may still carry numbers or serial dates,
// which the boundary parser accepts.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"seta/internal/core"
	"seta/internal/store"
)

const (
	DefaultSheetName = "Expenses"
	headerID         = "ID"
)

var _ store.Store = (*Client)(nil)

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	now           func() time.Time
	obs           core.Observer

	// mu serializes row-index lookups with the writes that depend on them.
	mu sync.Mutex
}

// New creates a Sheets-backed store. Extra client options are appended
// after the service-account credentials; when any are given the
// credentials are skipped entirely so callers can point the client at a
// different endpoint.
func New(ctx context.Context, cfg Config, obs core.Observer, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	if len(opts) == 0 {
		creds, err := loadCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets store ready", "sheet", sheetName)
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		now:           time.Now,
		obs:           obs,
	}, nil
}

// loadCredentials reads service-account credentials, falling back to
// GOOGLE_APPLICATION_CREDENTIALS when neither config field is set.
func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Client) dataRange() string {
	return fmt.Sprintf("%s!A:F", c.sheetName)
}

func (c *Client) readRows(ctx context.Context) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.dataRange()).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.dataRange(), err)
	}
	return resp.Values, nil
}

// ListRecords implements store.Reader. The sheet has no query language, so
// the owner and since filters run over the full range.
func (c *Client) ListRecords(ctx context.Context, ownerID string, since *time.Time) ([]core.Record, error) {
	rows, err := c.readRows(ctx)
	if err != nil {
		return nil, err
	}

	raws := make([]store.RawRow, 0, len(rows))
	for i, row := range rows {
		raw, ok := rowToRaw(row)
		if !ok || (i == 0 && raw.ID == headerID) {
			continue
		}
		if raw.OwnerID != ownerID {
			continue
		}
		raws = append(raws, raw)
	}

	records := store.ParseRows(raws, c.obs)
	if since == nil {
		return records, nil
	}
	out := records[:0]
	for _, r := range records {
		if !r.CreatedAt.IsZero() && !r.CreatedAt.Before(*since) {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateRecord implements store.Writer
func (c *Client) CreateRecord(ctx context.Context, ownerID string, d core.Draft) (core.Record, error) {
	if ownerID == "" {
		return core.Record{}, core.ErrMissingOwner
	}
	if err := d.Validate(); err != nil {
		return core.Record{}, fmt.Errorf("validation failed: %w", err)
	}

	rec := core.Record{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Category:  d.Category,
		Amount:    d.Amount,
		Note:      strings.TrimSpace(d.Note),
		CreatedAt: c.now().UTC(),
	}
	vr := &gsheet.ValueRange{Values: [][]any{{
		rec.ID,
		rec.OwnerID,
		string(rec.Category),
		rec.Amount.String(),
		rec.Note,
		store.FormatTimestamp(rec.CreatedAt),
	}}}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.dataRange(), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return core.Record{}, fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Expense appended to sheet",
		"id", rec.ID,
		"category", rec.Category,
		"amount", rec.Amount.String())
	return rec, nil
}

// DeleteRecord implements store.Deleter. The row is located by id and
// owner, then removed with a DeleteDimension request.
func (c *Client) DeleteRecord(ctx context.Context, ownerID, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	rowIndex := -1
	for i, row := range rows {
		raw, ok := rowToRaw(row)
		if ok && raw.ID == id && raw.OwnerID == ownerID {
			rowIndex = i
			break
		}
	}
	if rowIndex < 0 {
		return store.ErrNotFound
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex),
					EndIndex:   int64(rowIndex + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from %s: %w", rowIndex+1, c.sheetName, err)
	}

	slog.InfoContext(ctx, "Expense deleted from sheet", "id", id, "row", rowIndex+1)
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

// rowToRaw maps sheet cells to a RawRow. Rows without an id are ignored.
func rowToRaw(row []any) (store.RawRow, bool) {
	cell := func(i int) any {
		if i < len(row) {
			return row[i]
		}
		return nil
	}
	id := strings.TrimSpace(fmt.Sprint(cell(0)))
	if len(row) == 0 || id == "" || id == "<nil>" {
		return store.RawRow{}, false
	}
	owner := ""
	if v := cell(1); v != nil {
		owner = strings.TrimSpace(fmt.Sprint(v))
	}
	return store.RawRow{
		ID:        id,
		OwnerID:   owner,
		Category:  cell(2),
		Amount:    cell(3),
		Note:      cell(4),
		CreatedAt: cell(5),
	}, true
}
