package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"seta/internal/core"
	"seta/internal/store"
)

func TestMemoryStoreCreateListDelete(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	r, err := s.CreateRecord(ctx, "u1", core.Draft{Category: core.Food, Amount: decimal.NewFromInt(120), Note: " lunch "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID == "" || r.OwnerID != "u1" || !r.CreatedAt.Equal(fixed) || r.Note != "lunch" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if _, err := s.CreateRecord(ctx, "u2", core.Draft{Category: core.Travel, Amount: decimal.NewFromInt(5)}); err != nil {
		t.Fatalf("create u2: %v", err)
	}

	got, _ := s.ListRecords(ctx, "u1", nil)
	if len(got) != 1 || got[0].ID != r.ID {
		t.Fatalf("owner isolation broken: %+v", got)
	}

	if err := s.DeleteRecord(ctx, "u2", r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleting another owner's record must be not found, got %v", err)
	}
	if err := s.DeleteRecord(ctx, "u1", r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = s.ListRecords(ctx, "u1", nil)
	if len(got) != 0 {
		t.Fatalf("expected no records after delete, got %d", len(got))
	}
}

func TestMemoryStoreRejectsInvalidDrafts(t *testing.T) {
	s := New(nil)
	if _, err := s.CreateRecord(context.Background(), "", core.Draft{Category: core.Food, Amount: decimal.NewFromInt(1)}); !errors.Is(err, core.ErrMissingOwner) {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
	if _, err := s.CreateRecord(context.Background(), "u1", core.Draft{Category: core.Food, Amount: decimal.NewFromInt(-1)}); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestMemoryStoreSince(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.AddDate(0, 0, i)
		s.SetClock(func() time.Time { return at })
		if _, err := s.CreateRecord(ctx, "u1", core.Draft{Category: core.Food, Amount: decimal.NewFromInt(1)}); err != nil {
			t.Fatal(err)
		}
	}
	since := base.AddDate(0, 0, 1)
	got, _ := s.ListRecords(ctx, "u1", &since)
	if len(got) != 2 {
		t.Fatalf("expected 2 records since day 1, got %d", len(got))
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed_records.txt")
	content := "# owner,category,amount,created_at,note\n" +
		"u1,food,100,2025-06-01T09:00:00Z,breakfast\n" +
		"u1,rent,50,2025-06-01T09:00:00Z\n" +
		"u1,travel,not-a-number,2025-06-02T09:00:00Z\n" +
		"\n" +
		"broken line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var issues []core.Issues
	s := NewFromFile(path, core.ObserverFunc(func(k core.Issues, _, _ string) { issues = append(issues, k) }))
	got, _ := s.ListRecords(context.Background(), "u1", nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 seeded records, got %d", len(got))
	}
	if got[0].Note != "breakfast" || got[1].Category != core.Others || !got[2].Issues.Has(core.IssueAmount) {
		t.Fatalf("unexpected seeds: %+v", got)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 reported issues, got %v", issues)
	}

	if empty := NewFromFile(filepath.Join(dir, "missing.txt"), nil); len(empty.items) != 0 {
		t.Fatalf("missing file should give an empty store")
	}
}
