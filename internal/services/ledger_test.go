package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"seta/internal/cache"
	"seta/internal/core"
	"seta/internal/events"
	"seta/internal/insight"
	applog "seta/internal/log"
	"seta/internal/store"
	"seta/internal/store/memory"
)

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

// countingStore wraps the memory store, counting reads and optionally
// failing them.
type countingStore struct {
	store.Store

	mu      sync.Mutex
	lists   int
	listErr error
}

func (c *countingStore) ListRecords(ctx context.Context, ownerID string, since *time.Time) ([]core.Record, error) {
	c.mu.Lock()
	c.lists++
	err := c.listErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.Store.ListRecords(ctx, ownerID, since)
}

func (c *countingStore) failLists(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listErr = err
}

func (c *countingStore) listCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*events.RecordsChanged
	err  error
}

func (p *fakePublisher) PublishRecordsChanged(_ context.Context, msg *events.RecordsChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

// countInsighter answers with the number of records it was given.
type countInsighter struct{}

func (countInsighter) Insight(_ context.Context, _ string, records []core.Record) string {
	return fmt.Sprintf("%d records", len(records))
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func newTestLedger(t *testing.T, opts ...Option) (*LedgerService, *countingStore) {
	t.Helper()
	mem := memory.New(nil)
	mem.SetClock(func() time.Time { return testNow.Add(-time.Hour) })
	st := &countingStore{Store: mem}
	base := []Option{
		WithSnapshotCache(cache.NewLRUCache[[]core.Record](10, 0)),
		WithClock(func() time.Time { return testNow }),
		WithLogger(quietLogger()),
		WithAdvisor(countInsighter{}),
	}
	return NewLedgerService(st, append(base, opts...)...), st
}

func draft(cat core.Category, amount int64) core.Draft {
	return core.Draft{Category: cat, Amount: decimal.NewFromInt(amount)}
}

func TestLedgerSnapshotInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	ledger, st := newTestLedger(t, WithPublisher(pub))

	if _, err := ledger.Records(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Records(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if st.listCount() != 1 {
		t.Fatalf("second read should hit the snapshot, lists=%d", st.listCount())
	}

	rec, err := ledger.CreateRecord(ctx, "u1", draft(core.Food, 120))
	if err != nil {
		t.Fatal(err)
	}
	recs, _ := ledger.Records(ctx, "u1")
	if st.listCount() != 2 || len(recs) != 1 {
		t.Fatalf("create must invalidate: lists=%d recs=%d", st.listCount(), len(recs))
	}

	if err := ledger.DeleteRecord(ctx, "u1", rec.ID); err != nil {
		t.Fatal(err)
	}
	recs, _ = ledger.Records(ctx, "u1")
	if len(recs) != 0 {
		t.Fatalf("delete must invalidate, got %d records", len(recs))
	}

	if len(pub.msgs) != 2 || pub.msgs[0].Op != events.OpCreated || pub.msgs[1].Op != events.OpDeleted {
		t.Fatalf("published = %+v", pub.msgs)
	}
	if pub.msgs[0].OwnerID != "u1" || pub.msgs[0].RecordID != rec.ID {
		t.Errorf("create message = %+v", pub.msgs[0])
	}
}

func TestLedgerPublishFailureDoesNotFailMutation(t *testing.T) {
	ledger, _ := newTestLedger(t, WithPublisher(&fakePublisher{err: errors.New("broker down")}))
	if _, err := ledger.CreateRecord(context.Background(), "u1", draft(core.Travel, 5)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
}

func TestLedgerNotificationInvalidatesSnapshot(t *testing.T) {
	ctx := context.Background()
	ledger, st := newTestLedger(t)
	ledger.Records(ctx, "u1")

	if err := ledger.HandleRecordsChanged(ctx, events.NewRecordsChanged("u1", "x", events.OpCreated)); err != nil {
		t.Fatal(err)
	}
	ledger.Records(ctx, "u1")
	if st.listCount() != 2 {
		t.Fatalf("notification must force a refetch, lists=%d", st.listCount())
	}
}

func TestLedgerDeleteMissing(t *testing.T) {
	pub := &fakePublisher{}
	ledger, _ := newTestLedger(t, WithPublisher(pub))
	err := ledger.DeleteRecord(context.Background(), "u1", "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if len(pub.msgs) != 0 {
		t.Error("failed delete must not publish")
	}
}

func TestLedgerRequiresOwnerForMutations(t *testing.T) {
	ledger, _ := newTestLedger(t)
	if _, err := ledger.CreateRecord(context.Background(), "", draft(core.Food, 1)); !errors.Is(err, core.ErrMissingOwner) {
		t.Errorf("create: %v", err)
	}
	if err := ledger.DeleteRecord(context.Background(), "", "x"); !errors.Is(err, core.ErrMissingOwner) {
		t.Errorf("delete: %v", err)
	}
}

func TestLedgerSummary(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)
	for _, d := range []core.Draft{draft(core.Food, 100), draft(core.Food, 50), draft(core.Travel, 50)} {
		if _, err := ledger.CreateRecord(ctx, "u1", d); err != nil {
			t.Fatal(err)
		}
	}
	ledger.CreateRecord(ctx, "u2", draft(core.Shopping, 999))

	s, err := ledger.Summary(ctx, "u1", core.Last7, core.Dark)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Total.Equal(decimal.NewFromInt(200)) || s.TotalCount != 3 || len(s.Breakdown) != 2 {
		t.Fatalf("summary = %+v", s)
	}
	if s.Breakdown[0].Category != core.Food || s.Breakdown[0].Percentage != 75 {
		t.Errorf("first entry = %+v", s.Breakdown[0])
	}

	anon, err := ledger.Summary(ctx, "", core.Last7, core.Light)
	if err != nil || !anon.Total.IsZero() || len(anon.Breakdown) != 0 {
		t.Errorf("anonymous summary = %+v, %v", anon, err)
	}
}

func TestLedgerInsightUsesWindow(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)
	ledger.CreateRecord(ctx, "u1", draft(core.Food, 10))

	text, err := ledger.Insight(ctx, "u1", core.Today)
	if err != nil || text != "1 records" {
		t.Fatalf("Insight = %q, %v", text, err)
	}
}

func TestLedgerDefaultAdvisorWithoutGenerator(t *testing.T) {
	ctx := context.Background()
	st := &countingStore{Store: memory.New(nil)}
	ledger := NewLedgerService(st, WithLogger(quietLogger()))

	empty, _ := ledger.Insight(ctx, "u1", core.All)
	ledger.CreateRecord(ctx, "u1", draft(core.Food, 10))
	unavailable, _ := ledger.Insight(ctx, "u1", core.All)
	if empty == unavailable || empty == "" || unavailable == "" {
		t.Errorf("placeholder %q and unavailable %q must differ", empty, unavailable)
	}
}

// peakGenerator records the highest number of concurrent calls.
type peakGenerator struct {
	inflight, peak, calls atomic.Int32
}

func (g *peakGenerator) Generate(context.Context, string) (string, error) {
	g.calls.Add(1)
	n := g.inflight.Add(1)
	defer g.inflight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return "tip", nil
}

func TestLedgerInsightOneRequestPerOwnerAcrossWindows(t *testing.T) {
	ctx := context.Background()
	gen := &peakGenerator{}
	mem := memory.New(nil)
	ledger := NewLedgerService(mem,
		WithClock(func() time.Time { return testNow }),
		WithLogger(quietLogger()),
		WithAdvisor(insight.NewAdvisor(gen, insight.WithLogger(quietLogger().Slog()))))

	// One record per window so every window has a different prompt.
	for _, ago := range []time.Duration{time.Hour, 3 * 24 * time.Hour, 10 * 24 * time.Hour} {
		at := testNow.Add(-ago)
		mem.SetClock(func() time.Time { return at })
		if _, err := ledger.CreateRecord(ctx, "u1", draft(core.Food, 10)); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	for _, sel := range []core.Selector{core.Today, core.Last7, core.Last30} {
		wg.Add(1)
		go func(sel core.Selector) {
			defer wg.Done()
			if text, err := ledger.Insight(ctx, "u1", sel); err != nil || text != "tip" {
				t.Errorf("%s: %q, %v", sel, text, err)
			}
		}(sel)
	}
	wg.Wait()

	if p := gen.peak.Load(); p != 1 {
		t.Fatalf("owner had %d insight requests in flight at once", p)
	}
	if n := gen.calls.Load(); n != 3 {
		t.Fatalf("expected one request per window, got %d", n)
	}
}
