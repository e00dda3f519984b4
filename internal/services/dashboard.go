package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"seta/internal/cache"
	"seta/internal/core"
	applog "seta/internal/log"
)

const (
	NoticeLoadFailed = "Could not load your expenses. Please try again."
	NoticeShowingOld = "Could not refresh your expenses. Showing the last loaded data."
)

var ErrDashboardClosed = errors.New("dashboard closed")

// LoadError is returned when the first load of a window fails and there is
// no earlier summary to fall back to.
type LoadError struct {
	Notice string
	Err    error
}

func (e *LoadError) Error() string { return fmt.Sprintf("%s: %v", e.Notice, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// View is what one dashboard shows for a window.
type View struct {
	Summary        core.Summary
	Stale          bool
	Notice         string
	InsightPending bool
}

type windowState struct {
	summary    core.Summary
	loaded     bool
	insight    string
	pending    bool
	generation uint64
}

// Dashboard is one owner's view state. Each refresh recomputes the summary
// and asks for a fresh insight in the background; a completion is applied
// only if no newer refresh of that window happened and the dashboard is
// still open.
type Dashboard struct {
	ledger *LedgerService
	owner  string
	logger *applog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	windows map[core.Selector]*windowState
	wg      sync.WaitGroup
}

func NewDashboard(ledger *LedgerService, ownerID string) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		ledger:  ledger,
		owner:   ownerID,
		logger:  ledger.logger.With(applog.FieldOwnerID, ownerID),
		ctx:     ctx,
		cancel:  cancel,
		windows: make(map[core.Selector]*windowState),
	}
}

// Refresh recomputes the window's summary. On a store failure the last
// summary for the window is returned marked stale with a notice; without
// one a *LoadError is returned.
func (d *Dashboard) Refresh(ctx context.Context, sel core.Selector, theme core.Theme) (View, error) {
	summary, err := d.ledger.Summary(ctx, d.owner, sel, theme)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return View{}, ErrDashboardClosed
	}
	ws := d.window(sel)

	if err != nil {
		d.logger.WarnContext(ctx, "Dashboard refresh failed", applog.FieldWindow, string(sel), applog.FieldError, err)
		if !ws.loaded {
			return View{}, &LoadError{Notice: NoticeLoadFailed, Err: err}
		}
		return d.view(ws, true, NoticeShowingOld), nil
	}

	ws.summary = summary
	ws.loaded = true
	ws.generation++
	ws.pending = true
	d.startInsight(sel, ws.generation)
	return d.view(ws, false, ""), nil
}

// Current returns the last loaded view of the window, if any.
func (d *Dashboard) Current(sel core.Selector) (View, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ws, ok := d.windows[sel]
	if !ok || !ws.loaded {
		return View{}, false
	}
	return d.view(ws, false, ""), true
}

// Close stops applying insight completions. It is safe to call more than once.
func (d *Dashboard) Close() {
	d.mu.Lock()
	d.closed = true
	for _, ws := range d.windows {
		ws.generation++
	}
	d.mu.Unlock()
	d.cancel()
}

func (d *Dashboard) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Wait blocks until background insight requests have returned.
func (d *Dashboard) Wait() {
	d.wg.Wait()
}

func (d *Dashboard) window(sel core.Selector) *windowState {
	ws, ok := d.windows[sel]
	if !ok {
		ws = &windowState{}
		d.windows[sel] = ws
	}
	return ws
}

func (d *Dashboard) view(ws *windowState, stale bool, notice string) View {
	s := ws.summary
	s.InsightText = ws.insight
	return View{Summary: s, Stale: stale, Notice: notice, InsightPending: ws.pending}
}

// startInsight must be called with d.mu held.
func (d *Dashboard) startInsight(sel core.Selector, generation uint64) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		text, err := d.ledger.Insight(d.ctx, d.owner, sel)
		d.complete(sel, generation, text, err)
	}()
}

func (d *Dashboard) complete(sel core.Selector, generation uint64, text string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ws := d.windows[sel]
	if d.closed || ws == nil || ws.generation != generation {
		d.logger.Debug("Dropping late insight", applog.FieldWindow, string(sel))
		return
	}
	ws.pending = false
	if err != nil {
		d.logger.Warn("Insight records unavailable", applog.FieldWindow, string(sel), applog.FieldError, err)
		return
	}
	ws.insight = text
}

const (
	DefaultMaxDashboards = 1000
	DefaultDashboardIdle = 30 * time.Minute
)

// Dashboards holds one Dashboard per active owner. Dashboards idle for
// longer than the idle timeout, or pushed out when the limit is reached,
// are closed and forgotten; the owner's next request opens a new one.
type Dashboards struct {
	ledger *LedgerService

	mu   sync.Mutex
	open *cache.LRUCache[*Dashboard]
}

// NewDashboards keeps at most maxOpen dashboards, each for at most idle
// since its last use. Zero values select the defaults.
func NewDashboards(ledger *LedgerService, maxOpen int, idle time.Duration) *Dashboards {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxDashboards
	}
	if idle <= 0 {
		idle = DefaultDashboardIdle
	}
	open := cache.NewLRUCache[*Dashboard](maxOpen, idle)
	open.SetOnEvict(func(ownerID string, d *Dashboard) {
		ledger.logger.Debug("Closing idle dashboard", applog.FieldOwnerID, ownerID)
		d.Close()
	})
	return &Dashboards{ledger: ledger, open: open}
}

// For returns the owner's dashboard, opening one when needed. Each call
// counts as use and restarts the idle timeout.
func (ds *Dashboards) For(ownerID string) *Dashboard {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	d, ok := ds.open.Get(ownerID)
	if !ok {
		d = NewDashboard(ds.ledger, ownerID)
	}
	ds.open.Set(ownerID, d)
	return d
}

// Refresh refreshes the owner's dashboard, reopening it once if it was
// closed for idleness between lookup and use.
func (ds *Dashboards) Refresh(ctx context.Context, ownerID string, sel core.Selector, theme core.Theme) (View, error) {
	view, err := ds.For(ownerID).Refresh(ctx, sel, theme)
	if errors.Is(err, ErrDashboardClosed) {
		view, err = ds.For(ownerID).Refresh(ctx, sel, theme)
	}
	return view, err
}

// Close closes and forgets the owner's dashboard.
func (ds *Dashboards) Close(ownerID string) {
	ds.mu.Lock()
	d, ok := ds.open.Get(ownerID)
	ds.open.Delete(ownerID)
	ds.mu.Unlock()
	if ok {
		d.Close()
	}
}

// CloseAll closes every open dashboard.
func (ds *Dashboards) CloseAll() {
	ds.open.Purge()
}

// CleanExpired closes dashboards that have been idle past the timeout.
// It lets a cache.Manager sweep the registry.
func (ds *Dashboards) CleanExpired() int {
	return ds.open.CleanExpired()
}

// Len reports how many dashboards are open.
func (ds *Dashboards) Len() int {
	return ds.open.Size()
}
