package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"seta/internal/cache"
	"seta/internal/core"
	"seta/internal/events"
	"seta/internal/insight"
	applog "seta/internal/log"
	"seta/internal/store"
)

// Publisher announces record changes to other instances.
type Publisher interface {
	PublishRecordsChanged(ctx context.Context, msg *events.RecordsChanged) error
}

// Insighter turns a window of records into display text. It never fails.
type Insighter interface {
	Insight(ctx context.Context, ownerID string, records []core.Record) string
}

// LedgerService orchestrates record operations across the record store,
// the per-owner snapshot cache and change notifications.
type LedgerService struct {
	store     store.Store
	snapshots cache.Cache[[]core.Record]
	publisher Publisher
	advisor   Insighter
	palette   core.Palette
	obs       core.Observer
	now       func() time.Time
	logger    *applog.Logger

	mu       sync.Mutex
	versions map[string]uint64
}

type Option func(*LedgerService)

// WithSnapshotCache keeps each owner's record list between reads. Entries
// are dropped on every mutation and every change notification.
func WithSnapshotCache(c cache.Cache[[]core.Record]) Option {
	return func(s *LedgerService) { s.snapshots = c }
}

func WithPublisher(p Publisher) Option { return func(s *LedgerService) { s.publisher = p } }

func WithAdvisor(a Insighter) Option { return func(s *LedgerService) { s.advisor = a } }

func WithPalette(p core.Palette) Option { return func(s *LedgerService) { s.palette = p } }

func WithObserver(o core.Observer) Option { return func(s *LedgerService) { s.obs = o } }

func WithClock(now func() time.Time) Option { return func(s *LedgerService) { s.now = now } }

func WithLogger(l *applog.Logger) Option { return func(s *LedgerService) { s.logger = l } }

func NewLedgerService(st store.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:    st,
		palette:  core.DefaultPalette(),
		obs:      core.NopObserver,
		now:      time.Now,
		logger:   applog.New(applog.DefaultConfig()),
		versions: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.advisor == nil {
		s.advisor = insight.NewAdvisor(nil, insight.WithLogger(s.logger.Slog()))
	}
	s.logger = s.logger.WithComponent(applog.ComponentLedger)
	return s
}

// Records returns all of the owner's records, newest first.
func (s *LedgerService) Records(ctx context.Context, ownerID string) ([]core.Record, error) {
	if ownerID == "" {
		return nil, core.ErrMissingOwner
	}
	if s.snapshots != nil {
		if recs, ok := s.snapshots.Get(ownerID); ok {
			return recs, nil
		}
	}

	version := s.version(ownerID)
	recs, err := s.store.ListRecords(ctx, ownerID, nil)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	recs = core.SortNewestFirst(core.OwnedBy(recs, ownerID))

	// A mutation or notification that raced the read makes this list stale.
	if s.snapshots != nil && s.version(ownerID) == version {
		s.snapshots.Set(ownerID, recs)
	}
	return recs, nil
}

// ListRecords returns the owner's records inside the window, newest first.
func (s *LedgerService) ListRecords(ctx context.Context, ownerID string, sel core.Selector) ([]core.Record, error) {
	recs, err := s.Records(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return core.FilterWindow(recs, sel, s.now(), s.obs), nil
}

// Summary recomputes the owner's summary for the window from the current
// snapshot. Without an owner it returns the empty summary.
func (s *LedgerService) Summary(ctx context.Context, ownerID string, sel core.Selector, theme core.Theme) (core.Summary, error) {
	if ownerID == "" {
		return core.EmptySummary(sel), nil
	}
	recs, err := s.Records(ctx, ownerID)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(recs, sel, core.Env{
		OwnerID:  ownerID,
		Now:      s.now(),
		Theme:    theme,
		Palette:  s.palette,
		Observer: s.obs,
	}), nil
}

// Insight returns advice for the owner's records in the window.
func (s *LedgerService) Insight(ctx context.Context, ownerID string, sel core.Selector) (string, error) {
	if ownerID == "" {
		return s.insight(ctx, "", nil), nil
	}
	window, err := s.ListRecords(ctx, ownerID, sel)
	if err != nil {
		return "", err
	}
	return s.insight(ctx, ownerID, window), nil
}

func (s *LedgerService) insight(ctx context.Context, ownerID string, window []core.Record) string {
	return s.advisor.Insight(ctx, ownerID, window)
}

// CreateRecord stores a draft for the owner, then drops the owner's
// snapshot and announces the change.
func (s *LedgerService) CreateRecord(ctx context.Context, ownerID string, d core.Draft) (core.Record, error) {
	if ownerID == "" {
		return core.Record{}, core.ErrMissingOwner
	}
	rec, err := s.store.CreateRecord(ctx, ownerID, d)
	if err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}

	s.InvalidateOwner(ownerID)
	applog.NewStructuredLogger(s.logger).LogRecordCreated(ctx, ownerID, rec.ID, string(rec.Category), rec.Amount.String())
	s.publish(ctx, events.NewRecordsChanged(ownerID, rec.ID, events.OpCreated))
	return rec, nil
}

// DeleteRecord removes one of the owner's records. Missing records yield
// store.ErrNotFound.
func (s *LedgerService) DeleteRecord(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrMissingOwner
	}
	if err := s.store.DeleteRecord(ctx, ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete record: %w", err)
	}

	s.InvalidateOwner(ownerID)
	s.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldOwnerID, ownerID,
		applog.FieldRecordID, id,
		applog.FieldOperation, applog.OpDelete)
	s.publish(ctx, events.NewRecordsChanged(ownerID, id, events.OpDeleted))
	return nil
}

// InvalidateOwner drops the owner's snapshot so the next read refetches.
func (s *LedgerService) InvalidateOwner(ownerID string) {
	s.mu.Lock()
	s.versions[ownerID]++
	s.mu.Unlock()
	if s.snapshots != nil {
		s.snapshots.Delete(ownerID)
	}
}

// HandleRecordsChanged is the events.Handler for change notifications.
func (s *LedgerService) HandleRecordsChanged(ctx context.Context, msg *events.RecordsChanged) error {
	s.InvalidateOwner(msg.OwnerID)
	s.logger.DebugContext(ctx, "Snapshot invalidated by notification",
		applog.FieldOwnerID, msg.OwnerID,
		applog.FieldRecordID, msg.RecordID,
		applog.FieldOperation, string(msg.Op))
	return nil
}

func (s *LedgerService) version(ownerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[ownerID]
}

func (s *LedgerService) publish(ctx context.Context, msg *events.RecordsChanged) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping change notification")
		return
	}
	// The mutation already succeeded; a lost notification only delays
	// other instances until their snapshot expires.
	if err := s.publisher.PublishRecordsChanged(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change notification",
			applog.FieldOwnerID, msg.OwnerID,
			applog.FieldRecordID, msg.RecordID,
			applog.FieldError, err)
	}
}
