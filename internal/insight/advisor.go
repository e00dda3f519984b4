package insight

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"seta/internal/core"
)

// Locker serializes an owner's insight requests across processes.
type Locker interface {
	Lock(ctx context.Context, ownerID string) (unlock func(), err error)
}

// Advisor issues at most one generation request per owner at a time.
// Callers asking about the same records while a request is in flight share
// its result. A different prompt for the same owner waits until the
// in-flight request resolves and then issues its own.
type Advisor struct {
	gen     Generator
	locker  Locker
	timeout time.Duration
	logger  *slog.Logger
	group   singleflight.Group

	mu    sync.Mutex
	slots map[string]*ownerSlot
}

// ownerSlot admits one generation request at a time for an owner.
type ownerSlot struct {
	ch   chan struct{}
	refs int
}

type Option func(*Advisor)

func WithLocker(l Locker) Option { return func(a *Advisor) { a.locker = l } }

// WithTimeout bounds each generation call. Zero means no bound.
func WithTimeout(d time.Duration) Option { return func(a *Advisor) { a.timeout = d } }

func WithLogger(l *slog.Logger) Option { return func(a *Advisor) { a.logger = l } }

// NewAdvisor builds an Advisor. A nil gen means no credential is
// configured and every non-empty request yields UnavailableText.
func NewAdvisor(gen Generator, opts ...Option) *Advisor {
	a := &Advisor{gen: gen, logger: slog.Default(), slots: make(map[string]*ownerSlot)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Insight returns display text for the owner's records. It never fails:
// problems are logged and mapped to the fixed copy.
func (a *Advisor) Insight(ctx context.Context, ownerID string, records []core.Record) string {
	prompt, ok := BuildPrompt(records)
	if !ok {
		return PlaceholderText
	}
	if a.gen == nil {
		a.logger.WarnContext(ctx, "Insight requested without a configured generator")
		return UnavailableText
	}

	// Sharing is limited to identical prompts so a request started before
	// a mutation never answers for the records after it.
	v, _, shared := a.group.Do(ownerID+"\n"+prompt, func() (any, error) {
		// The shared call must outlive any single waiter's cancellation.
		callCtx := context.WithoutCancel(ctx)
		release := a.acquire(ownerID)
		defer release()
		return a.generate(callCtx, ownerID, prompt), nil
	})
	if shared {
		a.logger.DebugContext(ctx, "Insight shared with in-flight request", "owner_id", ownerID)
	}
	return v.(string)
}

// acquire blocks until no other generation request for the owner is in
// flight in this process.
func (a *Advisor) acquire(ownerID string) (release func()) {
	a.mu.Lock()
	slot, ok := a.slots[ownerID]
	if !ok {
		slot = &ownerSlot{ch: make(chan struct{}, 1)}
		a.slots[ownerID] = slot
	}
	slot.refs++
	a.mu.Unlock()

	slot.ch <- struct{}{}
	return func() {
		<-slot.ch
		a.mu.Lock()
		slot.refs--
		if slot.refs == 0 {
			delete(a.slots, ownerID)
		}
		a.mu.Unlock()
	}
}

func (a *Advisor) generate(ctx context.Context, ownerID, prompt string) string {
	if a.locker != nil {
		unlock, err := a.locker.Lock(ctx, ownerID)
		if err != nil {
			a.logger.WarnContext(ctx, "Could not obtain insight lock", "owner_id", ownerID, "error", err)
			return FallbackText
		}
		defer unlock()
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.logger.WarnContext(ctx, "Insight generation failed", "owner_id", ownerID, "error", err, "duration", time.Since(start))
	}
	return Normalize(text, err)
}
