package memory

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"seta/internal/core"
	"seta/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps records in process memory. It is the default backend for
// local development and tests.
type Store struct {
	mu    sync.Mutex
	items []core.Record
	now   func() time.Time
	obs   core.Observer
}

func New(obs core.Observer) *Store {
	return &Store{now: time.Now, obs: obs}
}

// NewFromFile seeds the store from a text file with one record per line:
//
//	owner,category,amount,created_at[,note]
//
// Blank lines and lines starting with # are skipped. Every field passes
// through the store boundary, so malformed seeds load with their issues
// flagged instead of failing. A missing file yields an empty store.
func NewFromFile(path string, obs core.Observer) *Store {
	s := New(obs)
	for _, line := range readLines(path) {
		parts := strings.SplitN(line, ",", 5)
		if len(parts) < 4 {
			continue
		}
		raw := store.RawRow{
			ID:        uuid.NewString(),
			OwnerID:   parts[0],
			Category:  parts[1],
			Amount:    parts[2],
			CreatedAt: parts[3],
		}
		if len(parts) == 5 {
			raw.Note = parts[4]
		}
		s.items = append(s.items, store.ParseRow(raw, s.obs))
	}
	return s
}

// SetClock replaces the creation-time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ListRecords returns the owner's records in insertion order.
func (s *Store) ListRecords(_ context.Context, ownerID string, since *time.Time) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Record
	for _, r := range s.items {
		if r.OwnerID != ownerID {
			continue
		}
		if since != nil && !r.CreatedAt.IsZero() && r.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// CreateRecord validates and stores the draft.
func (s *Store) CreateRecord(_ context.Context, ownerID string, d core.Draft) (core.Record, error) {
	if ownerID == "" {
		return core.Record{}, core.ErrMissingOwner
	}
	if err := d.Validate(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := core.Record{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Category:  d.Category,
		Amount:    d.Amount,
		Note:      strings.TrimSpace(d.Note),
		CreatedAt: s.now(),
	}
	s.items = append(s.items, r)
	return r, nil
}

func (s *Store) DeleteRecord(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.items {
		if r.ID == id && r.OwnerID == ownerID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func readLines(path string) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
