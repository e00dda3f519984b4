// Package postgres stores expense records in a PostgreSQL table through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"seta/internal/core"
	"seta/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS expenses (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	category   TEXT NOT NULL,
	amount     NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
	note       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_expenses_user_created ON expenses (user_id, created_at DESC);
`

var _ store.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
	obs  core.Observer
}

// Open connects to databaseURL and makes sure the expenses table exists.
func Open(ctx context.Context, databaseURL string, obs core.Observer) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool, now: time.Now, obs: obs}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ListRecords implements store.Reader. Amounts are read back as text so
// that NUMERIC values reach the boundary parser without float rounding.
func (s *Store) ListRecords(ctx context.Context, ownerID string, since *time.Time) ([]core.Record, error) {
	query := `SELECT id, user_id, category, amount::text, note, created_at FROM expenses WHERE user_id = $1`
	args := []any{ownerID}
	if since != nil {
		query += ` AND created_at >= $2`
		args = append(args, *since)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var raws []store.RawRow
	for rows.Next() {
		var (
			raw              store.RawRow
			category, amount string
			note             *string
			createdAt        *time.Time
		)
		if err := rows.Scan(&raw.ID, &raw.OwnerID, &category, &amount, &note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		raw.Category = category
		raw.Amount = amount
		if note != nil {
			raw.Note = *note
		}
		raw.CreatedAt = createdAt
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return store.ParseRows(raws, s.obs), nil
}

// CreateRecord implements store.Writer
func (s *Store) CreateRecord(ctx context.Context, ownerID string, d core.Draft) (core.Record, error) {
	if ownerID == "" {
		return core.Record{}, core.ErrMissingOwner
	}
	if err := d.Validate(); err != nil {
		return core.Record{}, err
	}
	rec := core.Record{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Category:  d.Category,
		Amount:    d.Amount,
		Note:      strings.TrimSpace(d.Note),
		CreatedAt: s.now().UTC(),
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (id, user_id, category, amount, note, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6) RETURNING created_at`,
		rec.ID, rec.OwnerID, string(rec.Category), rec.Amount.String(), rec.Note, rec.CreatedAt,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to Postgres",
		"id", rec.ID,
		"category", rec.Category,
		"amount", rec.Amount.String())
	return rec, nil
}

// DeleteRecord implements store.Deleter
func (s *Store) DeleteRecord(ctx context.Context, ownerID, id string) error {
	var deleted string
	err := s.pool.QueryRow(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2 RETURNING id`, id, ownerID,
	).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted from Postgres", "id", id)
	return nil
}
