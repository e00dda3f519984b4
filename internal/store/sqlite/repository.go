package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"seta/internal/core"
	"seta/internal/store"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so that text comparison in SQL matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var _ store.Store = (*Repository)(nil)

type Repository struct {
	db  *sql.DB
	now func() time.Time
	obs core.Observer
}

func NewRepository(dbPath string, obs core.Observer) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now, obs: obs}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetClock replaces the creation-time source.
func (r *Repository) SetClock(now func() time.Time) {
	r.now = now
}

// ListRecords implements store.Reader
func (r *Repository) ListRecords(ctx context.Context, ownerID string, since *time.Time) ([]core.Record, error) {
	query := `SELECT id, owner_id, category, amount, note, created_at FROM expenses WHERE owner_id = ?`
	args := []any{ownerID}
	if since != nil {
		query += ` AND created_at >= ?`
		args = append(args, since.UTC().Format(timeLayout))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var raws []store.RawRow
	for rows.Next() {
		var (
			raw                          store.RawRow
			category, amount, note, when sql.NullString
		)
		if err := rows.Scan(&raw.ID, &raw.OwnerID, &category, &amount, &note, &when); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		raw.Category = category.String
		raw.Amount = amount.String
		raw.Note = note.String
		raw.CreatedAt = when.String
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return store.ParseRows(raws, r.obs), nil
}

// CreateRecord implements store.Writer
func (r *Repository) CreateRecord(ctx context.Context, ownerID string, d core.Draft) (core.Record, error) {
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
		CreatedAt: r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, owner_id, category, amount, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, string(rec.Category), rec.Amount.String(), rec.Note, rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Record{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", rec.ID,
		"category", rec.Category,
		"amount", rec.Amount.String())

	return rec, nil
}

// DeleteRecord implements store.Deleter
func (r *Repository) DeleteRecord(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}
