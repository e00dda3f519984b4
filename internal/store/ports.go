package store

import (
	"context"
	"errors"
	"time"

	"seta/internal/core"
)

var ErrNotFound = errors.New("record not found")

// Ports for outbound record store adapters. Every call is scoped to one
// owner; no adapter ever returns or deletes another owner's records.
type (
	Reader interface {
		// ListRecords returns the owner's records created at or after since
		// (all records when since is nil), in any order.
		ListRecords(ctx context.Context, ownerID string, since *time.Time) ([]core.Record, error)
	}

	Writer interface {
		// CreateRecord persists a draft for the owner and returns the stored
		// record with its assigned id and creation time.
		CreateRecord(ctx context.Context, ownerID string, d core.Draft) (core.Record, error)
	}

	// Deleter removes a record. Deleting an id that does not exist for the
	// owner returns ErrNotFound.
	Deleter interface {
		DeleteRecord(ctx context.Context, ownerID, id string) error
	}

	// Store is the full set of operations the ledger needs.
	Store interface {
		Reader
		Writer
		Deleter
	}
)
