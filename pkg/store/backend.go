package store

import (
	"context"
	"time"
)

// Row is one persisted commit row in a backend.
type Row struct {
	ID        int64     // commit id, assigned by the backend, starting at 1
	Message   string    // commit message
	Timestamp time.Time // commit time, stored in UTC
	Data      []byte    // compressed snapshot; nil when loaded without data
}

// Backend is the opaque transactional key-row store underneath the commit
// log. Implementations persist rows under monotonically increasing ids and
// support id-ordered range reads.
//
// Append must be atomic: a failed append leaves the store unchanged.
// Backends are single-writer; concurrent appends from multiple processes
// may fail with a storage error rather than serialize.
type Backend interface {
	// Append persists a new row with id = previous max id + 1 (or 1 when
	// empty) and returns it without the data payload.
	Append(ctx context.Context, message string, ts time.Time, data []byte) (Row, error)

	// Get returns the row with the given id, with or without its payload.
	// Absent ids fail with COMMIT_NOT_FOUND.
	Get(ctx context.Context, id int64, withData bool) (Row, error)

	// Latest returns the row with the maximum id.
	// An empty store fails with COMMIT_NOT_FOUND.
	Latest(ctx context.Context, withData bool) (Row, error)

	// Count returns the number of rows.
	Count(ctx context.Context) (int64, error)

	// Range returns up to limit rows in ascending id order, skipping the
	// first offset rows. A non-positive limit returns no rows.
	Range(ctx context.Context, offset, limit int64, withData bool) ([]Row, error)

	// Close releases held resources and handles. The backend is unusable
	// afterwards.
	Close() error
}
