package interfaces

import (
	"context"
	"iter"
	"time"

	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	Records() RecordRepository
	Close() error
}

// ScanFilter narrows a per-user scan. The zero value matches every record
// of the user, newest first.
type ScanFilter struct {
	Category      types.Category
	States        []types.LifecycleState
	Limit         int
	CreatedBefore time.Time
}

// ScanOption configures a ScanFilter
type ScanOption func(*ScanFilter)

// WithCategory restricts the scan to one category
func WithCategory(c types.Category) ScanOption {
	return func(f *ScanFilter) {
		f.Category = c
	}
}

// WithStates restricts the scan to the given lifecycle states
func WithStates(states ...types.LifecycleState) ScanOption {
	return func(f *ScanFilter) {
		f.States = states
	}
}

// WithLimit bounds the number of records produced
func WithLimit(n int) ScanOption {
	return func(f *ScanFilter) {
		f.Limit = n
	}
}

// WithCreatedBefore restricts the scan to records created strictly before t
func WithCreatedBefore(t time.Time) ScanOption {
	return func(f *ScanFilter) {
		f.CreatedBefore = t
	}
}

// NewScanFilter applies options to a zero filter
func NewScanFilter(opts ...ScanOption) ScanFilter {
	var f ScanFilter
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Matches reports whether the record passes the filter, ignoring Limit
func (f ScanFilter) Matches(r *model.MemoryRecord) bool {
	if f.Category != "" && r.Category.Normalize() != f.Category {
		return false
	}
	if len(f.States) > 0 {
		ok := false
		for _, s := range f.States {
			if r.State.Normalize() == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.CreatedBefore.IsZero() && !r.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	return true
}

// RecordRepository defines the interface for MemoryRecord persistence.
// Every operation is scoped by UserID; an operation for one user never
// observes or mutates records of another.
type RecordRepository interface {
	// Insert atomically persists a new record and allocates its monotonic
	// ID. Backend failures satisfy errors.Is(err, types.ErrStorageUnavailable).
	Insert(ctx context.Context, record *model.MemoryRecord) (types.RecordID, error)

	// Get retrieves a record by ID
	Get(ctx context.Context, userID types.UserID, id types.RecordID) (*model.MemoryRecord, error)

	// Scan produces a lazy, finite, restartable sequence of the user's
	// records ordered by CreatedAt descending. Each range over the sequence
	// re-executes the query.
	Scan(ctx context.Context, userID types.UserID, opts ...ScanOption) iter.Seq2[*model.MemoryRecord, error]

	// UpdateAccessStats atomically increments AccessCount and sets
	// LastAccessedAt. Concurrent calls never lose an increment.
	UpdateAccessStats(ctx context.Context, userID types.UserID, id types.RecordID, accessedAt time.Time) error

	// Transition moves the record to the next lifecycle state, conditional
	// on the caller's observed version. Returns types.ErrConflict on a
	// version mismatch, types.ErrInvalidTransition when next is unreachable,
	// and types.ErrNotFound when the record is missing. The optional mutate
	// callback is applied within the same conditional write (used for
	// content compression; it must not touch ID, UserID, CreatedAt or
	// Embedding).
	Transition(ctx context.Context, userID types.UserID, id types.RecordID, next types.LifecycleState, version int64, mutate func(*model.MemoryRecord)) error

	// Delete removes a record permanently. Deleting a missing ID is not an
	// error.
	Delete(ctx context.Context, userID types.UserID, id types.RecordID) error

	// Stats returns the lifecycle distribution of the user's records
	Stats(ctx context.Context, userID types.UserID) (*model.UserStats, error)

	// Purge removes all records of the user, returning the count removed
	Purge(ctx context.Context, userID types.UserID) (int64, error)

	// ListUsers enumerates users that have ever stored a record, for the
	// maintenance pass
	ListUsers(ctx context.Context) ([]types.UserID, error)
}
