package memory

import (
	"context"
	"iter"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
)

type recordRepository struct {
	mu     sync.RWMutex
	users  map[types.UserID]map[types.RecordID]*model.MemoryRecord
	nextID atomic.Int64
}

func newRecordRepository() *recordRepository {
	return &recordRepository{
		users: make(map[types.UserID]map[types.RecordID]*model.MemoryRecord),
	}
}

func (r *recordRepository) Insert(ctx context.Context, record *model.MemoryRecord) (types.RecordID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := record.Clone()
	created.ID = types.RecordID(r.nextID.Add(1))
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.LastAccessedAt.IsZero() {
		created.LastAccessedAt = created.CreatedAt
	}
	created.Category = created.Category.Normalize()
	created.State = created.State.Normalize()
	created.Version = 1

	bucket, exists := r.users[created.UserID]
	if !exists {
		bucket = make(map[types.RecordID]*model.MemoryRecord)
		r.users[created.UserID] = bucket
	}
	bucket[created.ID] = created

	return created.ID, nil
}

func (r *recordRepository) Get(ctx context.Context, userID types.UserID, id types.RecordID) (*model.MemoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.locked(userID, id)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// locked looks up a record; the caller must hold at least a read lock
func (r *recordRepository) locked(userID types.UserID, id types.RecordID) (*model.MemoryRecord, error) {
	bucket, exists := r.users[userID]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "memory record not found",
			goerr.V("user_id", userID), goerr.V("record_id", id))
	}
	rec, exists := bucket[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "memory record not found",
			goerr.V("user_id", userID), goerr.V("record_id", id))
	}
	return rec, nil
}

func (r *recordRepository) Scan(ctx context.Context, userID types.UserID, opts ...interfaces.ScanOption) iter.Seq2[*model.MemoryRecord, error] {
	filter := interfaces.NewScanFilter(opts...)

	return func(yield func(*model.MemoryRecord, error) bool) {
		// Snapshot under the read lock so an in-flight scan never observes
		// a concurrent transition mid-sequence.
		r.mu.RLock()
		bucket := r.users[userID]
		matched := make([]*model.MemoryRecord, 0, len(bucket))
		for _, rec := range bucket {
			if filter.Matches(rec) {
				matched = append(matched, rec.Clone())
			}
		}
		r.mu.RUnlock()

		sort.Slice(matched, func(i, j int) bool {
			if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].ID > matched[j].ID
			}
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})

		if filter.Limit > 0 && len(matched) > filter.Limit {
			matched = matched[:filter.Limit]
		}

		for _, rec := range matched {
			if err := ctx.Err(); err != nil {
				yield(nil, goerr.Wrap(err, "scan cancelled"))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (r *recordRepository) UpdateAccessStats(ctx context.Context, userID types.UserID, id types.RecordID, accessedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.locked(userID, id)
	if err != nil {
		return err
	}

	rec.AccessCount++
	rec.LastAccessedAt = accessedAt
	return nil
}

func (r *recordRepository) Transition(ctx context.Context, userID types.UserID, id types.RecordID, next types.LifecycleState, version int64, mutate func(*model.MemoryRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.locked(userID, id)
	if err != nil {
		return err
	}

	if rec.Version != version {
		return goerr.Wrap(types.ErrConflict, "record version changed",
			goerr.V("record_id", id),
			goerr.V("expected", version),
			goerr.V("actual", rec.Version))
	}

	if !rec.State.CanTransition(next) {
		return goerr.Wrap(types.ErrInvalidTransition, "lifecycle transition not allowed",
			goerr.V("record_id", id),
			goerr.V("from", rec.State.Normalize()),
			goerr.V("to", next))
	}

	updated := rec.Clone()
	if mutate != nil {
		mutate(updated)
	}
	// Immutable fields and the embedding survive any mutate callback
	updated.ID = rec.ID
	updated.UserID = rec.UserID
	updated.CreatedAt = rec.CreatedAt
	updated.Embedding = rec.Embedding
	updated.State = next
	updated.Version = rec.Version + 1

	r.users[userID][id] = updated
	return nil
}

func (r *recordRepository) Delete(ctx context.Context, userID types.UserID, id types.RecordID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bucket, exists := r.users[userID]; exists {
		delete(bucket, id)
	}
	return nil
}

func (r *recordRepository) Stats(ctx context.Context, userID types.UserID) (*model.UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.UserStats{}
	for _, rec := range r.users[userID] {
		stats.Total++
		switch rec.State.Normalize() {
		case types.LifecycleActive:
			stats.Active++
		case types.LifecycleCompressed:
			stats.Compressed++
		case types.LifecycleArchived:
			stats.Archived++
		}
	}
	return stats, nil
}

func (r *recordRepository) Purge(ctx context.Context, userID types.UserID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := int64(len(r.users[userID]))
	delete(r.users, userID)
	return count, nil
}

func (r *recordRepository) ListUsers(ctx context.Context) ([]types.UserID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]types.UserID, 0, len(r.users))
	for userID, bucket := range r.users {
		if len(bucket) > 0 {
			users = append(users, userID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}
