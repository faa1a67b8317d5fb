package firestore

import (
	"context"
	"encoding/json"
	"iter"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection    = "users"
	recordsCollection  = "records"
	countersCollection = "counters"
	recordCounterDoc   = "record_counter"
)

type recordRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRecordRepository(client *firestore.Client) *recordRepository {
	return &recordRepository{client: client}
}

func (r *recordRepository) collection(name string) string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_" + name
	}
	return name
}

func (r *recordRepository) userRef(userID types.UserID) *firestore.DocumentRef {
	return r.client.Collection(r.collection(usersCollection)).Doc(string(userID))
}

func (r *recordRepository) recordRef(userID types.UserID, id types.RecordID) *firestore.DocumentRef {
	return r.userRef(userID).Collection(recordsCollection).Doc(id.String())
}

// recordDoc is the Firestore document shape of a MemoryRecord. Metadata is
// stored as a JSON blob so arbitrary nested values survive the round trip.
type recordDoc struct {
	ID             int64              `firestore:"ID"`
	UserID         string             `firestore:"UserID"`
	Content        string             `firestore:"Content"`
	Embedding      firestore.Vector32 `firestore:"Embedding,omitempty"`
	Category       string             `firestore:"Category"`
	Metadata       string             `firestore:"Metadata,omitempty"`
	CreatedAt      time.Time          `firestore:"CreatedAt"`
	LastAccessedAt time.Time          `firestore:"LastAccessedAt"`
	AccessCount    int64              `firestore:"AccessCount"`
	State          string             `firestore:"State"`
	Version        int64              `firestore:"Version"`
}

func toRecordDoc(record *model.MemoryRecord) (*recordDoc, error) {
	doc := &recordDoc{
		ID:             int64(record.ID),
		UserID:         string(record.UserID),
		Content:        record.Content,
		Embedding:      firestore.Vector32(record.Embedding),
		Category:       string(record.Category),
		CreatedAt:      record.CreatedAt,
		LastAccessedAt: record.LastAccessedAt,
		AccessCount:    record.AccessCount,
		State:          record.State.String(),
		Version:        record.Version,
	}

	if len(record.Metadata) > 0 {
		raw, err := json.Marshal(record.Metadata)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal metadata")
		}
		doc.Metadata = string(raw)
	}

	return doc, nil
}

func (d *recordDoc) toModel() (*model.MemoryRecord, error) {
	record := &model.MemoryRecord{
		ID:             types.RecordID(d.ID),
		UserID:         types.UserID(d.UserID),
		Content:        d.Content,
		Embedding:      []float32(d.Embedding),
		Category:       types.Category(d.Category),
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
		AccessCount:    d.AccessCount,
		State:          types.LifecycleState(d.State).Normalize(),
		Version:        d.Version,
	}

	if d.Metadata != "" {
		if err := json.Unmarshal([]byte(d.Metadata), &record.Metadata); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal metadata",
				goerr.V("record_id", d.ID))
		}
	}

	return record, nil
}

// wrapStorage classifies backend errors: NotFound keeps its own sentinel,
// everything else surfaces as a storage failure.
func wrapStorage(err error, msg string, values ...goerr.Option) error {
	if status.Code(err) == codes.NotFound {
		return goerr.Wrap(types.ErrNotFound, msg, values...)
	}
	values = append(values, goerr.V("cause", err.Error()))
	return goerr.Wrap(types.ErrStorageUnavailable, msg, values...)
}

// Insert allocates a new monotonic ID from the counter document and writes
// the record plus the user registry entry in a single transaction.
func (r *recordRepository) Insert(ctx context.Context, record *model.MemoryRecord) (types.RecordID, error) {
	stored := record.Clone()
	stored.UserID = record.UserID
	stored.Category = stored.Category.Normalize()
	stored.State = stored.State.Normalize()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if stored.LastAccessedAt.IsZero() {
		stored.LastAccessedAt = stored.CreatedAt
	}
	stored.Version = 1

	counterRef := r.client.Collection(r.collection(countersCollection)).Doc(recordCounterDoc)

	var newID types.RecordID
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		next := int64(1)
		snap, err := tx.Get(counterRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if snap != nil && snap.Exists() {
			value, err := snap.DataAt("value")
			if err != nil {
				return err
			}
			if current, ok := value.(int64); ok {
				next = current + 1
			}
		}

		stored.ID = types.RecordID(next)
		doc, err := toRecordDoc(stored)
		if err != nil {
			return err
		}

		if err := tx.Set(counterRef, map[string]any{"value": next}); err != nil {
			return err
		}
		if err := tx.Set(r.userRef(stored.UserID), map[string]any{
			"UserID":     string(stored.UserID),
			"LastSeenAt": firestore.ServerTimestamp,
		}, firestore.MergeAll); err != nil {
			return err
		}
		if err := tx.Set(r.recordRef(stored.UserID, stored.ID), doc); err != nil {
			return err
		}

		newID = stored.ID
		return nil
	})
	if err != nil {
		return 0, wrapStorage(err, "failed to insert record",
			goerr.V("user_id", record.UserID))
	}

	return newID, nil
}

// Get retrieves a single record owned by userID
func (r *recordRepository) Get(ctx context.Context, userID types.UserID, id types.RecordID) (*model.MemoryRecord, error) {
	snap, err := r.recordRef(userID, id).Get(ctx)
	if err != nil {
		return nil, wrapStorage(err, "failed to get record",
			goerr.V("user_id", userID), goerr.V("record_id", id))
	}

	var doc recordDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode record",
			goerr.V("record_id", id))
	}

	return doc.toModel()
}

// Scan returns records ordered by CreatedAt descending. The returned
// sequence issues a fresh query each time it is ranged over.
func (r *recordRepository) Scan(ctx context.Context, userID types.UserID, opts ...interfaces.ScanOption) iter.Seq2[*model.MemoryRecord, error] {
	filter := interfaces.NewScanFilter(opts...)

	return func(yield func(*model.MemoryRecord, error) bool) {
		q := r.userRef(userID).Collection(recordsCollection).Query
		if filter.Category != "" {
			q = q.Where("Category", "==", string(filter.Category))
		}
		if len(filter.States) > 0 {
			states := make([]string, 0, len(filter.States))
			for _, s := range filter.States {
				states = append(states, s.String())
			}
			q = q.Where("State", "in", states)
		}
		if !filter.CreatedBefore.IsZero() {
			q = q.Where("CreatedAt", "<", filter.CreatedBefore)
		}
		q = q.OrderBy("CreatedAt", firestore.Desc)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}

		it := q.Documents(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				yield(nil, wrapStorage(err, "failed to scan records",
					goerr.V("user_id", userID)))
				return
			}

			var doc recordDoc
			if err := snap.DataTo(&doc); err != nil {
				yield(nil, goerr.Wrap(err, "failed to decode record",
					goerr.V("doc_id", snap.Ref.ID)))
				return
			}
			record, err := doc.toModel()
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// UpdateAccessStats bumps the access counter atomically via a server-side
// increment, so concurrent readers never lose updates.
func (r *recordRepository) UpdateAccessStats(ctx context.Context, userID types.UserID, id types.RecordID, accessedAt time.Time) error {
	_, err := r.recordRef(userID, id).Update(ctx, []firestore.Update{
		{Path: "AccessCount", Value: firestore.Increment(1)},
		{Path: "LastAccessedAt", Value: accessedAt},
	})
	if err != nil {
		return wrapStorage(err, "failed to update access stats",
			goerr.V("user_id", userID), goerr.V("record_id", id))
	}
	return nil
}

// Transition moves a record to the next lifecycle state with an optimistic
// version check inside a transaction.
func (r *recordRepository) Transition(ctx context.Context, userID types.UserID, id types.RecordID, next types.LifecycleState, version int64, mutate func(*model.MemoryRecord)) error {
	ref := r.recordRef(userID, id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var doc recordDoc
		if err := snap.DataTo(&doc); err != nil {
			return goerr.Wrap(err, "failed to decode record", goerr.V("record_id", id))
		}
		current, err := doc.toModel()
		if err != nil {
			return err
		}

		if current.Version != version {
			return goerr.Wrap(types.ErrConflict, "record version mismatch",
				goerr.V("record_id", id),
				goerr.V("expected_version", version),
				goerr.V("actual_version", current.Version))
		}
		if !current.State.CanTransition(next) {
			return goerr.Wrap(types.ErrInvalidTransition, "lifecycle transition not allowed",
				goerr.V("record_id", id),
				goerr.V("from", current.State),
				goerr.V("to", next))
		}

		updated := current.Clone()
		if mutate != nil {
			mutate(updated)
			updated.ID = current.ID
			updated.UserID = current.UserID
			updated.CreatedAt = current.CreatedAt
			updated.Embedding = current.Embedding
		}
		updated.State = next
		updated.Version = current.Version + 1

		stored, err := toRecordDoc(updated)
		if err != nil {
			return err
		}
		return tx.Set(ref, stored)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(types.ErrNotFound, "record not found",
				goerr.V("user_id", userID), goerr.V("record_id", id))
		}
		return err
	}
	return nil
}

// Delete removes a record. Deleting a missing record is a no-op.
func (r *recordRepository) Delete(ctx context.Context, userID types.UserID, id types.RecordID) error {
	if _, err := r.recordRef(userID, id).Delete(ctx); err != nil {
		return wrapStorage(err, "failed to delete record",
			goerr.V("user_id", userID), goerr.V("record_id", id))
	}
	return nil
}

// Stats counts records per lifecycle state for one user
func (r *recordRepository) Stats(ctx context.Context, userID types.UserID) (*model.UserStats, error) {
	it := r.userRef(userID).Collection(recordsCollection).Select("State").Documents(ctx)
	defer it.Stop()

	stats := &model.UserStats{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapStorage(err, "failed to count records",
				goerr.V("user_id", userID))
		}

		stats.Total++
		state, _ := snap.DataAt("State")
		switch s, _ := state.(string); types.LifecycleState(s).Normalize() {
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

// Purge deletes all records of a user and the user registry entry
func (r *recordRepository) Purge(ctx context.Context, userID types.UserID) (int64, error) {
	it := r.userRef(userID).Collection(recordsCollection).DocumentRefs(ctx)

	var deleted int64
	for {
		ref, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, wrapStorage(err, "failed to list records for purge",
				goerr.V("user_id", userID))
		}
		if _, err := ref.Delete(ctx); err != nil {
			return deleted, wrapStorage(err, "failed to purge record",
				goerr.V("user_id", userID), goerr.V("doc_id", ref.ID))
		}
		deleted++
	}

	if _, err := r.userRef(userID).Delete(ctx); err != nil {
		return deleted, wrapStorage(err, "failed to remove user entry",
			goerr.V("user_id", userID))
	}

	return deleted, nil
}

// ListUsers returns every user that has a registry entry
func (r *recordRepository) ListUsers(ctx context.Context) ([]types.UserID, error) {
	it := r.client.Collection(r.collection(usersCollection)).DocumentRefs(ctx)

	var users []types.UserID
	for {
		ref, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapStorage(err, "failed to list users")
		}
		users = append(users, types.UserID(ref.ID))
	}

	return users, nil
}
