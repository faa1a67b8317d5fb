package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
)

// Firestore is the durable Repository implementation. Records live in
// per-user subcollections (users/{userID}/records/{recordID}) so that every
// query is physically scoped to one partition key.
type Firestore struct {
	client  *firestore.Client
	records *recordRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, used to isolate test runs
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.records.collectionPrefix = prefix
	}
}

// New creates a Firestore-backed repository. databaseID may be empty for
// the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}

	f := &Firestore{
		client:  client,
		records: newRecordRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Records returns the record repository
func (f *Firestore) Records() interfaces.RecordRepository {
	return f.records
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
