package interfaces

import (
	"context"
	"io"
)

// ArchiveStorage is the destination for exported archived records. Keys are
// opaque object names; the maintenance pass writes one JSON object per user
// per run.
type ArchiveStorage interface {
	// Put returns a writer for the object at key
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get loads a previously exported object
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
