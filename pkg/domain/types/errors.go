package types

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy shared across repository backends and the use case layer.
//
// Embedding failures are soft: they degrade a Save/Retrieve to the
// no-embedding path and are never surfaced to callers. Storage failures are
// hard and always surfaced.
var (
	// ErrInvalidInput is a caller error and is never retried
	ErrInvalidInput = goerr.New("invalid input")

	// ErrEmbeddingUnavailable marks a failed or skipped embedding generation
	ErrEmbeddingUnavailable = goerr.New("embedding unavailable")

	// ErrStorageUnavailable wraps backend failures of the persistent store
	ErrStorageUnavailable = goerr.New("storage unavailable")

	// ErrNotFound indicates the record does not exist. Delete treats it as
	// success; Transition treats it as an error.
	ErrNotFound = goerr.New("record not found")

	// ErrInvalidTransition indicates the requested lifecycle state is not
	// reachable from the current one
	ErrInvalidTransition = goerr.New("invalid lifecycle transition")

	// ErrConflict indicates an optimistic concurrency conflict; the caller
	// re-reads and retries a bounded number of times
	ErrConflict = goerr.New("version conflict")
)
