package interfaces

import "context"

// EmbeddingClient wraps a remote embedding provider. Implementations return
// a vector of model.EmbeddingDimension or an error; retry and budget
// policies are layered as decorators around this interface.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
