package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultRetryInterval = 200 * time.Millisecond
	defaultMaxTries      = 3
)

// retryClient retries transient embedding failures with exponential backoff
// (200ms, 400ms, ...). Client-side errors are not retried.
type retryClient struct {
	inner    interfaces.EmbeddingClient
	interval time.Duration
	maxTries uint
}

type RetryOption func(*retryClient)

func WithRetryInterval(interval time.Duration) RetryOption {
	return func(c *retryClient) {
		c.interval = interval
	}
}

func WithMaxTries(n uint) RetryOption {
	return func(c *retryClient) {
		c.maxTries = n
	}
}

func WithRetry(inner interfaces.EmbeddingClient, opts ...RetryOption) interfaces.EmbeddingClient {
	c := &retryClient{
		inner:    inner,
		interval: defaultRetryInterval,
		maxTries: defaultMaxTries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *retryClient) Embed(ctx context.Context, text string) ([]float32, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	b.Multiplier = 2
	b.RandomizationFactor = 0

	return backoff.Retry(ctx, func() ([]float32, error) {
		vector, err := c.inner.Embed(ctx, text)
		if err != nil && !isTransient(err) {
			return nil, backoff.Permanent(err)
		}
		return vector, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))
}

// isTransient reports whether a failed call is worth retrying. Anything that
// is not a clear client-side error counts as transient.
func isTransient(err error) bool {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition:
		return false
	}
	return true
}
