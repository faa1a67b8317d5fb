package usecase

import (
	"time"

	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
)

// Memory is the application service for the semantic memory store. The
// embedder and exporter are optional; without an embedder every record is
// stored vector-less and retrieval degrades to recency order.
type Memory struct {
	repo     interfaces.Repository
	embedder interfaces.EmbeddingClient
	exporter interfaces.ArchiveStorage
	policy   *model.LifecyclePolicy
	now      func() time.Time

	maintenanceParallelism int
}

type Option func(*Memory)

func WithEmbedding(client interfaces.EmbeddingClient) Option {
	return func(uc *Memory) {
		uc.embedder = client
	}
}

func WithExporter(exporter interfaces.ArchiveStorage) Option {
	return func(uc *Memory) {
		uc.exporter = exporter
	}
}

func WithPolicy(policy *model.LifecyclePolicy) Option {
	return func(uc *Memory) {
		uc.policy = policy
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *Memory) {
		uc.now = now
	}
}

func WithMaintenanceParallelism(n int) Option {
	return func(uc *Memory) {
		uc.maintenanceParallelism = n
	}
}

func New(repo interfaces.Repository, opts ...Option) *Memory {
	uc := &Memory{
		repo:                   repo,
		policy:                 model.DefaultLifecyclePolicy(),
		now:                    time.Now,
		maintenanceParallelism: 4,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Policy exposes the active lifecycle policy
func (uc *Memory) Policy() *model.LifecyclePolicy {
	return uc.policy
}
