package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/service/budget"
)

// budgetClient rejects embedding calls once the daily spend cap is reached
// and records the cost of every successful call.
type budgetClient struct {
	inner      interfaces.EmbeddingClient
	tracker    *budget.Tracker
	modelName  string
	dailyLimit float64
}

func WithBudget(inner interfaces.EmbeddingClient, tracker *budget.Tracker, modelName string, dailyLimit float64) interfaces.EmbeddingClient {
	return &budgetClient{
		inner:      inner,
		tracker:    tracker,
		modelName:  modelName,
		dailyLimit: dailyLimit,
	}
}

func (c *budgetClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.dailyLimit > 0 {
		if spent := c.tracker.DailyCost(); spent >= c.dailyLimit {
			return nil, goerr.Wrap(types.ErrEmbeddingUnavailable, "daily embedding budget exhausted",
				goerr.V("spent", spent), goerr.V("limit", c.dailyLimit))
		}
	}

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.tracker.LogEmbedding(c.modelName, text)
	return vector, nil
}
