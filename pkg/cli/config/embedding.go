package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/mnemo-lab/mnemo/pkg/adapter/embedding"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/service/budget"
	"github.com/urfave/cli/v3"
)

// Embedding holds CLI flags for the embedding provider. Without a Gemini
// project the embedding pipeline is disabled and records are stored without
// vectors.
type Embedding struct {
	projectID   string
	location    string
	modelName   string
	dimension   int64
	dailyBudget float64
}

// Flags returns CLI flags for embedding configuration
func (e *Embedding) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for the Gemini embedding API",
			Sources:     cli.EnvVars("MNEMO_GEMINI_PROJECT"),
			Destination: &e.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for the Gemini embedding API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MNEMO_GEMINI_LOCATION"),
			Destination: &e.location,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name used for cost accounting",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("MNEMO_EMBEDDING_MODEL"),
			Destination: &e.modelName,
		},
		&cli.Int64Flag{
			Name:        "embedding-dimension",
			Usage:       "Dimension of generated embedding vectors",
			Value:       model.EmbeddingDimension,
			Sources:     cli.EnvVars("MNEMO_EMBEDDING_DIMENSION"),
			Destination: &e.dimension,
		},
		&cli.FloatFlag{
			Name:        "embedding-daily-budget",
			Usage:       "Daily embedding spend cap in USD (0 disables the cap)",
			Value:       0,
			Sources:     cli.EnvVars("MNEMO_EMBEDDING_DAILY_BUDGET"),
			Destination: &e.dailyBudget,
		},
	}
}

// LogAttrs returns log attributes for the embedding configuration
func (e *Embedding) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", e.projectID),
		slog.String("location", e.location),
		slog.String("model", e.modelName),
		slog.Int64("dimension", e.dimension),
		slog.Float64("daily_budget", e.dailyBudget),
	}
}

// Configure builds the embedding client chain: Gemini wrapped with retry and
// the budget gate. Returns nil without error when no project is configured.
func (e *Embedding) Configure(ctx context.Context) (interfaces.EmbeddingClient, error) {
	if e.projectID == "" {
		return nil, nil
	}

	llmClient, err := gemini.New(ctx, e.projectID, e.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	dimension := int(e.dimension)
	if dimension <= 0 {
		dimension = model.EmbeddingDimension
	}
	client := embedding.WithRetry(
		embedding.NewGemini(llmClient, embedding.WithDimension(dimension)))

	tracker := budget.New()
	return embedding.WithBudget(client, tracker, e.modelName, e.dailyBudget), nil
}
