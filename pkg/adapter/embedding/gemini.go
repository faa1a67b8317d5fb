package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
)

// Gemini generates embedding vectors via a gollem LLM client. Input is
// truncated to the embedding input limit before the call.
type Gemini struct {
	client    gollem.LLMClient
	dimension int
}

var _ interfaces.EmbeddingClient = &Gemini{}

type GeminiOption func(*Gemini)

func WithDimension(dimension int) GeminiOption {
	return func(g *Gemini) {
		g.dimension = dimension
	}
}

func NewGemini(client gollem.LLMClient, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		client:    client,
		dimension: model.EmbeddingDimension,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	input := model.TruncateForEmbedding(text)

	embeddings, err := g.client.GenerateEmbedding(ctx, g.dimension, []string{input})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned")
	}

	vector := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		vector[i] = float32(v)
	}

	if len(vector) != g.dimension {
		return nil, goerr.New("unexpected embedding dimension",
			goerr.V("expected", g.dimension), goerr.V("actual", len(vector)))
	}

	return vector, nil
}
