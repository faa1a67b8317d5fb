package embedding

import (
	"context"
	"math"
	"sync"

	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
)

// Mock is a test double. Vectors are served per input text; unscripted
// inputs get a deterministic unit vector derived from the text.
type Mock struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   []string
}

var _ interfaces.EmbeddingClient = &Mock{}

func NewMock() *Mock {
	return &Mock{vectors: map[string][]float32{}}
}

// Script registers the vector returned for an exact input text
func (m *Mock) Script(text string, vector []float32) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vector
	return m
}

// Fail makes every Embed call return err
func (m *Mock) Fail(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Calls returns the inputs seen so far
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}

func (m *Mock) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	if vector, ok := m.vectors[text]; ok {
		return vector, nil
	}

	vector := make([]float32, model.EmbeddingDimension)
	var sum float64
	for i := range vector {
		v := float32((i*31+len(text)*7)%97) / 97
		vector[i] = v
		sum += float64(v) * float64(v)
	}
	// normalize so cosine comparisons behave
	if sum > 0 {
		norm := math.Sqrt(sum)
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}
	return vector, nil
}
