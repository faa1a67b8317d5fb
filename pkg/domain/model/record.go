package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/mnemo-lab/mnemo/pkg/domain/types"
)

// EmbeddingDimension is the fixed dimensionality of stored vectors.
// Changing it requires a migration; vectors of a different length are
// excluded from similarity ranking and degrade to recency candidates.
const EmbeddingDimension = 768

// EmbeddingInputLimit is the maximum number of runes sent to the embedding
// provider. Longer content is truncated before the call; the stored content
// itself is not modified.
const EmbeddingInputLimit = 8000

// Metadata is an opaque structured payload attached to a record. It is
// serialized at the storage boundary and returned verbatim; no component
// interprets its shape.
type Metadata map[string]any

// Clone returns a deep copy via a JSON round trip. A nil map stays nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return Metadata{}
	}
	var clone Metadata
	if err := json.Unmarshal(raw, &clone); err != nil {
		return Metadata{}
	}
	return clone
}

// MemoryRecord is a per-user interaction summary with an optional embedding
// for similarity search. ID, UserID and CreatedAt are immutable after
// creation; Embedding, once set, is never cleared except by deletion.
type MemoryRecord struct {
	ID             types.RecordID
	UserID         types.UserID
	Content        string `masq:"secret"`
	Embedding      []float32
	Category       types.Category
	Metadata       Metadata
	CreatedAt      time.Time
	LastAccessedAt time.Time
	AccessCount    int64
	State          types.LifecycleState
	Version        int64
}

// HasEmbedding reports whether the record carries a usable vector of the
// active dimensionality
func (r *MemoryRecord) HasEmbedding() bool {
	return len(r.Embedding) == EmbeddingDimension
}

// Clone returns a deep copy of the record
func (r *MemoryRecord) Clone() *MemoryRecord {
	copied := *r
	if r.Embedding != nil {
		copied.Embedding = make([]float32, len(r.Embedding))
		copy(copied.Embedding, r.Embedding)
	}
	copied.Metadata = r.Metadata.Clone()
	return &copied
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// ranging from -1 to 1. Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}

// TruncateForEmbedding returns content cut to EmbeddingInputLimit runes
func TruncateForEmbedding(content string) string {
	runes := []rune(content)
	if len(runes) <= EmbeddingInputLimit {
		return content
	}
	return string(runes[:EmbeddingInputLimit])
}
