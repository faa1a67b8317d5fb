package usecase

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
)

// RetrieveOption narrows a retrieval call
type RetrieveOption func(*retrieveRequest)

type retrieveRequest struct {
	category types.Category
}

func WithCategory(category types.Category) RetrieveOption {
	return func(r *retrieveRequest) {
		r.category = category
	}
}

type scoredRecord struct {
	record     *model.MemoryRecord
	similarity float64
}

// Retrieve returns up to limit memories relevant to query, most relevant
// first. With a usable query embedding, candidates are ranked by cosine
// similarity against the policy threshold; otherwise (no embedder, embedding
// failure, or no qualifying match) the most recent candidates are returned.
// Archived records are never considered.
func (uc *Memory) Retrieve(ctx context.Context, userID types.UserID, query string, limit int, opts ...RetrieveOption) ([]*model.MemoryRecord, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []*model.MemoryRecord{}, nil
	}

	var req retrieveRequest
	for _, opt := range opts {
		opt(&req)
	}

	var queryVector []float32
	if uc.embedder != nil && query != "" {
		vector, err := uc.embedder.Embed(ctx, query)
		if err != nil {
			logging.From(ctx).Warn("query embedding failed, falling back to recency",
				"user_id", userID, "error", err)
		} else {
			queryVector = vector
		}
	}

	scanOpts := []interfaces.ScanOption{
		interfaces.WithStates(types.RetrievableStates()...),
		interfaces.WithLimit(uc.policy.ScanLimit),
	}
	if req.category != "" {
		scanOpts = append(scanOpts, interfaces.WithCategory(req.category))
	}

	// Candidates arrive in CreatedAt descending order, which is already the
	// recency-fallback ranking.
	var candidates []*model.MemoryRecord
	for record, err := range uc.repo.Records().Scan(ctx, userID, scanOpts...) {
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan memories", goerr.V("user_id", userID))
		}
		candidates = append(candidates, record)
	}
	if len(candidates) == 0 {
		return []*model.MemoryRecord{}, nil
	}

	results := uc.rank(candidates, queryVector, limit)

	// Access tracking is best-effort; a failed increment must not fail the read.
	accessedAt := uc.now()
	for _, record := range results {
		if err := uc.repo.Records().UpdateAccessStats(ctx, userID, record.ID, accessedAt); err != nil {
			logging.From(ctx).Warn("failed to update access stats",
				"user_id", userID, "record_id", record.ID, "error", err)
		}
	}

	return results, nil
}

func (uc *Memory) rank(candidates []*model.MemoryRecord, queryVector []float32, limit int) []*model.MemoryRecord {
	if len(queryVector) > 0 {
		var scored []scoredRecord
		for _, record := range candidates {
			if !record.HasEmbedding() {
				continue
			}
			similarity := model.CosineSimilarity(queryVector, record.Embedding)
			if similarity >= uc.policy.SimilarityThreshold {
				scored = append(scored, scoredRecord{record: record, similarity: similarity})
			}
		}

		if len(scored) > 0 {
			sort.SliceStable(scored, func(i, j int) bool {
				if scored[i].similarity != scored[j].similarity {
					return scored[i].similarity > scored[j].similarity
				}
				return scored[i].record.CreatedAt.After(scored[j].record.CreatedAt)
			})
			if len(scored) > limit {
				scored = scored[:limit]
			}
			results := make([]*model.MemoryRecord, len(scored))
			for i, s := range scored {
				results[i] = s.record
			}
			return results
		}
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
