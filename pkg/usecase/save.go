package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
)

// Save stores a new memory for the user. Embedding generation is
// best-effort: any failure is logged and the record is stored without a
// vector, so a degraded embedding backend never blocks writes.
func (uc *Memory) Save(ctx context.Context, userID types.UserID, content string, metadata model.Metadata, category types.Category) (types.RecordID, error) {
	if err := userID.Validate(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(content) == "" {
		return 0, goerr.Wrap(types.ErrInvalidInput, "content cannot be empty",
			goerr.V("user_id", userID))
	}

	record := &model.MemoryRecord{
		UserID:    userID,
		Content:   content,
		Metadata:  metadata.Clone(),
		Category:  category.Normalize(),
		CreatedAt: uc.now(),
		State:     types.LifecycleActive,
	}

	if uc.embedder != nil {
		vector, err := uc.embedder.Embed(ctx, content)
		if err != nil {
			logging.From(ctx).Warn("embedding generation failed, saving without vector",
				"user_id", userID, "error", err)
		} else {
			record.Embedding = vector
		}
	}

	id, err := uc.repo.Records().Insert(ctx, record)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to save memory", goerr.V("user_id", userID))
	}

	logging.From(ctx).Debug("memory saved",
		"user_id", userID, "record_id", id, "category", record.Category,
		"has_embedding", record.HasEmbedding())

	return id, nil
}
