package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
)

// Stats returns per-state record counts for the user
func (uc *Memory) Stats(ctx context.Context, userID types.UserID) (*model.UserStats, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}

	stats, err := uc.repo.Records().Stats(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to collect stats", goerr.V("user_id", userID))
	}
	return stats, nil
}
