package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
)

// Forget removes a single memory. Forgetting a record that does not exist
// is not an error.
func (uc *Memory) Forget(ctx context.Context, userID types.UserID, id types.RecordID) error {
	if err := userID.Validate(); err != nil {
		return err
	}

	if err := uc.repo.Records().Delete(ctx, userID, id); err != nil {
		return goerr.Wrap(err, "failed to forget memory",
			goerr.V("user_id", userID), goerr.V("record_id", id))
	}

	logging.From(ctx).Info("memory forgotten", "user_id", userID, "record_id", id)
	return nil
}

// Purge removes every memory the user has and returns the number deleted
func (uc *Memory) Purge(ctx context.Context, userID types.UserID) (int64, error) {
	if err := userID.Validate(); err != nil {
		return 0, err
	}

	deleted, err := uc.repo.Records().Purge(ctx, userID)
	if err != nil {
		return deleted, goerr.Wrap(err, "failed to purge memories", goerr.V("user_id", userID))
	}

	logging.From(ctx).Info("user memories purged", "user_id", userID, "deleted", deleted)
	return deleted, nil
}
