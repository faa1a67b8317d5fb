package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/repository/memory"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
)

func TestStatsCountsByState(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	var ids []types.RecordID
	for _, content := range []string{"first", "second", "third"} {
		id, err := uc.Save(ctx, "alice", content, nil, "")
		gt.NoError(t, err).Required()
		ids = append(ids, id)
	}
	gt.NoError(t, repo.Records().Transition(ctx, "alice", ids[0], types.LifecycleCompressed, 1, nil)).Required()

	stats, err := uc.Stats(ctx, "alice")
	gt.NoError(t, err).Required()
	gt.Number(t, stats.Total).Equal(3)
	gt.Number(t, stats.Active).Equal(2)
	gt.Number(t, stats.Compressed).Equal(1)
	gt.Number(t, stats.Archived).Equal(0)
}

func TestStatsEmptyUser(t *testing.T) {
	uc := usecase.New(memory.New())

	stats, err := uc.Stats(context.Background(), "nobody")
	gt.NoError(t, err).Required()
	gt.Number(t, stats.Total).Equal(0)
}

func TestForgetRemovesRecord(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	id, err := uc.Save(ctx, "alice", "short lived", nil, "")
	gt.NoError(t, err).Required()

	gt.NoError(t, uc.Forget(ctx, "alice", id))
	_, err = repo.Records().Get(ctx, "alice", id)
	gt.True(t, errors.Is(err, types.ErrNotFound))

	// forgetting again is fine
	gt.NoError(t, uc.Forget(ctx, "alice", id))
}

func TestPurgeRemovesOnlyTargetUser(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	for _, content := range []string{"one", "two"} {
		_, err := uc.Save(ctx, "alice", content, nil, "")
		gt.NoError(t, err).Required()
	}
	_, err := uc.Save(ctx, "bob", "bob note", nil, "")
	gt.NoError(t, err).Required()

	deleted, err := uc.Purge(ctx, "alice")
	gt.NoError(t, err).Required()
	gt.Number(t, deleted).Equal(2)

	aliceStats, err := uc.Stats(ctx, "alice")
	gt.NoError(t, err).Required()
	gt.Number(t, aliceStats.Total).Equal(0)

	bobStats, err := uc.Stats(ctx, "bob")
	gt.NoError(t, err).Required()
	gt.Number(t, bobStats.Total).Equal(1)
}
