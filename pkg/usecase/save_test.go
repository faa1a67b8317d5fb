package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-lab/mnemo/pkg/adapter/embedding"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/repository/memory"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
)

func TestSaveStoresRecordWithEmbedding(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithEmbedding(embedding.NewMock()))
	ctx := context.Background()

	id, err := uc.Save(ctx, "alice", "Prefers React over Vue for frontend work",
		model.Metadata{"source": "chat"}, "preference")
	gt.NoError(t, err).Required()

	stored, err := repo.Records().Get(ctx, "alice", id)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.Content).Equal("Prefers React over Vue for frontend work")
	gt.Value(t, stored.Category).Equal(types.Category("preference"))
	gt.Value(t, stored.State).Equal(types.LifecycleActive)
	gt.True(t, stored.HasEmbedding())
	gt.Value(t, stored.Metadata["source"]).Equal("chat")
}

func TestSaveWithoutEmbedderStoresVectorless(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	id, err := uc.Save(ctx, "alice", "plain note", nil, "")
	gt.NoError(t, err).Required()

	stored, err := repo.Records().Get(ctx, "alice", id)
	gt.NoError(t, err).Required()
	gt.False(t, stored.HasEmbedding())
	gt.Value(t, stored.Category).Equal(types.DefaultCategory)
}

func TestSaveAbsorbsEmbeddingFailure(t *testing.T) {
	repo := memory.New()
	mock := embedding.NewMock().Fail(errors.New("embedding backend down"))
	uc := usecase.New(repo, usecase.WithEmbedding(mock))
	ctx := context.Background()

	id, err := uc.Save(ctx, "alice", "still worth remembering", nil, "")
	gt.NoError(t, err).Required()

	stored, err := repo.Records().Get(ctx, "alice", id)
	gt.NoError(t, err).Required()
	gt.False(t, stored.HasEmbedding())
	gt.Value(t, stored.Content).Equal("still worth remembering")
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	uc := usecase.New(memory.New())
	ctx := context.Background()

	_, err := uc.Save(ctx, "alice", "   \n\t", nil, "")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrInvalidInput))

	_, err = uc.Save(ctx, "", "valid content", nil, "")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrInvalidInput))
}
