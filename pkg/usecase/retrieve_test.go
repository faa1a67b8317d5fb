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

func unitVector(axis int) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[axis] = 1
	return v
}

func mixedVector(a, b int, wa, wb float32) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[a] = wa
	v[b] = wb
	return v
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	repo := memory.New()
	mock := embedding.NewMock().
		Script("what frontend framework?", unitVector(0)).
		Script("Prefers React for all frontend work", unitVector(0)).
		Script("Likes PostgreSQL over MySQL", mixedVector(0, 1, 0.8, 0.6)).
		Script("Enjoys hiking on weekends", unitVector(1))
	uc := usecase.New(repo, usecase.WithEmbedding(mock))
	ctx := context.Background()

	for _, content := range []string{
		"Prefers React for all frontend work",
		"Likes PostgreSQL over MySQL",
		"Enjoys hiking on weekends",
	} {
		_, err := uc.Save(ctx, "alice", content, nil, "")
		gt.NoError(t, err).Required()
	}

	results, err := uc.Retrieve(ctx, "alice", "what frontend framework?", 5)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(2).Required()
	gt.Value(t, results[0].Content).Equal("Prefers React for all frontend work")
	gt.Value(t, results[1].Content).Equal("Likes PostgreSQL over MySQL")
}

func TestRetrieveFallsBackToRecencyWithoutMatches(t *testing.T) {
	repo := memory.New()
	mock := embedding.NewMock().
		Script("unrelated query", unitVector(5)).
		Script("first note", unitVector(0)).
		Script("second note", unitVector(1))
	uc := usecase.New(repo, usecase.WithEmbedding(mock))
	ctx := context.Background()

	_, err := uc.Save(ctx, "alice", "first note", nil, "")
	gt.NoError(t, err).Required()
	_, err = uc.Save(ctx, "alice", "second note", nil, "")
	gt.NoError(t, err).Required()

	results, err := uc.Retrieve(ctx, "alice", "unrelated query", 5)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(2).Required()
	gt.Value(t, results[0].Content).Equal("second note")
	gt.Value(t, results[1].Content).Equal("first note")
}

func TestRetrieveFallsBackWhenEmbeddingFails(t *testing.T) {
	repo := memory.New()
	writer := usecase.New(repo, usecase.WithEmbedding(embedding.NewMock()))
	ctx := context.Background()

	_, err := writer.Save(ctx, "alice", "remembered despite outage", nil, "")
	gt.NoError(t, err).Required()

	reader := usecase.New(repo, usecase.WithEmbedding(
		embedding.NewMock().Fail(errors.New("backend down"))))
	results, err := reader.Retrieve(ctx, "alice", "anything", 5)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(1)
}

func TestRetrieveUpdatesAccessStats(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	id, err := uc.Save(ctx, "alice", "tracked note", nil, "")
	gt.NoError(t, err).Required()

	for range 3 {
		_, err := uc.Retrieve(ctx, "alice", "", 5)
		gt.NoError(t, err).Required()
	}

	stored, err := repo.Records().Get(ctx, "alice", id)
	gt.NoError(t, err).Required()
	gt.Number(t, stored.AccessCount).Equal(3)
}

func TestRetrieveExcludesArchivedRecords(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	keptID, err := uc.Save(ctx, "alice", "kept note", nil, "")
	gt.NoError(t, err).Required()
	archivedID, err := uc.Save(ctx, "alice", "archived note", nil, "")
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.Records().Transition(ctx, "alice", archivedID, types.LifecycleArchived, 1, nil)).Required()

	results, err := uc.Retrieve(ctx, "alice", "", 5)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(1).Required()
	gt.Value(t, results[0].ID).Equal(keptID)
}

func TestRetrieveFiltersByCategory(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	_, err := uc.Save(ctx, "alice", "work note", nil, "work")
	gt.NoError(t, err).Required()
	_, err = uc.Save(ctx, "alice", "personal note", nil, "personal")
	gt.NoError(t, err).Required()

	results, err := uc.Retrieve(ctx, "alice", "", 5, usecase.WithCategory("work"))
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(1).Required()
	gt.Value(t, results[0].Content).Equal("work note")
}

func TestRetrieveEdgeCases(t *testing.T) {
	uc := usecase.New(memory.New())
	ctx := context.Background()

	t.Run("zero limit returns empty", func(t *testing.T) {
		results, err := uc.Retrieve(ctx, "alice", "query", 0)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(0)
	})

	t.Run("empty store returns empty", func(t *testing.T) {
		results, err := uc.Retrieve(ctx, "nobody", "query", 5)
		gt.NoError(t, err).Required()
		gt.Array(t, results).Length(0)
	})

	t.Run("empty user is rejected", func(t *testing.T) {
		_, err := uc.Retrieve(ctx, "", "query", 5)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrInvalidInput))
	})
}
