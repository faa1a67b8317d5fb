package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/repository/memory"
	"github.com/mnemo-lab/mnemo/pkg/service/worker"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
)

func TestMaintenanceWorkerRunsPeriodically(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.Records().Insert(ctx, &model.MemoryRecord{
		UserID:    "alice",
		Content:   "old idle note",
		CreatedAt: time.Now().Add(-40 * 24 * time.Hour),
	})
	gt.NoError(t, err).Required()

	uc := usecase.New(repo)
	w := worker.NewMaintenanceWorker(uc, 10*time.Millisecond)
	gt.NoError(t, w.Start(ctx)).Required()
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := repo.Records().Stats(ctx, "alice")
		gt.NoError(t, err).Required()
		if stats.Compressed == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("worker never compressed the aged record")
}

func TestMaintenanceWorkerStops(t *testing.T) {
	w := worker.NewMaintenanceWorker(usecase.New(memory.New()), 5*time.Millisecond)
	gt.NoError(t, w.Start(context.Background())).Required()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop in time")
	}
}
