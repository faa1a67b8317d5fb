package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-lab/mnemo/pkg/adapter/storage"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/repository/memory"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/safe"
)

func insertAged(t *testing.T, repo interfaces.Repository, userID types.UserID, content string, age time.Duration, accesses int) types.RecordID {
	t.Helper()
	ctx := context.Background()

	id, err := repo.Records().Insert(ctx, &model.MemoryRecord{
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().Add(-age),
	})
	gt.NoError(t, err).Required()

	for range accesses {
		gt.NoError(t, repo.Records().UpdateAccessStats(ctx, userID, id, time.Now())).Required()
	}
	return id
}

func TestMaintenanceCompressesOldIdleRecords(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	longContent := strings.Repeat("a detailed note about infrastructure. ", 20)
	idleID := insertAged(t, repo, "alice", longContent, 40*24*time.Hour, 0)
	busyID := insertAged(t, repo, "alice", "frequently read note", 40*24*time.Hour, 10)
	freshID := insertAged(t, repo, "alice", "fresh note", 24*time.Hour, 0)

	report, err := uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, report.Compressed).Equal(1)
	gt.Number(t, report.Archived).Equal(0)
	gt.Number(t, report.Deleted).Equal(0)

	idle, err := repo.Records().Get(ctx, "alice", idleID)
	gt.NoError(t, err).Required()
	gt.Value(t, idle.State).Equal(types.LifecycleCompressed)
	gt.True(t, strings.HasSuffix(idle.Content, model.CompressionMarker))
	gt.Number(t, len([]rune(idle.Content))).Less(len([]rune(longContent)))

	busy, err := repo.Records().Get(ctx, "alice", busyID)
	gt.NoError(t, err).Required()
	gt.Value(t, busy.State).Equal(types.LifecycleActive)

	fresh, err := repo.Records().Get(ctx, "alice", freshID)
	gt.NoError(t, err).Required()
	gt.Value(t, fresh.State).Equal(types.LifecycleActive)
}

func TestMaintenanceArchivesAndExports(t *testing.T) {
	repo := memory.New()
	exporter := storage.NewMemory()
	uc := usecase.New(repo, usecase.WithExporter(exporter))
	ctx := context.Background()

	oldID := insertAged(t, repo, "alice", "stale note", 100*24*time.Hour, 0)
	readID := insertAged(t, repo, "alice", "old but read note", 100*24*time.Hour, 3)

	report, err := uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, report.Archived).Equal(1)
	gt.Number(t, report.Exported).Equal(1)

	archived, err := repo.Records().Get(ctx, "alice", oldID)
	gt.NoError(t, err).Required()
	gt.Value(t, archived.State).Equal(types.LifecycleArchived)

	// over the archive access threshold but under compress threshold
	read, err := repo.Records().Get(ctx, "alice", readID)
	gt.NoError(t, err).Required()
	gt.Value(t, read.State).Equal(types.LifecycleCompressed)

	keys := exporter.Keys()
	gt.Array(t, keys).Length(1).Required()
	gt.True(t, strings.HasPrefix(keys[0], "exports/alice/"))

	reader, err := exporter.Get(ctx, keys[0])
	gt.NoError(t, err).Required()
	defer safe.Close(ctx, reader)
	raw, err := io.ReadAll(reader)
	gt.NoError(t, err).Required()

	var exported []*model.MemoryRecord
	gt.NoError(t, json.Unmarshal(raw, &exported)).Required()
	gt.Array(t, exported).Length(1)
	gt.Value(t, exported[0].Content).Equal("stale note")
}

func TestMaintenanceDeletesExpiredRecords(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	expiredID := insertAged(t, repo, "alice", "ancient note", 400*24*time.Hour, 50)

	report, err := uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, report.Deleted).Equal(1)

	_, err = repo.Records().Get(ctx, "alice", expiredID)
	gt.True(t, errors.Is(err, types.ErrNotFound))
}

type failingExporter struct{}

func (failingExporter) Put(context.Context, string) (io.WriteCloser, error) {
	return nil, errors.New("bucket unreachable")
}

func (failingExporter) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("bucket unreachable")
}

func TestMaintenanceWithholdsDeletionWhenExportFails(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithExporter(failingExporter{}))
	ctx := context.Background()

	expiredID := insertAged(t, repo, "alice", "ancient note", 400*24*time.Hour, 0)

	report, err := uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, report.Deleted).Equal(0)
	gt.Number(t, report.Failed).Greater(0)

	_, err = repo.Records().Get(ctx, "alice", expiredID)
	gt.NoError(t, err)
}

func TestMaintenanceIsIdempotent(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	insertAged(t, repo, "alice", "old idle note", 40*24*time.Hour, 0)

	first, err := uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, first.Compressed).Equal(1)

	second, err := uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, second.Compressed).Equal(0)
	gt.Number(t, second.Failed).Equal(0)
}

func TestMaintenanceCoversAllUsers(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithMaintenanceParallelism(2))
	ctx := context.Background()

	insertAged(t, repo, "alice", "alice old note", 40*24*time.Hour, 0)
	insertAged(t, repo, "bob", "bob old note", 40*24*time.Hour, 0)
	insertAged(t, repo, "carol", "carol fresh note", time.Hour, 0)

	report, err := uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()
	gt.Number(t, report.Users).Equal(3)
	gt.Number(t, report.Compressed).Equal(2)
}

func TestMaintenanceTwoRunLifecycle(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()

	id := insertAged(t, repo, "alice", "long lived note", 100*24*time.Hour, 0)

	_, err := uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()

	record, err := repo.Records().Get(ctx, "alice", id)
	gt.NoError(t, err).Required()
	gt.Value(t, record.State).Equal(types.LifecycleArchived)

	// archived records stay put until the retention ceiling passes
	_, err = uc.RunMaintenance(ctx)
	gt.NoError(t, err).Required()

	record, err = repo.Records().Get(ctx, "alice", id)
	gt.NoError(t, err).Required()
	gt.Value(t, record.State).Equal(types.LifecycleArchived)
}
