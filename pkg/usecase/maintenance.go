package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const transitionMaxAttempts = 3

type maintCounters struct {
	compressed atomic.Int64
	archived   atomic.Int64
	deleted    atomic.Int64
	exported   atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
}

// RunMaintenance applies the lifecycle policy to every known user: old
// rarely-read records are compressed, then archived, and records past the
// retention ceiling are deleted after export. The pass is idempotent and
// safe to run concurrently with live traffic; contended records are skipped
// and picked up by the next run.
func (uc *Memory) RunMaintenance(ctx context.Context) (*model.MaintenanceReport, error) {
	startedAt := uc.now()
	runID := uuid.New().String()
	logger := logging.From(ctx).With("run_id", runID)
	ctx = logging.With(ctx, logger)

	users, err := uc.repo.Records().ListUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users for maintenance")
	}

	var counters maintCounters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.maintenanceParallelism)

	for _, userID := range users {
		g.Go(func() error {
			// per-user failures are isolated; the pass always completes
			uc.maintainUser(gctx, runID, userID, &counters)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &model.MaintenanceReport{
		RunID:      runID,
		StartedAt:  startedAt,
		Duration:   uc.now().Sub(startedAt),
		Users:      len(users),
		Compressed: counters.compressed.Load(),
		Archived:   counters.archived.Load(),
		Deleted:    counters.deleted.Load(),
		Exported:   counters.exported.Load(),
		Skipped:    counters.skipped.Load(),
		Failed:     counters.failed.Load(),
	}

	logger.Info("maintenance pass finished",
		"users", report.Users,
		"compressed", report.Compressed,
		"archived", report.Archived,
		"deleted", report.Deleted,
		"exported", report.Exported,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration)

	return report, nil
}

func (uc *Memory) maintainUser(ctx context.Context, runID string, userID types.UserID, counters *maintCounters) {
	logger := logging.From(ctx).With("user_id", userID)
	now := uc.now()

	var toCompress, toArchive, toDelete []*model.MemoryRecord
	for record, err := range uc.repo.Records().Scan(ctx, userID) {
		if err != nil {
			logger.Error("failed to scan user records, skipping user", "error", err)
			counters.failed.Add(1)
			return
		}

		age := now.Sub(record.CreatedAt)
		switch {
		case age > uc.policy.RetainFor:
			toDelete = append(toDelete, record)
		case record.State != types.LifecycleArchived &&
			age > uc.policy.ArchiveAfter &&
			record.AccessCount < uc.policy.ArchiveMaxAccess:
			toArchive = append(toArchive, record)
		case record.State == types.LifecycleActive &&
			age > uc.policy.CompressAfter &&
			record.AccessCount < uc.policy.CompressMaxAccess:
			toCompress = append(toCompress, record)
		}
	}

	// Outbound records leave the export trail before anything is removed.
	// If the export fails, deletions are withheld until a later run.
	deleteAllowed := true
	if uc.exporter != nil && len(toArchive)+len(toDelete) > 0 {
		outbound := append(append([]*model.MemoryRecord{}, toArchive...), toDelete...)
		if err := uc.exportRecords(ctx, runID, userID, outbound); err != nil {
			logger.Error("failed to export records, withholding deletions", "error", err)
			counters.failed.Add(1)
			deleteAllowed = false
		} else {
			counters.exported.Add(int64(len(outbound)))
		}
	}

	for _, record := range toCompress {
		err := uc.transitionWithRetry(ctx, userID, record, types.LifecycleCompressed, func(r *model.MemoryRecord) {
			r.Content = uc.policy.CompressContent(r.Content)
		})
		switch {
		case err == nil:
			counters.compressed.Add(1)
		case errors.Is(err, types.ErrConflict):
			counters.skipped.Add(1)
		default:
			logger.Warn("failed to compress record", "record_id", record.ID, "error", err)
			counters.failed.Add(1)
		}
	}

	for _, record := range toArchive {
		err := uc.transitionWithRetry(ctx, userID, record, types.LifecycleArchived, nil)
		switch {
		case err == nil:
			counters.archived.Add(1)
		case errors.Is(err, types.ErrConflict):
			counters.skipped.Add(1)
		default:
			logger.Warn("failed to archive record", "record_id", record.ID, "error", err)
			counters.failed.Add(1)
		}
	}

	if !deleteAllowed {
		counters.skipped.Add(int64(len(toDelete)))
		return
	}
	for _, record := range toDelete {
		if err := uc.repo.Records().Delete(ctx, userID, record.ID); err != nil {
			logger.Warn("failed to delete expired record", "record_id", record.ID, "error", err)
			counters.failed.Add(1)
			continue
		}
		counters.deleted.Add(1)
	}
}

// transitionWithRetry performs an optimistic transition, re-reading the
// record on version conflicts. A record that already reached the target
// state counts as success.
func (uc *Memory) transitionWithRetry(ctx context.Context, userID types.UserID, record *model.MemoryRecord, next types.LifecycleState, mutate func(*model.MemoryRecord)) error {
	version := record.Version

	for attempt := 0; attempt < transitionMaxAttempts; attempt++ {
		err := uc.repo.Records().Transition(ctx, userID, record.ID, next, version, mutate)
		if err == nil {
			return nil
		}
		if errors.Is(err, types.ErrNotFound) {
			// deleted underneath us, nothing left to do
			return nil
		}
		if !errors.Is(err, types.ErrConflict) {
			return err
		}

		current, getErr := uc.repo.Records().Get(ctx, userID, record.ID)
		if getErr != nil {
			if errors.Is(getErr, types.ErrNotFound) {
				return nil
			}
			return getErr
		}
		if current.State == next {
			return nil
		}
		if !current.State.CanTransition(next) {
			return goerr.Wrap(types.ErrInvalidTransition, "record moved past target state",
				goerr.V("record_id", record.ID),
				goerr.V("current", current.State),
				goerr.V("target", next))
		}
		version = current.Version
	}

	return goerr.Wrap(types.ErrConflict, "transition contended, giving up",
		goerr.V("record_id", record.ID), goerr.V("target", next))
}

func (uc *Memory) exportRecords(ctx context.Context, runID string, userID types.UserID, records []*model.MemoryRecord) error {
	key := fmt.Sprintf("exports/%s/%s.json", userID, runID)

	w, err := uc.exporter.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open export object", goerr.V("key", key))
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(records); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to encode export", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize export object", goerr.V("key", key))
	}
	return nil
}
