package worker

import (
	"context"
	"time"

	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
)

// MaintenanceWorker runs the lifecycle maintenance pass on a fixed interval.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - The pass itself is idempotent, so an overlapping run after a crash or
//   restart is harmless
type MaintenanceWorker struct {
	uc       *usecase.Memory
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewMaintenanceWorker creates a worker driving periodic maintenance
func NewMaintenanceWorker(uc *usecase.Memory, interval time.Duration) *MaintenanceWorker {
	return &MaintenanceWorker{
		uc:       uc,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background maintenance loop without blocking startup
func (w *MaintenanceWorker) Start(ctx context.Context) error {
	logging.Default().Info("maintenance worker starting", "interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *MaintenanceWorker) Stop() {
	logging.Default().Info("maintenance worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("maintenance worker stopped")
}

func (w *MaintenanceWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.uc.RunMaintenance(ctx); err != nil {
				// log and keep going; the next tick retries
				logging.Default().Error("maintenance pass failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("maintenance worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("maintenance worker context cancelled")
			return
		}
	}
}
