package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/cli/config"
	httpctrl "github.com/mnemo-lab/mnemo/pkg/controller/http"
	"github.com/mnemo-lab/mnemo/pkg/service/worker"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var maintenanceInterval time.Duration
	var repoCfg config.Repository
	var embeddingCfg config.Embedding
	var policyCfg config.Policy
	var exportCfg config.Export

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MNEMO_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "maintenance-interval",
			Usage:       "Interval between lifecycle maintenance passes (0 disables the worker)",
			Value:       6 * time.Hour,
			Sources:     cli.EnvVars("MNEMO_MAINTENANCE_INTERVAL"),
			Destination: &maintenanceInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, embeddingCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)
	flags = append(flags, exportCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			policy, err := policyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load lifecycle policy")
			}

			ucOpts := []usecase.Option{
				usecase.WithPolicy(policy),
			}

			embedder, err := embeddingCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure embedding client")
			}
			if embedder != nil {
				ucOpts = append(ucOpts, usecase.WithEmbedding(embedder))
				logging.Default().Info("Embedding pipeline enabled")
			} else {
				logging.Default().Info("Gemini project not configured, storing memories without vectors")
			}

			exporter, err := exportCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure archive export")
			}
			if exporter != nil {
				ucOpts = append(ucOpts, usecase.WithExporter(exporter))
			}

			uc := usecase.New(repo, ucOpts...)

			// Periodic lifecycle maintenance
			var maintenanceWorker *worker.MaintenanceWorker
			if maintenanceInterval > 0 {
				maintenanceWorker = worker.NewMaintenanceWorker(uc, maintenanceInterval)
				if err := maintenanceWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start maintenance worker")
				}
			}

			httpHandler := httpctrl.New(uc)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if maintenanceWorker != nil {
					maintenanceWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
