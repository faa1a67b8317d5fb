package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/adapter/storage"
	"github.com/mnemo-lab/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Export holds CLI flags for the archive export destination
type Export struct {
	bucket string
}

// Flags returns CLI flags for export configuration
func (e *Export) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "export-bucket",
			Usage:       "Cloud Storage bucket for archive exports (empty disables export)",
			Sources:     cli.EnvVars("MNEMO_EXPORT_BUCKET"),
			Destination: &e.bucket,
		},
	}
}

// Configure returns the archive exporter, or nil when no bucket is set
func (e *Export) Configure(ctx context.Context) (interfaces.ArchiveStorage, error) {
	if e.bucket == "" {
		return nil, nil
	}

	exporter, err := storage.New(ctx, e.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create export storage", goerr.V("bucket", e.bucket))
	}

	logging.Default().Info("Archive export enabled", "bucket", e.bucket)
	return exporter, nil
}
