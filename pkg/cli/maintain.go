package cli

import (
	"context"
	"fmt"

	"github.com/mnemo-lab/mnemo/pkg/cli/config"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMaintain() *cli.Command {
	var repoCfg config.Repository
	var policyCfg config.Policy
	var exportCfg config.Export

	flags := repoCfg.Flags()
	flags = append(flags, policyCfg.Flags()...)
	flags = append(flags, exportCfg.Flags()...)

	return &cli.Command{
		Name:  "maintain",
		Usage: "Run one lifecycle maintenance pass and exit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			policy, err := policyCfg.Configure()
			if err != nil {
				return err
			}

			ucOpts := []usecase.Option{usecase.WithPolicy(policy)}
			exporter, err := exportCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if exporter != nil {
				ucOpts = append(ucOpts, usecase.WithExporter(exporter))
			}

			report, err := usecase.New(repo, ucOpts...).RunMaintenance(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Maintenance run %s finished in %s\n", report.RunID, report.Duration)
			fmt.Printf("  users:      %d\n", report.Users)
			fmt.Printf("  compressed: %d\n", report.Compressed)
			fmt.Printf("  archived:   %d\n", report.Archived)
			fmt.Printf("  deleted:    %d\n", report.Deleted)
			fmt.Printf("  exported:   %d\n", report.Exported)
			fmt.Printf("  skipped:    %d\n", report.Skipped)
			fmt.Printf("  failed:     %d\n", report.Failed)
			return nil
		},
	}
}
