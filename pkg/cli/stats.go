package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/mnemo-lab/mnemo/pkg/cli/config"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdStats() *cli.Command {
	var user userFlags
	var repoCfg config.Repository

	flags := user.flags()
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show memory statistics for a user",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			userID, err := user.resolve(ctx)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			stats, err := usecase.New(repo).Stats(ctx, userID)
			if err != nil {
				return err
			}

			fmt.Printf("Memory stats for %s\n", color.CyanString(userID.String()))
			fmt.Printf("  total:      %d\n", stats.Total)
			fmt.Printf("  active:     %d\n", stats.Active)
			fmt.Printf("  compressed: %d\n", stats.Compressed)
			fmt.Printf("  archived:   %d\n", stats.Archived)
			return nil
		},
	}
}
