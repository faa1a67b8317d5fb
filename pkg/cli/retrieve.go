package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/mnemo-lab/mnemo/pkg/cli/config"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdRetrieve() *cli.Command {
	var user userFlags
	var limit int
	var category string
	var repoCfg config.Repository
	var embeddingCfg config.Embedding

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of memories to return",
			Value:       5,
			Destination: &limit,
		},
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Restrict results to one category",
			Destination: &category,
		},
	}
	flags = append(flags, user.flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, embeddingCfg.Flags()...)

	return &cli.Command{
		Name:      "retrieve",
		Aliases:   []string{"r"},
		Usage:     "Retrieve memories relevant to a query",
		ArgsUsage: "[query]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.Args().First()

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

			ucOpts := []usecase.Option{}
			embedder, err := embeddingCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if embedder != nil {
				ucOpts = append(ucOpts, usecase.WithEmbedding(embedder))
			}

			var retrieveOpts []usecase.RetrieveOption
			if category != "" {
				retrieveOpts = append(retrieveOpts, usecase.WithCategory(types.Category(category)))
			}

			records, err := usecase.New(repo, ucOpts...).Retrieve(ctx, userID, query, limit, retrieveOpts...)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No previous interactions found.")
				return nil
			}

			idColor := color.New(color.FgCyan)
			metaColor := color.New(color.FgHiBlack)
			for _, record := range records {
				fmt.Printf("%s %s\n", idColor.Sprintf("[%s]", record.ID), record.Content)
				metaColor.Printf("  %s | %s | accessed %d times | %s\n",
					record.Category, record.State,
					record.AccessCount, record.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
