package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-lab/mnemo/pkg/cli/config"
	"github.com/mnemo-lab/mnemo/pkg/domain/model"
	"github.com/mnemo-lab/mnemo/pkg/domain/types"
	"github.com/mnemo-lab/mnemo/pkg/service/identity"
	"github.com/mnemo-lab/mnemo/pkg/usecase"
	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// userFlags are shared by the local one-shot commands
type userFlags struct {
	userID      string
	sessionFile string
}

func (u *userFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "User ID (defaults to the local session identity)",
			Sources:     cli.EnvVars("MNEMO_USER_ID"),
			Destination: &u.userID,
		},
		&cli.StringFlag{
			Name:        "session-file",
			Usage:       "Path of the local session identity file",
			Value:       identity.DefaultSessionFile,
			Sources:     cli.EnvVars("MNEMO_SESSION_FILE"),
			Destination: &u.sessionFile,
		},
	}
}

func (u *userFlags) resolve(ctx context.Context) (types.UserID, error) {
	if u.userID != "" {
		return types.UserID(u.userID), nil
	}
	return identity.NewFileProvider(u.sessionFile).GetOrCreateUserID(ctx)
}

func cmdSave() *cli.Command {
	var user userFlags
	var category string
	var metadataJSON string
	var repoCfg config.Repository
	var embeddingCfg config.Embedding

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Memory category",
			Destination: &category,
		},
		&cli.StringFlag{
			Name:        "metadata",
			Usage:       "Metadata as a JSON object",
			Destination: &metadataJSON,
		},
	}
	flags = append(flags, user.flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, embeddingCfg.Flags()...)

	return &cli.Command{
		Name:      "save",
		Usage:     "Save a memory",
		ArgsUsage: "<content>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			content := c.Args().First()
			if content == "" {
				return goerr.Wrap(types.ErrInvalidInput, "content argument is required")
			}

			var metadata model.Metadata
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
					return goerr.Wrap(types.ErrInvalidInput, "metadata must be a JSON object")
				}
			}

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

			id, err := usecase.New(repo, ucOpts...).Save(ctx, userID, content, metadata, types.Category(category))
			if err != nil {
				return err
			}

			fmt.Printf("Saved memory %s for user %s\n", id, userID)
			return nil
		},
	}
}
