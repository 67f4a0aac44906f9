package cli

import (
	"context"

	"github.com/m-mizutani/profmemo/pkg/model"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg    config
		format string
		limit  int64
	)

	flags := []cli.Flag{
		formatFlag(&format),
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of memos to list, 0 for all",
			Value:       0,
			Sources:     cli.EnvVars("PROFMEMO_LIST_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List memos, most recently updated first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			memos := uc.GetAllMemos(ctx)
			return writeMemos(c.Root().Writer, format, truncate(memos, limit))
		},
	}
}

func truncate(memos []*model.Memo, limit int64) []*model.Memo {
	if limit > 0 && int64(len(memos)) > limit {
		return memos[:limit]
	}
	return memos
}
