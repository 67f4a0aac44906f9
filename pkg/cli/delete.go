package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func deleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete the memo for a profile",
		ArgsUsage: "<profile-url>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() < 1 {
				return goerr.New("profile URL is required")
			}
			ref := c.Args().First()

			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if !uc.DeleteMemo(ctx, ref) {
				fmt.Fprintf(c.Root().Writer, "no memo for %s\n", ref)
				return nil
			}
			if err := checkPersisted(uc); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "deleted memo for %s\n", ref)
			return nil
		},
	}
}

func clearCommand() *cli.Command {
	var (
		cfg   config
		force bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "Confirm deleting every memo",
			Destination: &force,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete all memos",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !force {
				return goerr.New("refusing to delete all memos without --force")
			}

			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			count := uc.Count(ctx)
			if !uc.ClearAllMemos(ctx) {
				return goerr.Wrap(uc.PersistErr(), "failed to clear stored memos")
			}

			fmt.Fprintf(c.Root().Writer, "deleted %d memos\n", count)
			return nil
		},
	}
}
