package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var (
		cfg    config
		format string
	)

	flags := []cli.Flag{formatFlag(&format)}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show the memo for a profile",
		ArgsUsage: "<profile-url>",
		Flags:     flags,
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

			m := uc.GetMemo(ctx, ref)
			if m == nil {
				fmt.Fprintf(c.Root().Writer, "no memo for %s\n", ref)
				return nil
			}

			return writeMemo(c.Root().Writer, format, m)
		},
	}
}

func hasCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "has",
		Usage:     "Print whether a memo exists for a profile",
		ArgsUsage: "<profile-url>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() < 1 {
				return goerr.New("profile URL is required")
			}

			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			fmt.Fprintf(c.Root().Writer, "%t\n", uc.HasMemo(ctx, c.Args().First()))
			return nil
		},
	}
}
